package iso7816

import (
	"fmt"

	"github.com/gregLibert/ccid-probe/pkg/bits"
)

// Class byte (CLA) according to ISO/IEC 7816-4 section 5.4.1.
//
// Bit 8 set means proprietary; nothing else is decoded then. Bit 5 is command
// chaining. A first interindustry class (00xx xxxx) carries secure messaging on
// bits 4-3 and the logical channel on bits 2-1. A further interindustry class
// (01xx xxxx) carries one SM bit (bit 6) and the channel minus 4 on bits 4-1.

// Class is a decoded CLA byte.
type Class struct {
	Raw           byte
	IsProprietary bool
	IsChained     bool
	SecureMessage bool
	Channel       uint8 // Logical channel number (0-19)
}

// DecodeClass decodes a CLA byte. 0xFF is reserved and rejected.
func DecodeClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}
	if bits.IsSet(cla, 8) {
		c.IsProprietary = true
		return c, nil
	}

	c.IsChained = bits.IsSet(cla, 5)
	if !bits.IsSet(cla, 7) {
		c.SecureMessage = bits.GetRange(cla, 4, 3) != 0
		c.Channel = bits.GetRange(cla, 2, 1)
	} else {
		c.SecureMessage = bits.IsSet(cla, 6)
		c.Channel = bits.GetRange(cla, 4, 1) + 4
	}
	return c, nil
}

// Unchained returns the CLA byte with the chaining bit cleared. Proprietary
// classes are returned untouched.
func (c Class) Unchained() byte {
	if c.IsProprietary {
		return c.Raw
	}
	return c.Raw &^ 0x10
}

func (c Class) String() string {
	if c.IsProprietary {
		return fmt.Sprintf("CLA %02X: proprietary", c.Raw)
	}
	return fmt.Sprintf("CLA %02X: channel %d, chained %t, SM %t", c.Raw, c.Channel, c.IsChained, c.SecureMessage)
}
