package pcsc

import (
	"fmt"
)

// NAD escape commands of the CCID driver, sent through IoctlVendorIFDExchange.
// Byte 3 of the answer is the status, byte 4 carries the value on a get.
var (
	escapeGetNAD = []byte{0x3F, 0x00, 0x00}
	escapeSetNAD = []byte{0x3E, 0x00, 0x01}
)

// GetNAD returns the Node Address used by the reader for T=1 blocks.
func GetNAD(c Controller) (byte, error) {
	res, err := escape(c, escapeGetNAD)
	if err != nil {
		return 0, fmt.Errorf("get NAD: %w", err)
	}
	if len(res) < 5 {
		return 0, fmt.Errorf("get NAD: answer too short: % X", res)
	}
	return res[4], nil
}

// SetNAD changes the Node Address used by the reader.
func SetNAD(c Controller, nad byte) error {
	cmd := append(append([]byte{}, escapeSetNAD...), nad)
	if _, err := escape(c, cmd); err != nil {
		return fmt.Errorf("set NAD %d: %w", nad, err)
	}
	return nil
}

func escape(c Controller, cmd []byte) ([]byte, error) {
	res, err := control(c, IoctlVendorIFDExchange, cmd)
	if err != nil {
		return nil, err
	}
	if len(res) < 4 {
		return nil, fmt.Errorf("answer too short: % X", res)
	}
	if status := res[3]; status != 0 {
		return res, fmt.Errorf("%w: status 0x%02X", ErrEscapeFailed, status)
	}
	return res, nil
}
