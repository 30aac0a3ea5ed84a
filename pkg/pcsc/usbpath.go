package pcsc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ChannelTypeUSB is the DDDD part of a channel ID for USB readers.
const ChannelTypeUSB uint16 = 0x0020

// Channel is a decoded SCARD_ATTR_CHANNEL_ID.
type Channel struct {
	Type    uint16
	Bus     byte
	Address byte
}

// IsUSB reports whether the reader is attached through USB.
func (ch Channel) IsUSB() bool {
	return ch.Type == ChannelTypeUSB
}

func (ch Channel) String() string {
	if !ch.IsUSB() {
		return fmt.Sprintf("channel type 0x%04X", ch.Type)
	}
	return fmt.Sprintf("USB: bus: %d, addr: %d", ch.Bus, ch.Address)
}

// USBPath returns the USB topology path of the reader, as reported by the driver.
// ErrUnsupported means the driver does not know the control code.
func USBPath(c Controller) (string, error) {
	res, err := control(c, IoctlGetUSBPath, nil)
	if err != nil {
		return "", fmt.Errorf("get USB path: %w", err)
	}
	return string(bytes.TrimRight(res, "\x00")), nil
}

// ChannelID reads and decodes the channel ID attribute of the reader.
func ChannelID(c Controller) (Channel, error) {
	attr, err := c.GetAttrib(AttrChannelID)
	if err != nil {
		return Channel{}, fmt.Errorf("get channel ID: %w", err)
	}
	if len(attr) < 4 {
		return Channel{}, fmt.Errorf("get channel ID: attribute too short: % X", attr)
	}

	v := binary.LittleEndian.Uint32(attr)
	return Channel{
		Type:    uint16(v >> 16),
		Bus:     byte((v & 0xFF00) >> 8),
		Address: byte(v & 0xFF),
	}, nil
}
