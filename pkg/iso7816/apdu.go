package iso7816

import (
	"bytes"
	"fmt"
)

// COMMAND APDU (C-APDU): a 4-byte header (CLA INS P1 P2) and an optional body
// made of Lc, the data field and Le.
//
// ENCODING CASES (ISO 7816-3 section 12.1):
//   - Case 1: header only.
//   - Case 2: header + Le.
//   - Case 3: header + Lc + data.
//   - Case 4: header + Lc + data + Le.
//
// Short lengths take 1 byte (Le 0x00 means 256). Extended lengths are flagged by
// a leading 0x00 and take 2 bytes (Le 0x0000 means 65536). Extended mode is used
// as soon as Nc > 255 or Ne > 256.
//
// RESPONSE APDU (R-APDU): an optional data field followed by the SW1 SW2 trailer.

// APDU limits according to ISO 7816-3.
const (
	MaxShortLc    = 255
	MaxShortLe    = 256
	MaxExtendedLc = 65535
	MaxExtendedLe = 65536
)

// INS_GET_RESPONSE retrieves the bytes announced by a 61XX status.
const INS_GET_RESPONSE byte = 0xC0

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	CLA, INS byte
	P1, P2   byte
	Data     []byte
	Ne       int // Expected response length (0 means none)
}

// NewCommandAPDU creates a command.
func NewCommandAPDU(cla, ins, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{CLA: cla, INS: ins, P1: p1, P2: p2, Data: data, Ne: ne}
}

// ParseCommandAPDU decodes an encoded C-APDU, recognizing the 7 encoding cases.
func ParseCommandAPDU(raw []byte) (*CommandAPDU, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("command too short: length %d", len(raw))
	}
	if _, err := DecodeClass(raw[0]); err != nil {
		return nil, err
	}
	cmd := NewCommandAPDU(raw[0], raw[1], raw[2], raw[3], nil, 0)
	body := raw[4:]

	switch {
	case len(body) == 0:
		// Case 1
	case len(body) == 1:
		cmd.Ne = shortLe(body[0])
	case body[0] != 0:
		nc := int(body[0])
		switch len(body) {
		case 1 + nc:
			cmd.Data = body[1:]
		case 2 + nc:
			cmd.Data = body[1 : 1+nc]
			cmd.Ne = shortLe(body[1+nc])
		default:
			return nil, fmt.Errorf("body length %d inconsistent with Lc %d", len(body), nc)
		}
	case len(body) == 3:
		cmd.Ne = extendedLe(body[1], body[2])
	default:
		nc := int(body[1])<<8 | int(body[2])
		if nc == 0 {
			return nil, fmt.Errorf("extended Lc of zero")
		}
		switch len(body) {
		case 3 + nc:
			cmd.Data = body[3:]
		case 5 + nc:
			cmd.Data = body[3 : 3+nc]
			cmd.Ne = extendedLe(body[3+nc], body[4+nc])
		default:
			return nil, fmt.Errorf("body length %d inconsistent with extended Lc %d", len(body), nc)
		}
	}

	return cmd, nil
}

func shortLe(b byte) int {
	if b == 0 {
		return MaxShortLe
	}
	return int(b)
}

func extendedLe(hi, lo byte) int {
	le := int(hi)<<8 | int(lo)
	if le == 0 {
		return MaxExtendedLe
	}
	return le
}

// Bytes encodes the command, choosing Short or Extended lengths from Nc and Ne.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	ne := c.Ne

	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data too long: %d bytes", nc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("invalid Ne %d", ne)
	}

	buf := new(bytes.Buffer)
	buf.Write([]byte{c.CLA, c.INS, c.P1, c.P2})

	extended := nc > MaxShortLc || ne > MaxShortLe

	if nc > 0 {
		if extended {
			buf.Write([]byte{0x00, byte(nc >> 8), byte(nc)})
		} else {
			buf.WriteByte(byte(nc))
		}
		buf.Write(c.Data)
	}

	if ne > 0 {
		switch {
		case !extended:
			// 256 wraps to 0x00
			buf.WriteByte(byte(ne))
		default:
			// without Lc, the leading 00 tells an extended Le apart
			if nc == 0 {
				buf.WriteByte(0x00)
			}
			// 65536 wraps to 0x0000
			buf.Write([]byte{byte(ne >> 8), byte(ne)})
		}
	}

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("CLA: %02X INS: %02X | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.CLA, c.INS, c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw into data and status word. At least the 2 status
// bytes must be present.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	sw := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:sw],
		Status: NewStatusWord(raw[sw], raw[sw+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
