package tlv

import (
	"encoding/binary"
	"fmt"

	"github.com/moov-io/bertlv"
)

// DecodeSimple splits SIMPLE-TLV data into packets. Tags are rendered as two
// uppercase hex digits, the way bertlv renders single-byte tags.
func DecodeSimple(data []byte) ([]bertlv.TLV, error) {
	var packets []bertlv.TLV

	for pos := 0; pos < len(data); {
		tag := data[pos]
		pos++

		if pos >= len(data) {
			return nil, fmt.Errorf("tag %02X: missing length", tag)
		}
		length := int(data[pos])
		pos++

		if length == 0xFF {
			if pos+2 > len(data) {
				return nil, fmt.Errorf("tag %02X: truncated 3-byte length", tag)
			}
			length = int(binary.BigEndian.Uint16(data[pos : pos+2]))
			pos += 2
		}

		if pos+length > len(data) {
			return nil, fmt.Errorf("tag %02X: value needs %d bytes, %d left", tag, length, len(data)-pos)
		}

		packets = append(packets, bertlv.TLV{
			Tag:   fmt.Sprintf("%02X", tag),
			Value: data[pos : pos+length],
		})
		pos += length
	}

	return packets, nil
}

// BigEndian interprets up to 8 bytes as an unsigned big-endian integer.
func BigEndian(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// LittleEndian interprets up to 8 bytes as an unsigned little-endian integer.
func LittleEndian(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
