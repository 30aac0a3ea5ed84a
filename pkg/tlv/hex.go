package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes hex text, ignoring spaces and colons so that both
// "00 A4 04 00" and "00:a4:04:00" are accepted.
func ParseHex(parts ...string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "").Replace(strings.Join(parts, ""))
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex '%s': %w", clean, err)
	}
	return data, nil
}

// Hex is ParseHex for literals; it panics on malformed input.
func Hex(parts ...string) []byte {
	data, err := ParseHex(parts...)
	if err != nil {
		panic(err.Error())
	}
	return data
}
