package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// WriteStructFields writes one line per non-empty byte-slice or string field of s,
// plus one line per unknown packet. Lines are joined with newlines and no trailing
// newline is added; if sb already holds content, a newline separates the blocks.
//
// The `fmt` struct tag selects how byte values are shown:
// "ascii" (hex and printable text), "be" / "le" (hex and decimal), default hex.
func WriteStructFields(sb *strings.Builder, prefix string, s any) {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	typ := val.Type()

	var lines []string
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		switch {
		case field.Type() == reflect.TypeOf([]bertlv.TLV{}):
			for _, p := range field.Interface().([]bertlv.TLV) {
				lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %s", prefix, p.Tag, strings.ToUpper(hex.EncodeToString(p.Value))))
			}
		case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
			if field.Len() == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, fieldLabel(fieldType), FormatValue(field.Bytes(), fieldType.Tag.Get("fmt"))))
		case field.Kind() == reflect.String:
			if field.Len() == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("    - %s.%s: %q", prefix, fieldLabel(fieldType), field.String()))
		}
	}

	if len(lines) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}
}

func fieldLabel(f reflect.StructField) string {
	tag := strings.Split(f.Tag.Get("tlv"), ",")[0]
	if tag == "" {
		return f.Name
	}
	return fmt.Sprintf("%s (%s)", f.Name, tag)
}

// FormatValue renders data according to a `fmt` struct tag value.
func FormatValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
	case "be":
		return fmt.Sprintf("%X (Dec: %d)", data, BigEndian(data))
	case "le":
		return fmt.Sprintf("%X (Dec: %d)", data, LittleEndian(data))
	default:
		return strings.ToUpper(hex.EncodeToString(data))
	}
}

// MakeSafeASCII replaces every non-printable byte with a dot.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}

// DescribeBER decodes data as BER-TLV and renders it as an indented tree.
func DescribeBER(data []byte) (string, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return "", fmt.Errorf("bertlv decode failed: %w", err)
	}
	var sb strings.Builder
	writeTree(&sb, packets, 0)
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func writeTree(sb *strings.Builder, packets []bertlv.TLV, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, p := range packets {
		tag := strings.ToUpper(p.Tag)
		if len(p.TLVs) > 0 {
			fmt.Fprintf(sb, "%s%s\n", indent, tag)
			writeTree(sb, p.TLVs, depth+1)
			continue
		}
		fmt.Fprintf(sb, "%s%s: %X\n", indent, tag, p.Value)
	}
}
