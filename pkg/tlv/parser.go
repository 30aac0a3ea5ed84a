// Package tlv maps Tag-Length-Value data onto Go structures using struct tags.
//
// Two encodings are understood:
//   - BER-TLV (ISO 7816-4 / X.690), decoded by github.com/moov-io/bertlv, as found
//     in card responses.
//   - SIMPLE-TLV (ISO 7816-4 section 5.2.1): one tag byte and one length byte
//     (or 0xFF followed by two bytes). PC/SC part 10 feature lists and TLV
//     properties use it.
//
// Both decode into []bertlv.TLV, so the same struct mapping serves them:
//
//	type Features struct {
//		VerifyPinDirect []byte       `tlv:"06" fmt:"be"`
//		Unknown         []bertlv.TLV `tlv:",unknown"`
//	}
package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshal decodes BER-TLV data into target, a pointer to a tagged struct.
func Unmarshal(data []byte, target any) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalSimple decodes SIMPLE-TLV data into target, a pointer to a tagged struct.
func UnmarshalSimple(data []byte, target any) error {
	packets, err := DecodeSimple(data)
	if err != nil {
		return err
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps decoded packets onto the fields of target.
// Supported field kinds are []byte (raw value), string (value as text) and
// nested structs (for constructed BER tags). Packets whose tag matches no field
// land in the field tagged `tlv:",unknown"`, if any.
func UnmarshalFromPackets(packets []bertlv.TLV, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %s", v.Kind())
	}
	t := v.Type()

	consumed := make([]bool, len(packets))
	unknown := -1

	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("tlv")
		if tag == "" {
			continue
		}
		if tag == ",unknown" {
			unknown = i
			continue
		}

		want := strings.ToUpper(strings.Split(tag, ",")[0])
		for idx, packet := range packets {
			if strings.ToUpper(packet.Tag) != want {
				continue
			}
			if err := assign(v.Field(i), packet); err != nil {
				return fmt.Errorf("tag %s: %w", want, err)
			}
			consumed[idx] = true
		}
	}

	if unknown < 0 {
		return nil
	}
	var leftovers []bertlv.TLV
	for idx, packet := range packets {
		if !consumed[idx] {
			leftovers = append(leftovers, packet)
		}
	}
	if len(leftovers) > 0 {
		v.Field(unknown).Set(reflect.ValueOf(leftovers))
	}
	return nil
}

func assign(field reflect.Value, packet bertlv.TLV) error {
	switch {
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
		field.SetBytes(rawValue(packet))
	case field.Kind() == reflect.String:
		field.SetString(string(packet.Value))
	case field.Kind() == reflect.Struct:
		if len(packet.TLVs) > 0 {
			return UnmarshalFromPackets(packet.TLVs, field.Addr().Interface())
		}
		return Unmarshal(packet.Value, field.Addr().Interface())
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// rawValue returns the value bytes of packet, re-encoding children of a
// constructed tag.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

// GetValue scans BER-TLV data for a top-level tag and returns its value.
func GetValue(data []byte, tag uint) ([]byte, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, err
	}

	want := fmt.Sprintf("%02X", tag)
	for _, p := range packets {
		if strings.ToUpper(p.Tag) == want {
			return rawValue(p), nil
		}
	}
	return nil, fmt.Errorf("tag %s not found", want)
}
