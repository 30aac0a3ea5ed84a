package tlv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/moov-io/bertlv"
)

type mockProperties struct {
	LcdLayout   []byte `tlv:"01" fmt:"le"`
	ControlCode []byte `tlv:"12" fmt:"be"`
	Label       []byte `tlv:"50" fmt:"ascii"`
	Firmware    string `tlv:"08"`
	RawData     []byte // No tag
	EmptyField  []byte `tlv:"99"`
	Unknown     []bertlv.TLV
}

func TestWriteStructFields(t *testing.T) {
	mock := mockProperties{
		LcdLayout:   []byte{0x10, 0x02},
		ControlCode: []byte{0x42, 0x33, 0x00, 0x12},
		Label:       []byte{'C', 'C', 'I', 'D', 0x00},
		Firmware:    "1.4.2",
		RawData:     []byte{0xCA, 0xFE},
		Unknown: []bertlv.TLV{
			{Tag: "0D", Value: []byte{0x12, 0x34}},
		},
	}

	tests := []struct {
		name          string
		prefix        string
		input         any
		expectedLines []string
	}{
		{
			name:   "Struct Pointer Input",
			prefix: "Reader",
			input:  &mock,
			expectedLines: []string{
				"    - Reader.LcdLayout (01): 1002 (Dec: 528)",
				"    - Reader.ControlCode (12): 42330012 (Dec: 1110638610)",
				`    - Reader.Label (50): 4343494400 ("CCID.")`,
				`    - Reader.Firmware (08): "1.4.2"`,
				"    - Reader.RawData: CAFE",
				"    - Reader.Unknown Tag 0D: 1234",
			},
		},
		{
			name:          "Nil Pointer",
			prefix:        "Nil",
			input:         (*mockProperties)(nil),
			expectedLines: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			WriteStructFields(&sb, tt.prefix, tt.input)
			actualLines := strings.Split(sb.String(), "\n")

			if diff := cmp.Diff(tt.expectedLines, actualLines); diff != "" {
				t.Errorf("Mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteStructFields_Separator(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("=== HEADER ===")
	WriteStructFields(&sb, "P", mockProperties{RawData: []byte{0x01}})

	if got, want := sb.String(), "=== HEADER ===\n    - P.RawData: 01"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDescribeBER(t *testing.T) {
	got, err := DescribeBER(Hex("6F 07", "84 02 A000", "50 01 41"))
	if err != nil {
		t.Fatalf("DescribeBER failed: %v", err)
	}
	want := "6F\n  84: A000\n  50: 41"
	if got != want {
		t.Errorf("DescribeBER() = %q, want %q", got, want)
	}
}

func TestMakeSafeASCII(t *testing.T) {
	input := []byte{0x41, 0x42, 0x00, 0x1F, 0x7F, 0x43}
	want := "AB...C"

	if got := MakeSafeASCII(input); got != want {
		t.Errorf("MakeSafeASCII() = %q, want %q", got, want)
	}
}
