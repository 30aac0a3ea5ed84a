package pcsc

import (
	"fmt"
	"strings"

	"github.com/gregLibert/ccid-probe/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// Features is the answer to CM_IOCTL_GET_FEATURE_REQUEST: for each feature
// the reader supports, the 4-byte big-endian control code that triggers it.
type Features struct {
	VerifyPinStart       []byte `tlv:"01" fmt:"be"`
	VerifyPinFinish      []byte `tlv:"02" fmt:"be"`
	ModifyPinStart       []byte `tlv:"03" fmt:"be"`
	ModifyPinFinish      []byte `tlv:"04" fmt:"be"`
	GetKeyPressed        []byte `tlv:"05" fmt:"be"`
	VerifyPinDirect      []byte `tlv:"06" fmt:"be"`
	ModifyPinDirect      []byte `tlv:"07" fmt:"be"`
	MCTReaderDirect      []byte `tlv:"08" fmt:"be"`
	MCTUniversal         []byte `tlv:"09" fmt:"be"`
	IFDPinProperties     []byte `tlv:"0A" fmt:"be"`
	Abort                []byte `tlv:"0B" fmt:"be"`
	SetSPEMessage        []byte `tlv:"0C" fmt:"be"`
	VerifyPinDirectAppID []byte `tlv:"0D" fmt:"be"`
	ModifyPinDirectAppID []byte `tlv:"0E" fmt:"be"`
	WriteDisplay         []byte `tlv:"0F" fmt:"be"`
	GetKey               []byte `tlv:"10" fmt:"be"`
	IFDDisplayProperties []byte `tlv:"11" fmt:"be"`
	GetTLVProperties     []byte `tlv:"12" fmt:"be"`
	CCIDEscCommand       []byte `tlv:"13" fmt:"be"`
	ExecutePACE          []byte `tlv:"20" fmt:"be"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// GetFeatures asks the reader for its PC/SC v2 part 10 feature list.
func GetFeatures(c Controller) (*Features, error) {
	res, err := control(c, IoctlGetFeatureRequest, nil)
	if err != nil {
		return nil, fmt.Errorf("get features: %w", err)
	}

	f := &Features{}
	if err := tlv.UnmarshalSimple(res, f); err != nil {
		return nil, fmt.Errorf("get features: %w", err)
	}
	return f, nil
}

// ControlCode returns the control code of a feature, or false when the
// reader does not list it.
func ControlCode(feature []byte) (uint32, bool) {
	if len(feature) != 4 {
		return 0, false
	}
	return uint32(tlv.BigEndian(feature)), true
}

// Describe returns a human-readable listing of the supported features.
func (f *Features) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== PC/SC FEATURES ===")
	tlv.WriteStructFields(&sb, "Feature", f)
	return sb.String()
}

// Property tags of FEATURE_GET_TLV_PROPERTIES.
const (
	PropLcdLayout                = 0x01
	PropEntryValidationCondition = 0x02
	PropTimeOut2                 = 0x03
	PropLcdMaxCharacters         = 0x04
	PropLcdMaxLines              = 0x05
	PropMinPINSize               = 0x06
	PropMaxPINSize               = 0x07
	PropFirmwareID               = 0x08
	PropPPDUSupport              = 0x09
	PropMaxAPDUDataSize          = 0x0A
	PropIDVendor                 = 0x0B
	PropIDProduct                = 0x0C
)

// Properties is the answer to FEATURE_GET_TLV_PROPERTIES. Integer values are
// little-endian.
type Properties struct {
	LcdLayout                []byte `tlv:"01" fmt:"le"`
	EntryValidationCondition []byte `tlv:"02" fmt:"le"`
	TimeOut2                 []byte `tlv:"03" fmt:"le"`
	LcdMaxCharacters         []byte `tlv:"04" fmt:"le"`
	LcdMaxLines              []byte `tlv:"05" fmt:"le"`
	MinPINSize               []byte `tlv:"06" fmt:"le"`
	MaxPINSize               []byte `tlv:"07" fmt:"le"`
	FirmwareID               []byte `tlv:"08" fmt:"ascii"`
	PPDUSupport              []byte `tlv:"09" fmt:"le"`
	MaxAPDUDataSize          []byte `tlv:"0A" fmt:"le"`
	IDVendor                 []byte `tlv:"0B" fmt:"le"`
	IDProduct                []byte `tlv:"0C" fmt:"le"`

	Unknown []bertlv.TLV `tlv:",unknown"`

	raw []bertlv.TLV
}

// GetProperties reads the TLV properties of the reader. The reader must list
// FEATURE_GET_TLV_PROPERTIES in f.
func GetProperties(c Controller, f *Features) (*Properties, error) {
	code, ok := ControlCode(f.GetTLVProperties)
	if !ok {
		return nil, fmt.Errorf("get properties: %w", ErrUnsupported)
	}

	res, err := control(c, code, nil)
	if err != nil {
		return nil, fmt.Errorf("get properties: %w", err)
	}

	packets, err := tlv.DecodeSimple(res)
	if err != nil {
		return nil, fmt.Errorf("get properties: %w", err)
	}
	p := &Properties{raw: packets}
	if err := tlv.UnmarshalFromPackets(packets, p); err != nil {
		return nil, fmt.Errorf("get properties: %w", err)
	}
	return p, nil
}

// Int returns the integer value of a property. Only 1, 2 and 4 byte values
// are integers.
func (p *Properties) Int(tag byte) (int, bool) {
	want := fmt.Sprintf("%02X", tag)
	for _, packet := range p.raw {
		if packet.Tag != want {
			continue
		}
		switch len(packet.Value) {
		case 1, 2, 4:
			return int(tlv.LittleEndian(packet.Value)), true
		}
		return 0, false
	}
	return 0, false
}

// Describe returns a human-readable listing of the reader properties.
func (p *Properties) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== READER PROPERTIES ===")
	tlv.WriteStructFields(&sb, "Property", p)
	return sb.String()
}
