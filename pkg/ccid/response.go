package ccid

import (
	"encoding/hex"
	"fmt"

	"github.com/gregLibert/ccid-probe/pkg/bits"
)

// Offsets inside a RDR_to_PC_SlotStatus reply.
const (
	offsetSlot   = 5
	offsetSeq    = 6
	offsetStatus = 7
	offsetError  = 8

	slotStatusMinLen = offsetStatus + 1
)

// ReportKind classifies a decoded reply.
type ReportKind int

const (
	// NoResponse means the read returned zero bytes.
	NoResponse ReportKind = iota
	// SlotStatus means a RDR_to_PC_SlotStatus reply was decoded.
	SlotStatus
	// Unrecognized means the message type is not decoded further.
	Unrecognized
)

// Report is the interpretation of one reply.
type Report struct {
	Kind ReportKind
	Type MessageType
	Raw  []byte

	// Slot status fields, valid when Kind is SlotStatus.
	Slot       byte
	Seq        byte
	Status     byte
	ICCPresent bool
	// HasErrorCode is set when the reply is long enough to carry bError.
	HasErrorCode bool
	ErrorCode    byte
}

// ICCStatus returns bmICCStatus (bits 2..1 of bStatus):
// 0 present and active, 1 present and inactive, 2 no ICC present.
func (r Report) ICCStatus() byte {
	return bits.GetRange(r.Status, 2, 1)
}

// CommandStatus returns bmCommandStatus (bits 8..7 of bStatus):
// 0 processed without error, 1 failed, 2 time extension requested.
func (r Report) CommandStatus() byte {
	return bits.GetRange(r.Status, 8, 7)
}

// String returns the one-line verdict printed for a probe.
func (r Report) String() string {
	switch r.Kind {
	case NoResponse:
		return "no response received"
	case SlotStatus:
		if r.ICCPresent {
			return "ICC present"
		}
		return "no ICC present"
	default:
		return fmt.Sprintf("unrecognized type 0x%02x", byte(r.Type))
	}
}

// Decode interprets raw as a CCID reply. An empty reply is a valid NoResponse
// report. A slot-status reply shorter than 8 bytes fails with ErrMalformedFrame.
// Replies of any other type are reported by type only.
func Decode(raw []byte) (Report, error) {
	if len(raw) == 0 {
		return Report{Kind: NoResponse}, nil
	}

	msgType := MessageType(raw[0])
	if msgType != RDRtoPCSlotStatus {
		return Report{Kind: Unrecognized, Type: msgType, Raw: raw}, nil
	}

	if len(raw) < slotStatusMinLen {
		return Report{}, &Error{
			Stage: StageDecode,
			Err:   fmt.Errorf("%w: %s needs %d bytes, got %d (%s)", ErrMalformedFrame, msgType, slotStatusMinLen, len(raw), hex.EncodeToString(raw)),
		}
	}

	status := raw[offsetStatus]
	report := Report{
		Kind:       SlotStatus,
		Type:       msgType,
		Raw:        raw,
		Slot:       raw[offsetSlot],
		Seq:        raw[offsetSeq],
		Status:     status,
		ICCPresent: bits.IsSet(status, 1),
	}
	if len(raw) > offsetError {
		report.HasErrorCode = true
		report.ErrorCode = raw[offsetError]
	}
	return report, nil
}
