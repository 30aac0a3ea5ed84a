/*
Package ccid talks to a smart-card reader directly over its USB CCID interface,
bypassing the PC/SC middleware.

# Message Framing

Every CCID message starts with a 10-byte header, for both directions:

	offset 0  bMessageType
	offset 1  dwLength      (4 bytes, little-endian, size of the data that follows)
	offset 5  bSlot
	offset 6  bSeq
	offset 7  3 message-specific bytes

Commands (PC_to_RDR_*) are written on the bulk-OUT endpoint and the matching
reply (RDR_to_PC_*) is read back from the bulk-IN endpoint. For the slot-status
family of replies the message-specific bytes are bStatus, bError and bClockStatus.

# Probe Pipeline

A probe is a single pass with no retained state:

 1. Locate: pick the first attached device exposing the CCID class.
 2. Claim: configure it, pick its CCID interface, detach the kernel driver,
    resolve the bulk endpoints, claim the interface.
 3. Exchange: one command write, one bounded read.
 4. Decode: interpret the reply.

Each stage reports failures as an *Error carrying the Stage, so callers can tell
a missing reader from a transfer timeout.
*/
package ccid

import (
	"fmt"
	"time"
)

// HeaderSize is the size of the fixed CCID message header.
const HeaderSize = 10

// MaxResponseSize is the size of the buffer used to read a reply.
const MaxResponseSize = 256

// DefaultTimeout bounds the bulk-IN read of an exchange.
const DefaultTimeout = 5 * time.Second

// MessageType is the bMessageType field of a CCID header.
type MessageType byte

// Bulk-OUT messages (CCID rev 1.1, section 6.1).
const (
	PCtoRDRIccPowerOn       MessageType = 0x62
	PCtoRDRIccPowerOff      MessageType = 0x63
	PCtoRDRGetSlotStatus    MessageType = 0x65
	PCtoRDRXfrBlock         MessageType = 0x6F
	PCtoRDRGetParameters    MessageType = 0x6C
	PCtoRDRResetParameters  MessageType = 0x6D
	PCtoRDRSetParameters    MessageType = 0x61
	PCtoRDREscape           MessageType = 0x6B
	PCtoRDRIccClock         MessageType = 0x6E
	PCtoRDRT0APDU           MessageType = 0x6A
	PCtoRDRSecure           MessageType = 0x69
	PCtoRDRMechanical       MessageType = 0x71
	PCtoRDRAbort            MessageType = 0x72
	PCtoRDRSetDataRateClock MessageType = 0x73
)

// Bulk-IN messages (CCID rev 1.1, section 6.2).
const (
	RDRtoPCDataBlock  MessageType = 0x80
	RDRtoPCSlotStatus MessageType = 0x81
	RDRtoPCParameters MessageType = 0x82
	RDRtoPCEscape     MessageType = 0x83
	RDRtoPCDataRate   MessageType = 0x84
)

var messageNames = map[MessageType]string{
	PCtoRDRIccPowerOn:       "PC_to_RDR_IccPowerOn",
	PCtoRDRIccPowerOff:      "PC_to_RDR_IccPowerOff",
	PCtoRDRGetSlotStatus:    "PC_to_RDR_GetSlotStatus",
	PCtoRDRXfrBlock:         "PC_to_RDR_XfrBlock",
	PCtoRDRGetParameters:    "PC_to_RDR_GetParameters",
	PCtoRDRResetParameters:  "PC_to_RDR_ResetParameters",
	PCtoRDRSetParameters:    "PC_to_RDR_SetParameters",
	PCtoRDREscape:           "PC_to_RDR_Escape",
	PCtoRDRIccClock:         "PC_to_RDR_IccClock",
	PCtoRDRT0APDU:           "PC_to_RDR_T0APDU",
	PCtoRDRSecure:           "PC_to_RDR_Secure",
	PCtoRDRMechanical:       "PC_to_RDR_Mechanical",
	PCtoRDRAbort:            "PC_to_RDR_Abort",
	PCtoRDRSetDataRateClock: "PC_to_RDR_SetDataRateAndClockFrequency",
	RDRtoPCDataBlock:        "RDR_to_PC_DataBlock",
	RDRtoPCSlotStatus:       "RDR_to_PC_SlotStatus",
	RDRtoPCParameters:       "RDR_to_PC_Parameters",
	RDRtoPCEscape:           "RDR_to_PC_Escape",
	RDRtoPCDataRate:         "RDR_to_PC_DataRateAndClockFrequency",
}

func (m MessageType) String() string {
	if name, ok := messageNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(0x%02X)", byte(m))
}
