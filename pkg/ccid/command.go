package ccid

import (
	"encoding/binary"
	"fmt"
)

// Command is a PC_to_RDR message. It is built once and never mutated.
type Command struct {
	Type MessageType
	Slot byte
	Seq  byte
	// Params holds the 3 message-specific header bytes (reserved for most commands).
	Params [3]byte
	Data   []byte
}

// GetSlotStatus builds a PC_to_RDR_GetSlotStatus command. It carries no data
// and its 3 trailing header bytes are reserved.
func GetSlotStatus(slot, seq byte) Command {
	return Command{Type: PCtoRDRGetSlotStatus, Slot: slot, Seq: seq}
}

// Bytes encodes the command: the 10-byte header followed by Data.
func (c Command) Bytes() []byte {
	buf := make([]byte, HeaderSize+len(c.Data))
	buf[0] = byte(c.Type)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(c.Data)))
	buf[5] = c.Slot
	buf[6] = c.Seq
	copy(buf[7:HeaderSize], c.Params[:])
	copy(buf[HeaderSize:], c.Data)
	return buf
}

func (c Command) String() string {
	return fmt.Sprintf("%s | Slot: %d | Seq: %d | Length: %d", c.Type, c.Slot, c.Seq, len(c.Data))
}
