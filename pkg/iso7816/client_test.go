package iso7816

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// scriptedCard answers each transmitted command with the next scripted reply.
type scriptedCard struct {
	replies []string
	sent    []string
	err     error
}

func (c *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, strings.ToUpper(hex.EncodeToString(cmd)))
	if c.err != nil {
		return nil, c.err
	}
	if len(c.replies) == 0 {
		return []byte{0x6F, 0x00}, nil
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return hex.DecodeString(reply)
}

func TestClient_Send(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *CommandAPDU
		replies  []string
		wantSent []string
		wantSW   StatusWord
		wantData []byte
	}{
		{
			name:     "Direct success",
			cmd:      NewCommandAPDU(0x00, 0xCA, 0x9F, 0x7F, nil, 256),
			replies:  []string{"CAFE9000"},
			wantSent: []string{"00CA9F7F00"},
			wantSW:   SW_NO_ERROR,
			wantData: []byte{0xCA, 0xFE},
		},
		{
			name:     "61XX triggers GET RESPONSE",
			cmd:      NewCommandAPDU(0x00, 0xA4, 0x04, 0x00, []byte{0xA0, 0x00}, 0),
			replies:  []string{"6102", "6F009000"},
			wantSent: []string{"00A4040002A000", "00C0000002"},
			wantSW:   SW_NO_ERROR,
			wantData: []byte{0x6F, 0x00},
		},
		{
			name:     "GET RESPONSE drops the chaining bit",
			cmd:      NewCommandAPDU(0x11, 0xA4, 0x04, 0x00, []byte{0xA0}, 0),
			replies:  []string{"6101", "019000"},
			wantSent: []string{"11A4040001A0", "01C0000001"},
			wantSW:   SW_NO_ERROR,
			wantData: []byte{0x01},
		},
		{
			name:     "6CXX re-sends with corrected Le",
			cmd:      NewCommandAPDU(0x00, 0xB0, 0x00, 0x00, nil, 10),
			replies:  []string{"6C04", "010203049000"},
			wantSent: []string{"00B000000A", "00B0000004"},
			wantSW:   SW_NO_ERROR,
			wantData: []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:     "Error is returned as is",
			cmd:      NewCommandAPDU(0x00, 0xA4, 0x04, 0x00, []byte{0xA0}, 0),
			replies:  []string{"6A82"},
			wantSent: []string{"00A4040001A0"},
			wantSW:   SW_ERR_FILE_NOT_FOUND,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &scriptedCard{replies: tt.replies}
			trace, err := NewClient(card).Send(tt.cmd)
			if err != nil {
				t.Fatalf("Send() failed: %v", err)
			}

			if diff := cmp.Diff(tt.wantSent, card.sent); diff != "" {
				t.Errorf("sent commands mismatch (-want +got):\n%s", diff)
			}
			if len(trace) != len(tt.wantSent) {
				t.Errorf("trace length = %d, want %d", len(trace), len(tt.wantSent))
			}
			if got := trace.Last().Response.Status; got != tt.wantSW {
				t.Errorf("final status = %04X, want %04X", uint16(got), uint16(tt.wantSW))
			}
			if got := trace.Data(); !bytes.Equal(got, tt.wantData) {
				t.Errorf("data = %X, want %X", got, tt.wantData)
			}
		})
	}
}

func TestClient_Send_OriginalCommandUntouched(t *testing.T) {
	cmd := NewCommandAPDU(0x00, 0xB0, 0x00, 0x00, nil, 10)
	card := &scriptedCard{replies: []string{"6C04", "9000"}}

	if _, err := NewClient(card).Send(cmd); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if cmd.Ne != 10 {
		t.Errorf("original Ne = %d, want 10", cmd.Ne)
	}
}

func TestClient_Send_Errors(t *testing.T) {
	t.Run("Transmission error", func(t *testing.T) {
		boom := errors.New("reader removed")
		card := &scriptedCard{err: boom}
		_, err := NewClient(card).Send(NewCommandAPDU(0x00, 0xA4, 0x00, 0x00, nil, 0))
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapping %v", err, boom)
		}
	})

	t.Run("Short response", func(t *testing.T) {
		card := &scriptedCard{replies: []string{"90"}}
		if _, err := NewClient(card).Send(NewCommandAPDU(0x00, 0xA4, 0x00, 0x00, nil, 0)); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("Endless 61XX", func(t *testing.T) {
		replies := make([]string, MaxExchanges+1)
		for i := range replies {
			replies[i] = "6101"
		}
		card := &scriptedCard{replies: replies}
		trace, err := NewClient(card).Send(NewCommandAPDU(0x00, 0xCA, 0x00, 0x00, nil, 0))
		if !errors.Is(err, ErrTooManyExchanges) {
			t.Errorf("err = %v, want %v", err, ErrTooManyExchanges)
		}
		if len(trace) != MaxExchanges {
			t.Errorf("trace length = %d, want %d", len(trace), MaxExchanges)
		}
	})
}
