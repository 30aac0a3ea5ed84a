package ccid

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

func claimedSession(t *testing.T, h *fakeHandle) *Session {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	h.cfg = readerConfig()
	s, err := Claim(h, log)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestExchange(t *testing.T) {
	h := &fakeHandle{response: []byte{0x81, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}}
	s := claimedSession(t, h)

	resp, err := s.Exchange(context.Background(), GetSlotStatus(0, 0), time.Second)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if len(resp) != 8 {
		t.Errorf("len(resp) = %d, want 8", len(resp))
	}
	if len(h.written) != 1 {
		t.Fatalf("writes = %d, want exactly 1", len(h.written))
	}
	if got := h.written[0]; string(got) != string(GetSlotStatus(0, 0).Bytes()) {
		t.Errorf("written = %X", got)
	}
}

func TestExchange_Timeout(t *testing.T) {
	h := &fakeHandle{blockRead: true}
	s := claimedSession(t, h)

	start := time.Now()
	_, err := s.Exchange(context.Background(), GetSlotStatus(0, 0), 20*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Exchange hung for %v", elapsed)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if StageOf(err) != StageTransport {
		t.Errorf("stage = %q, want %q", StageOf(err), StageTransport)
	}
}

func TestExchange_Failures(t *testing.T) {
	tests := []struct {
		name      string
		handle    *fakeHandle
		wantCalls int
	}{
		{"Write error", &fakeHandle{writeErr: errors.New("pipe")}, 1},
		{"Read error", &fakeHandle{readErr: errors.New("overflow")}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := claimedSession(t, tt.handle)
			before := len(tt.handle.calls)

			_, err := s.Exchange(context.Background(), GetSlotStatus(0, 0), time.Second)
			if StageOf(err) != StageTransport {
				t.Fatalf("stage = %q, want %q (err: %v)", StageOf(err), StageTransport, err)
			}
			if errors.Is(err, ErrTimeout) {
				t.Errorf("plain failure must not be reported as timeout: %v", err)
			}
			if n := len(tt.handle.calls) - before; n != tt.wantCalls {
				t.Errorf("transfer calls = %d, want %d (no retry)", n, tt.wantCalls)
			}
		})
	}
}
