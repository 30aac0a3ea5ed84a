package ccid

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Exchange writes cmd on the bulk-OUT endpoint, then performs a single read of
// up to MaxResponseSize bytes on the bulk-IN endpoint bounded by timeout.
// There is no retry. Failures are StageTransport errors; a missed deadline also
// matches ErrTimeout.
func (s *Session) Exchange(ctx context.Context, cmd Command, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	raw := cmd.Bytes()
	s.log.WithField("endpoint", fmt.Sprintf("0x%02x", s.Endpoints.BulkOut.Address)).
		Debugf("Sending %s (%d bytes): %x", cmd.Type, len(raw), raw)

	writeCtx, cancelWrite := context.WithTimeout(ctx, timeout)
	defer cancelWrite()

	n, err := s.handle.Write(writeCtx, s.Endpoints.BulkOut, raw)
	if err != nil {
		return nil, transportError(writeCtx, "write", err)
	}
	if n != len(raw) {
		return nil, stageError(StageTransport, "short write: %d of %d bytes", n, len(raw))
	}

	readCtx, cancelRead := context.WithTimeout(ctx, timeout)
	defer cancelRead()

	buf := make([]byte, MaxResponseSize)
	n, err = s.handle.Read(readCtx, s.Endpoints.BulkIn, buf)
	if err != nil {
		return nil, transportError(readCtx, "read", err)
	}

	return buf[:n], nil
}

func transportError(ctx context.Context, op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Stage: StageTransport, Err: fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)}
	}
	return stageError(StageTransport, "%s: %w", op, err)
}
