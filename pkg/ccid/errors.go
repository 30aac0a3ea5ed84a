package ccid

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a failure happened in.
type Stage string

const (
	StageLocate    Stage = "locate"
	StageConfigure Stage = "configure"
	StageDetach    Stage = "detach"
	StageEndpoints Stage = "endpoints"
	StageClaim     Stage = "claim"
	StageTransport Stage = "transport"
	StageDecode    Stage = "decode"
)

var (
	// ErrNoDevice means enumeration completed without a CCID candidate.
	ErrNoDevice = errors.New("no CCID device found")
	// ErrNoEndpoints means the selected interface lacks a bulk IN or bulk OUT endpoint.
	ErrNoEndpoints = errors.New("bulk IN/OUT endpoints not found")
	// ErrTimeout means a transfer did not complete before its deadline.
	ErrTimeout = errors.New("transfer timed out")
	// ErrMalformedFrame means a reply is shorter than its message type requires.
	ErrMalformedFrame = errors.New("malformed CCID frame")
)

// Error is a failure of one pipeline stage.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, format string, args ...any) *Error {
	return &Error{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// StageOf returns the stage of the first *Error in err's chain, or "" if there is none.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// IsFatal reports whether err must end the run. Only configuration warnings are
// tolerated; they are logged by Claim and never returned.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return StageOf(err) != StageConfigure
}
