package iso7816

import (
	"fmt"
	"strings"
)

// A Transaction is one C-APDU followed by one R-APDU. A Trace is the ordered
// list of transactions issued for a single logical request, so a command
// answered by 61XX yields two entries: the command and its GET RESPONSE.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Data returns the response data of the final transaction.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Describe lists every exchange of the trace, one per line pair.
func (t Trace) Describe() string {
	var sb strings.Builder
	for i, tx := range t {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] >> %s", i+1, tx.Command)
		if tx.Response != nil {
			fmt.Fprintf(&sb, "\n    << %s", tx.Response)
		}
	}
	return sb.String()
}
