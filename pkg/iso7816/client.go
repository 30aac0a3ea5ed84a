package iso7816

import (
	"errors"
	"fmt"
)

// CLIENT & PROTOCOL LOGIC:
// The Client handles the two T=0 transport statuses that leak to the
// application layer:
//
// 1. "61 XX" (Response Available): a GET RESPONSE with Le = XX is issued.
// 2. "6C XX" (Wrong Length): the original command is re-sent with Le = XX.
//
// Send() returns a Trace holding every atomic transaction of the logical request.

// MaxExchanges bounds the number of transactions a single Send may perform.
const MaxExchanges = 16

// ErrTooManyExchanges is returned when a card keeps answering 61XX or 6CXX.
var ErrTooManyExchanges = errors.New("too many chained exchanges")

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and handles protocol logic (61xx, 6Cxx).
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	var trace Trace

	for next := cmd; next != nil; {
		if len(trace) == MaxExchanges {
			return trace, ErrTooManyExchanges
		}

		tx, err := c.exchange(next)
		if err != nil {
			return trace, err
		}
		trace = append(trace, tx)
		next = followUp(next, tx.Response.Status)
	}

	return trace, nil
}

func (c *Client) exchange(cmd *CommandAPDU) (Transaction, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return Transaction{}, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return Transaction{}, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return Transaction{}, err
	}

	return Transaction{Command: cmd, Response: resp}, nil
}

// followUp returns the command the status word asks for, or nil.
func followUp(cmd *CommandAPDU, sw StatusWord) *CommandAPDU {
	switch sw.SW1() {
	case 0x61:
		// GET RESPONSE stays on the same logical channel, without the chaining bit.
		cla := cmd.CLA
		if c, err := DecodeClass(cla); err == nil {
			cla = c.Unchained()
		}
		return NewCommandAPDU(cla, INS_GET_RESPONSE, 0x00, 0x00, nil, shortLe(sw.SW2()))
	case 0x6C:
		retry := *cmd
		retry.Ne = shortLe(sw.SW2())
		return &retry
	}
	return nil
}
