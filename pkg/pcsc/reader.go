package pcsc

import (
	"fmt"

	"github.com/ebfe/scard"
)

// Context owns a PC/SC resource manager context.
type Context struct {
	ctx *scard.Context
}

// Establish opens a PC/SC context.
func Establish() (*Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish context: %w", err)
	}
	return &Context{ctx: ctx}, nil
}

// ListReaders returns the names of the connected readers.
func (c *Context) ListReaders() ([]string, error) {
	readers, err := c.ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	return readers, nil
}

// Connect opens a card handle on reader. A direct connection needs no card in
// the reader and is what the control and attribute tools expect.
func (c *Context) Connect(reader string, direct bool) (*scard.Card, error) {
	mode, proto := scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1
	if direct {
		mode, proto = scard.ShareDirect, scard.ProtocolUndefined
	}

	card, err := c.ctx.Connect(reader, mode, proto)
	if err != nil {
		return nil, fmt.Errorf("connect to %q: %w", reader, err)
	}
	return card, nil
}

// Release frees the PC/SC context.
func (c *Context) Release() error {
	return c.ctx.Release()
}
