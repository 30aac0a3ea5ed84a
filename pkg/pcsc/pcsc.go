// Package pcsc gathers reader-level tools that go through the PC/SC
// middleware instead of raw USB: escape commands sent with SCardControl,
// reader attributes read with SCardGetAttrib, and the PC/SC v2 part 10
// feature and property discovery.
//
// Every tool takes a Controller, which *scard.Card satisfies. Connect a card
// handle in direct mode to talk to a reader without an inserted card.
package pcsc

import (
	"errors"

	"github.com/ebfe/scard"
)

// CtlCode builds a reader control code the way pcsc-lite's SCARD_CTL_CODE does.
func CtlCode(code uint32) uint32 {
	return 0x42000000 + code
}

// Control codes and attributes.
var (
	IoctlGetFeatureRequest = CtlCode(3400)
	IoctlVendorIFDExchange = CtlCode(3600)
	IoctlGetUSBPath        = CtlCode(3601)
)

// AttrChannelID is SCARD_ATTR_CHANNEL_ID: DDDDCCCC where DDDD is the channel
// type and CCCC the channel number.
const AttrChannelID = scard.Attrib(0x20110)

var (
	// ErrUnsupported is returned when the driver rejects a control code.
	ErrUnsupported = errors.New("not supported by the reader driver")
	// ErrEscapeFailed is returned when an escape command reports a non-zero status.
	ErrEscapeFailed = errors.New("escape command failed")
)

// Controller is the part of a PC/SC card handle the tools need.
type Controller interface {
	Control(ioctl uint32, in []byte) ([]byte, error)
	GetAttrib(id scard.Attrib) ([]byte, error)
}

// control sends an ioctl, mapping an invalid parameter answer to ErrUnsupported.
func control(c Controller, ioctl uint32, in []byte) ([]byte, error) {
	out, err := c.Control(ioctl, in)
	if errors.Is(err, scard.ErrInvalidParameter) {
		return nil, ErrUnsupported
	}
	return out, err
}
