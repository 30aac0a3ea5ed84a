package pcsc

import (
	"errors"

	"github.com/ebfe/scard"
)

var errNoAttrib = errors.New("attribute not available")

// fakeReader answers control codes and attributes from fixed tables.
type fakeReader struct {
	controls map[uint32][]byte
	attribs  map[scard.Attrib][]byte
	err      error

	sent []sentControl
}

type sentControl struct {
	Ioctl uint32
	In    []byte
}

func (r *fakeReader) Control(ioctl uint32, in []byte) ([]byte, error) {
	r.sent = append(r.sent, sentControl{Ioctl: ioctl, In: in})
	if r.err != nil {
		return nil, r.err
	}
	out, ok := r.controls[ioctl]
	if !ok {
		return nil, scard.ErrInvalidParameter
	}
	return out, nil
}

func (r *fakeReader) GetAttrib(id scard.Attrib) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	out, ok := r.attribs[id]
	if !ok {
		return nil, errNoAttrib
	}
	return out, nil
}
