package ccid

import (
	"context"
	"errors"

	"github.com/gregLibert/ccid-probe/pkg/usb"
)

// fakeHandle records every call made on it and replays scripted replies.
type fakeHandle struct {
	cfg    usb.Configuration
	cfgErr error

	setConfigErr error
	driverActive bool
	driverErr    error
	detachErr    error
	claimErr     error

	response []byte
	writeErr error
	readErr  error
	// blockRead makes Read wait for the context to end.
	blockRead bool

	calls   []string
	written [][]byte
	closed  bool
}

func (f *fakeHandle) SetConfiguration() error {
	f.calls = append(f.calls, "configure")
	return f.setConfigErr
}

func (f *fakeHandle) ActiveConfiguration() (usb.Configuration, error) {
	return f.cfg, f.cfgErr
}

func (f *fakeHandle) KernelDriverActive(int) (bool, error) {
	return f.driverActive, f.driverErr
}

func (f *fakeHandle) DetachKernelDriver(int) error {
	f.calls = append(f.calls, "detach")
	return f.detachErr
}

func (f *fakeHandle) AttachKernelDriver(int) error {
	f.calls = append(f.calls, "attach")
	return nil
}

func (f *fakeHandle) ClaimInterface(usb.Interface) error {
	f.calls = append(f.calls, "claim")
	return f.claimErr
}

func (f *fakeHandle) ReleaseInterface(usb.Interface) error {
	f.calls = append(f.calls, "release")
	return nil
}

func (f *fakeHandle) Write(_ context.Context, _ usb.Endpoint, data []byte) (int, error) {
	f.calls = append(f.calls, "write")
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), data...))
	return len(data), nil
}

func (f *fakeHandle) Read(ctx context.Context, _ usb.Endpoint, buf []byte) (int, error) {
	f.calls = append(f.calls, "read")
	if f.blockRead {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if f.readErr != nil {
		return 0, f.readErr
	}
	return copy(buf, f.response), nil
}

func (f *fakeHandle) Close() error {
	f.closed = true
	return nil
}

type fakeHost struct {
	devices []usb.Device
	enumErr error
	handle  *fakeHandle
	opened  []usb.Device
}

func (h *fakeHost) Devices() ([]usb.Device, error) {
	return h.devices, h.enumErr
}

func (h *fakeHost) Open(dev usb.Device) (usb.Handle, error) {
	if h.handle == nil {
		return nil, errors.New("access denied")
	}
	h.opened = append(h.opened, dev)
	return h.handle, nil
}

func (h *fakeHost) Close() error { return nil }

// ccidInterface is a typical reader interface: bulk OUT 0x01, bulk IN 0x82, interrupt IN 0x83.
func ccidInterface(number int) usb.Interface {
	return usb.Interface{
		Number: number,
		Class:  usb.ClassSmartCard,
		Endpoints: []usb.Endpoint{
			usb.NewEndpoint(0x01, 0x02, 64),
			usb.NewEndpoint(0x82, 0x02, 64),
			usb.NewEndpoint(0x83, 0x03, 8),
		},
	}
}

func readerConfig() usb.Configuration {
	return usb.Configuration{Number: 1, Interfaces: []usb.Interface{ccidInterface(0)}}
}
