package ccid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/gregLibert/ccid-probe/pkg/usb"
)

func readerDevice() usb.Device {
	return usb.Device{
		Bus: 1, Address: 4, VendorID: 0x08e6, ProductID: 0x3437,
		Configurations: []usb.Configuration{readerConfig()},
	}
}

func TestProber_Run(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	h := &fakeHandle{
		cfg:          readerConfig(),
		driverActive: true,
		response:     []byte{0x81, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
	}
	host := &fakeHost{devices: []usb.Device{{Class: 0x09}, readerDevice()}, handle: h}

	res, err := NewProber(host, log).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := res.Report.String(); got != "ICC present" {
		t.Errorf("verdict = %q, want %q", got, "ICC present")
	}
	if diff := cmp.Diff(readerDevice(), res.Device); diff != "" {
		t.Errorf("device mismatch (-want +got):\n%s", diff)
	}
	if res.Endpoints.BulkOut.Address != 0x01 || res.Endpoints.BulkIn.Address != 0x82 {
		t.Errorf("endpoints = %+v", res.Endpoints)
	}

	want := []string{"configure", "detach", "claim", "write", "read", "release", "attach"}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if !h.closed {
		t.Error("device handle was not closed")
	}
}

func TestProber_Run_Failures(t *testing.T) {
	t.Run("No device", func(t *testing.T) {
		log, _ := logtest.NewNullLogger()
		host := &fakeHost{devices: []usb.Device{{Class: 0x09}}}

		_, err := NewProber(host, log).Run(context.Background())
		if !errors.Is(err, ErrNoDevice) || StageOf(err) != StageLocate {
			t.Fatalf("err = %v, want locate stage ErrNoDevice", err)
		}
		if len(host.opened) != 0 {
			t.Error("no device should have been opened")
		}
	})

	t.Run("Timeout releases the device", func(t *testing.T) {
		log, _ := logtest.NewNullLogger()
		h := &fakeHandle{cfg: readerConfig(), blockRead: true}
		host := &fakeHost{devices: []usb.Device{readerDevice()}, handle: h}

		p := NewProber(host, log)
		p.Timeout = 10 * time.Millisecond
		_, err := p.Run(context.Background())
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("err = %v, want ErrTimeout", err)
		}
		if h.calls[len(h.calls)-1] != "release" || !h.closed {
			t.Errorf("device not released: calls %v, closed %v", h.calls, h.closed)
		}
	})

	t.Run("Malformed reply keeps raw bytes", func(t *testing.T) {
		log, _ := logtest.NewNullLogger()
		h := &fakeHandle{cfg: readerConfig(), response: []byte{0x81, 0x00, 0x00}}
		host := &fakeHost{devices: []usb.Device{readerDevice()}, handle: h}

		res, err := NewProber(host, log).Run(context.Background())
		if !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("err = %v, want ErrMalformedFrame", err)
		}
		if res == nil || len(res.Response) != 3 {
			t.Errorf("partial result missing raw reply: %+v", res)
		}
	})

	t.Run("Open failure", func(t *testing.T) {
		log, _ := logtest.NewNullLogger()
		host := &fakeHost{devices: []usb.Device{readerDevice()}}

		_, err := NewProber(host, log).Run(context.Background())
		if StageOf(err) != StageClaim {
			t.Fatalf("stage = %q, want %q", StageOf(err), StageClaim)
		}
	})
}
