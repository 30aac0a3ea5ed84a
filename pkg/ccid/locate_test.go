package ccid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/ccid-probe/pkg/usb"
)

func TestLocate(t *testing.T) {
	hub := usb.Device{VendorID: 0x1d6b, ProductID: 0x0002, Class: 0x09}
	keyboard := usb.Device{
		VendorID: 0x046d, ProductID: 0xc31c,
		Configurations: []usb.Configuration{{Number: 1, Interfaces: []usb.Interface{{Class: 0x03}}}},
	}
	classReader := usb.Device{VendorID: 0x08e6, ProductID: 0x3437, Class: usb.ClassSmartCard}
	interfaceReader := usb.Device{
		VendorID: 0x076b, ProductID: 0x5421,
		Configurations: []usb.Configuration{{Number: 1, Interfaces: []usb.Interface{{Class: 0x03}, ccidInterface(1)}}},
	}

	tests := []struct {
		name    string
		devices []usb.Device
		want    usb.Device
		found   bool
	}{
		{"No devices", nil, usb.Device{}, false},
		{"No CCID device", []usb.Device{hub, keyboard}, usb.Device{}, false},
		{"Device class match", []usb.Device{hub, classReader}, classReader, true},
		{"Interface class match", []usb.Device{keyboard, interfaceReader}, interfaceReader, true},
		{"First candidate wins", []usb.Device{interfaceReader, classReader}, interfaceReader, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Locate(tt.devices)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("device mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocateOn(t *testing.T) {
	t.Run("Enumeration failure", func(t *testing.T) {
		_, _, err := LocateOn(&fakeHost{enumErr: errors.New("libusb: not initialized")})
		if StageOf(err) != StageLocate {
			t.Errorf("stage = %q, want %q (err: %v)", StageOf(err), StageLocate, err)
		}
	})

	t.Run("Absence is not an error", func(t *testing.T) {
		_, found, err := LocateOn(&fakeHost{devices: []usb.Device{{Class: 0x09}}})
		if err != nil || found {
			t.Errorf("LocateOn() = found %v, err %v; want not found, nil", found, err)
		}
	})
}
