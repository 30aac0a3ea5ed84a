package ccid

import (
	"github.com/gregLibert/ccid-probe/pkg/usb"
)

// IsCandidate reports whether dev exposes the CCID class, either at device level
// or on any of its interfaces.
func IsCandidate(dev usb.Device) bool {
	return dev.Class == usb.ClassSmartCard || dev.HasInterfaceClass(usb.ClassSmartCard)
}

// Locate returns the first candidate device in enumeration order.
// The boolean is false when no device qualifies.
func Locate(devices []usb.Device) (usb.Device, bool) {
	for _, dev := range devices {
		if IsCandidate(dev) {
			return dev, true
		}
	}
	return usb.Device{}, false
}

// LocateOn enumerates the host's devices and locates a candidate among them.
// Absence is reported through the boolean; the error is only set when the
// enumeration itself failed.
func LocateOn(host usb.Host) (usb.Device, bool, error) {
	devices, err := host.Devices()
	if err != nil {
		return usb.Device{}, false, stageError(StageLocate, "enumeration failed: %w", err)
	}
	dev, ok := Locate(devices)
	return dev, ok, nil
}
