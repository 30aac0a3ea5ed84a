// Package libusb implements usb.Host and usb.Handle on top of libusb, through
// github.com/google/gousb.
//
// Kernel driver handling follows libusb's auto-detach model: detaching turns
// auto-detach on, libusb unbinds the driver when the interface is claimed and
// binds it again when the interface is released. Whether a driver is currently
// bound is read from sysfs, which gousb does not expose.
package libusb

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/gregLibert/ccid-probe/pkg/usb"
)

var (
	_ usb.Host   = (*Host)(nil)
	_ usb.Handle = (*Handle)(nil)
)

// Options configure a Host.
type Options struct {
	// Debug is the libusb log level (0 silent to 4 debug).
	Debug int
	// SysfsRoot overrides SysfsUSBPath.
	SysfsRoot string
}

// Host is a libusb context.
type Host struct {
	ctx       *gousb.Context
	sysfsRoot string
}

// NewHost initializes libusb. The Host must be closed.
func NewHost(opts Options) *Host {
	ctx := gousb.NewContext()
	if opts.Debug > 0 {
		ctx.Debug(opts.Debug)
	}
	root := opts.SysfsRoot
	if root == "" {
		root = SysfsUSBPath
	}
	return &Host{ctx: ctx, sysfsRoot: root}
}

// Devices lists attached devices. The enumeration reads descriptors only and
// opens nothing.
func (h *Host) Devices() ([]usb.Device, error) {
	var devices []usb.Device
	_, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		devices = append(devices, deviceFromDesc(desc))
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	return devices, nil
}

// Open opens the device at dev's bus and address.
func (h *Host) Open(dev usb.Device) (usb.Handle, error) {
	opened, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Bus == dev.Bus && desc.Address == dev.Address
	})
	if err != nil {
		closeAll(opened)
		return nil, fmt.Errorf("opening %s: %w", dev, err)
	}
	if len(opened) == 0 {
		return nil, fmt.Errorf("device %s is no longer attached", dev)
	}
	closeAll(opened[1:])

	return &Handle{dev: opened[0], desc: dev, sysfsRoot: h.sysfsRoot}, nil
}

// Close releases the libusb context.
func (h *Host) Close() error {
	return h.ctx.Close()
}

func closeAll(devs []*gousb.Device) {
	for _, d := range devs {
		_ = d.Close()
	}
}
