/*
Package usb describes the USB topology a probe works with as plain data records,
and the host services it consumes to act on a device.

The records mirror the standard descriptor hierarchy:

	Device
	 └─ Configuration (bConfigurationValue)
	     └─ Interface (bInterfaceNumber, bAlternateSetting)
	         └─ Endpoint (bEndpointAddress, bmAttributes)

They are filled once by a Host enumeration pass and never mutated afterwards.
Every sequence is kept in enumeration order, which is what "first match" selection
rules operate on.

The USB stack itself is not implemented here: a Host enumerates and opens devices,
and a Handle exposes configuration, kernel-driver and bulk transfer primitives.
See package libusb for the implementation backed by libusb.
*/
package usb

import (
	"context"
	"fmt"

	"github.com/gregLibert/ccid-probe/pkg/bits"
)

// ClassSmartCard is the USB-IF class code of Chip/Smart Card Interface Devices (CCID).
const ClassSmartCard byte = 0x0B

// Direction is the data direction of an endpoint, seen from the host.
type Direction uint8

const (
	DirectionOut Direction = 0
	DirectionIn  Direction = 1
)

func (d Direction) String() string {
	if d == DirectionIn {
		return "IN"
	}
	return "OUT"
}

// TransferType is the transfer type encoded in bits 2..1 of bmAttributes.
type TransferType uint8

const (
	TransferControl     TransferType = 0
	TransferIsochronous TransferType = 1
	TransferBulk        TransferType = 2
	TransferInterrupt   TransferType = 3
)

func (t TransferType) String() string {
	switch t {
	case TransferControl:
		return "Control"
	case TransferIsochronous:
		return "Isochronous"
	case TransferBulk:
		return "Bulk"
	case TransferInterrupt:
		return "Interrupt"
	default:
		return fmt.Sprintf("TransferType(%d)", uint8(t))
	}
}

// Endpoint is one endpoint descriptor of an interface setting.
type Endpoint struct {
	Address       byte
	Direction     Direction
	Type          TransferType
	MaxPacketSize int
}

// NewEndpoint decodes the direction and transfer type from the raw
// bEndpointAddress and bmAttributes bytes.
func NewEndpoint(address, attributes byte, maxPacketSize int) Endpoint {
	dir := DirectionOut
	if bits.IsSet(address, 8) {
		dir = DirectionIn
	}
	return Endpoint{
		Address:       address,
		Direction:     dir,
		Type:          TransferType(bits.GetRange(attributes, 2, 1)),
		MaxPacketSize: maxPacketSize,
	}
}

// Number returns the endpoint number without the direction bit.
func (e Endpoint) Number() int {
	return int(bits.GetRange(e.Address, 4, 1))
}

func (e Endpoint) String() string {
	return fmt.Sprintf("0x%02x (%s %s, %d bytes)", e.Address, e.Type, e.Direction, e.MaxPacketSize)
}

// Interface is one interface setting of a configuration.
type Interface struct {
	Number    int
	Alternate int
	Class     byte
	SubClass  byte
	Protocol  byte
	Endpoints []Endpoint
}

func (i Interface) String() string {
	return fmt.Sprintf("Interface %d: Class 0x%02x SubClass 0x%02x Protocol 0x%02x",
		i.Number, i.Class, i.SubClass, i.Protocol)
}

// Configuration is one configuration of a device.
type Configuration struct {
	Number     int
	Interfaces []Interface
}

// Device is a device found during enumeration.
type Device struct {
	Bus            int
	Address        int
	VendorID       uint16
	ProductID      uint16
	Class          byte
	Configurations []Configuration
}

// ID returns the vendor:product pair in the lsusb notation.
func (d Device) ID() string {
	return fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID)
}

func (d Device) String() string {
	return fmt.Sprintf("%s (bus %d, address %d)", d.ID(), d.Bus, d.Address)
}

// HasInterfaceClass reports whether any interface of any configuration has the given class.
func (d Device) HasInterfaceClass(class byte) bool {
	for _, cfg := range d.Configurations {
		for _, intf := range cfg.Interfaces {
			if intf.Class == class {
				return true
			}
		}
	}
	return false
}

// Host enumerates and opens devices.
type Host interface {
	// Devices returns every attached device without opening any of them.
	Devices() ([]Device, error)
	// Open gives exclusive access to a previously enumerated device.
	Open(dev Device) (Handle, error)
	Close() error
}

// Handle is an opened device.
type Handle interface {
	// SetConfiguration selects the device's configuration. Devices that are already
	// configured may reject the request.
	SetConfiguration() error
	// ActiveConfiguration returns the configuration the device currently runs.
	ActiveConfiguration() (Configuration, error)

	KernelDriverActive(intf int) (bool, error)
	DetachKernelDriver(intf int) error
	AttachKernelDriver(intf int) error

	ClaimInterface(intf Interface) error
	ReleaseInterface(intf Interface) error

	// Write sends data on an OUT endpoint of the claimed interface.
	Write(ctx context.Context, ep Endpoint, data []byte) (int, error)
	// Read fills buf from an IN endpoint of the claimed interface. It returns
	// once a transfer completes or ctx is done.
	Read(ctx context.Context, ep Endpoint, buf []byte) (int, error)

	Close() error
}
