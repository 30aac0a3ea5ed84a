package libusb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gousb"

	"github.com/gregLibert/ccid-probe/pkg/usb"
)

// Handle is an opened libusb device.
type Handle struct {
	dev       *gousb.Device
	desc      usb.Device
	sysfsRoot string

	config    *gousb.Config
	intf      *gousb.Interface
	claimedAs usb.Interface
}

// configNum returns the active configuration value, or the first one the
// device declares when it reports none.
func (h *Handle) configNum() (int, error) {
	num, err := h.dev.ActiveConfigNum()
	if err == nil && num > 0 {
		return num, nil
	}
	if len(h.desc.Configurations) == 0 {
		if err == nil {
			err = errors.New("device has no configuration")
		}
		return 0, err
	}
	return h.desc.Configurations[0].Number, nil
}

// SetConfiguration selects the active (or first) configuration.
func (h *Handle) SetConfiguration() error {
	if h.config != nil {
		return nil
	}
	num, err := h.configNum()
	if err != nil {
		return err
	}
	cfg, err := h.dev.Config(num)
	if err != nil {
		return fmt.Errorf("set configuration %d: %w", num, err)
	}
	h.config = cfg
	return nil
}

func (h *Handle) ActiveConfiguration() (usb.Configuration, error) {
	num, err := h.configNum()
	if err != nil {
		return usb.Configuration{}, err
	}
	for _, cfg := range h.desc.Configurations {
		if cfg.Number == num {
			return cfg, nil
		}
	}
	return usb.Configuration{}, fmt.Errorf("configuration %d not described by %s", num, h.desc)
}

func (h *Handle) KernelDriverActive(intf int) (bool, error) {
	num, err := h.configNum()
	if err != nil {
		return false, err
	}
	return kernelDriverBound(h.sysfsRoot, h.desc.Bus, h.desc.Address, num, intf)
}

// DetachKernelDriver enables libusb auto-detach; the driver is unbound when the
// interface gets claimed.
func (h *Handle) DetachKernelDriver(int) error {
	return h.dev.SetAutoDetach(true)
}

// AttachKernelDriver is a no-op: with auto-detach on, libusb binds the driver
// again when the interface is released.
func (h *Handle) AttachKernelDriver(int) error {
	return nil
}

func (h *Handle) ClaimInterface(intf usb.Interface) error {
	if h.intf != nil {
		return fmt.Errorf("interface %d already claimed", h.claimedAs.Number)
	}
	if h.config == nil {
		// the earlier SetConfiguration was rejected; the claim needs a config either way
		if err := h.SetConfiguration(); err != nil {
			return err
		}
	}
	claimed, err := h.config.Interface(intf.Number, intf.Alternate)
	if err != nil {
		return err
	}
	h.intf = claimed
	h.claimedAs = intf
	return nil
}

func (h *Handle) ReleaseInterface(intf usb.Interface) error {
	if h.intf == nil || h.claimedAs.Number != intf.Number {
		return fmt.Errorf("interface %d is not claimed", intf.Number)
	}
	h.intf.Close()
	h.intf = nil
	return nil
}

func (h *Handle) Write(ctx context.Context, ep usb.Endpoint, data []byte) (int, error) {
	if h.intf == nil {
		return 0, errors.New("no claimed interface")
	}
	out, err := h.intf.OutEndpoint(ep.Number())
	if err != nil {
		return 0, err
	}
	return out.WriteContext(ctx, data)
}

func (h *Handle) Read(ctx context.Context, ep usb.Endpoint, buf []byte) (int, error) {
	if h.intf == nil {
		return 0, errors.New("no claimed interface")
	}
	in, err := h.intf.InEndpoint(ep.Number())
	if err != nil {
		return 0, err
	}
	n, err := in.ReadContext(ctx, buf)
	if err != nil && ctx.Err() != nil {
		return n, fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return n, err
}

// Close releases the interface and configuration if still held, then closes
// the device.
func (h *Handle) Close() error {
	if h.intf != nil {
		h.intf.Close()
		h.intf = nil
	}
	var errs []error
	if h.config != nil {
		errs = append(errs, h.config.Close())
		h.config = nil
	}
	errs = append(errs, h.dev.Close())
	return errors.Join(errs...)
}
