package ccid

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gregLibert/ccid-probe/pkg/usb"
)

// Endpoints are the transfer endpoints of a CCID interface.
type Endpoints struct {
	BulkOut usb.Endpoint
	BulkIn  usb.Endpoint
	// Interrupt is the optional notification endpoint (card insertion/removal).
	Interrupt *usb.Endpoint
}

// SelectInterface picks the first CCID-class interface of cfg in enumeration
// order. When there is none it falls back to the first interface and reports
// fallback as true.
func SelectInterface(cfg usb.Configuration) (intf usb.Interface, fallback bool, err error) {
	if len(cfg.Interfaces) == 0 {
		return usb.Interface{}, false, fmt.Errorf("configuration %d has no interface", cfg.Number)
	}
	for _, candidate := range cfg.Interfaces {
		if candidate.Class == usb.ClassSmartCard {
			return candidate, false, nil
		}
	}
	return cfg.Interfaces[0], true, nil
}

// ResolveEndpoints classifies the endpoints of intf by direction and transfer
// type. The first endpoint of each kind wins. It fails with ErrNoEndpoints when
// either bulk endpoint is missing.
func ResolveEndpoints(intf usb.Interface) (Endpoints, error) {
	var (
		eps           Endpoints
		hasOut, hasIn bool
	)

	for _, ep := range intf.Endpoints {
		switch {
		case ep.Type == usb.TransferBulk && ep.Direction == usb.DirectionOut:
			if !hasOut {
				eps.BulkOut, hasOut = ep, true
			}
		case ep.Type == usb.TransferBulk && ep.Direction == usb.DirectionIn:
			if !hasIn {
				eps.BulkIn, hasIn = ep, true
			}
		case ep.Type == usb.TransferInterrupt && ep.Direction == usb.DirectionIn:
			if eps.Interrupt == nil {
				eps.Interrupt = &ep
			}
		}
	}

	if !hasOut || !hasIn {
		return Endpoints{}, fmt.Errorf("%w on interface %d (out: %t, in: %t)", ErrNoEndpoints, intf.Number, hasOut, hasIn)
	}
	return eps, nil
}

// Session is a claimed CCID interface. It must be closed on every path once
// Claim returned it.
type Session struct {
	Interface usb.Interface
	Endpoints Endpoints

	handle   usb.Handle
	log      logrus.FieldLogger
	detached bool
	claimed  bool
}

// Claim prepares h for raw CCID transfers. The steps run in a fixed order:
// configure, select the interface, detach the kernel driver, resolve the bulk
// endpoints, claim the interface. A configuration failure is only logged; any
// other failure undoes what was done so far and returns a stage *Error.
func Claim(h usb.Handle, log logrus.FieldLogger) (*Session, error) {
	if err := h.SetConfiguration(); err != nil {
		log.WithError(err).Warn("Could not set configuration")
	} else {
		log.Debug("Configuration set")
	}

	cfg, err := h.ActiveConfiguration()
	if err != nil {
		return nil, stageError(StageClaim, "reading active configuration: %w", err)
	}

	for _, intf := range cfg.Interfaces {
		log.Debug(intf.String())
	}

	intf, fallback, err := SelectInterface(cfg)
	if err != nil {
		return nil, &Error{Stage: StageEndpoints, Err: fmt.Errorf("%w: %v", ErrNoEndpoints, err)}
	}
	if fallback {
		log.WithField("interface", intf.Number).Warn("No explicit CCID interface found, using first interface")
	}

	s := &Session{Interface: intf, handle: h, log: log}

	active, err := h.KernelDriverActive(intf.Number)
	if err != nil {
		return nil, stageError(StageDetach, "querying kernel driver of interface %d: %w", intf.Number, err)
	}
	if active {
		log.WithField("interface", intf.Number).Info("Detaching kernel driver")
		if err := h.DetachKernelDriver(intf.Number); err != nil {
			return nil, stageError(StageDetach, "could not detach kernel driver from interface %d: %w", intf.Number, err)
		}
		s.detached = true
	}

	s.Endpoints, err = ResolveEndpoints(intf)
	if err != nil {
		return nil, s.abort(&Error{Stage: StageEndpoints, Err: err})
	}

	if err := h.ClaimInterface(intf); err != nil {
		return nil, s.abort(stageError(StageClaim, "claiming interface %d: %w", intf.Number, err))
	}
	s.claimed = true

	return s, nil
}

// abort closes a half-built session and returns cause. Cleanup failures are logged.
func (s *Session) abort(cause error) error {
	if err := s.Close(); err != nil {
		s.log.WithError(err).Warn("Cleanup after failed claim")
	}
	return cause
}

// Close releases the interface and re-attaches a detached kernel driver.
// It is safe to call more than once.
func (s *Session) Close() error {
	var errs []error
	if s.claimed {
		if err := s.handle.ReleaseInterface(s.Interface); err != nil {
			errs = append(errs, fmt.Errorf("releasing interface %d: %w", s.Interface.Number, err))
		}
		s.claimed = false
	}
	if s.detached {
		if err := s.handle.AttachKernelDriver(s.Interface.Number); err != nil {
			errs = append(errs, fmt.Errorf("re-attaching kernel driver to interface %d: %w", s.Interface.Number, err))
		}
		s.detached = false
	}
	return errors.Join(errs...)
}
