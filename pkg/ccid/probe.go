package ccid

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gregLibert/ccid-probe/pkg/usb"
)

// Result is everything a successful probe learned.
type Result struct {
	Device    usb.Device
	Interface usb.Interface
	Endpoints Endpoints
	Command   Command
	Response  []byte
	Report    Report
}

// Prober runs the GetSlotStatus probe against the first CCID device of a host.
type Prober struct {
	Host    usb.Host
	Log     logrus.FieldLogger
	Timeout time.Duration
	Slot    byte
}

// NewProber creates a Prober using DefaultTimeout on slot 0.
func NewProber(host usb.Host, log logrus.FieldLogger) *Prober {
	return &Prober{Host: host, Log: log, Timeout: DefaultTimeout}
}

// Run executes locate, claim, exchange and decode once. The device is released
// on every return path. When no device qualifies the error is a StageLocate
// *Error wrapping ErrNoDevice. A decode failure still returns the partial
// Result so the raw reply can be shown.
func (p *Prober) Run(ctx context.Context) (res *Result, err error) {
	dev, ok, err := LocateOn(p.Host)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &Error{Stage: StageLocate, Err: ErrNoDevice}
	}

	log := p.Log.WithField("device", dev.ID())
	log.Info("Found device")

	h, err := p.Host.Open(dev)
	if err != nil {
		return nil, stageError(StageClaim, "opening %s: %w", dev, err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close device")
		}
	}()

	session, err := Claim(h, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to release interface")
		}
	}()

	res = &Result{
		Device:    dev,
		Interface: session.Interface,
		Endpoints: session.Endpoints,
		Command:   GetSlotStatus(p.Slot, 0),
	}

	res.Response, err = session.Exchange(ctx, res.Command, p.Timeout)
	if err != nil {
		return nil, err
	}

	res.Report, err = Decode(res.Response)
	return res, err
}
