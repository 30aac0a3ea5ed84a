package main

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gregLibert/ccid-probe/pkg/ccid"
)

// Commands accepted by -cmd.
const (
	cmdSlotStatus = "slot-status"
	cmdReaders    = "readers"
	cmdNAD        = "nad"
	cmdUSBPath    = "usb-path"
	cmdFeatures   = "features"
	cmdAPDU       = "apdu"
)

var commands = []string{cmdSlotStatus, cmdReaders, cmdNAD, cmdUSBPath, cmdFeatures, cmdAPDU}

// timeoutEnv overrides the default transfer timeout.
const timeoutEnv = "CCID_PROBE_TIMEOUT"

type config struct {
	Command   string
	Reader    int
	NAD       int
	APDU      string
	Slot      int
	Timeout   time.Duration
	LogLevel  logrus.Level
	LogFormat string
	USBDebug  int
}

// parseConfig reads the command line. getenv is consulted for the timeout
// default so that -timeout still wins over the environment.
func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (*config, error) {
	cfg := &config{}

	defTimeout := ccid.DefaultTimeout
	if v := getenv(timeoutEnv); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", timeoutEnv, v, err)
		}
		defTimeout = d
	}

	var level string
	fs := flag.NewFlagSet("ccid-probe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Command, "cmd", cmdSlotStatus, fmt.Sprintf("command to run: %v", commands))
	fs.IntVar(&cfg.Reader, "reader", 0, "index of the PC/SC reader")
	fs.IntVar(&cfg.NAD, "nad", 42, "NAD value written by the nad command")
	fs.StringVar(&cfg.APDU, "apdu", "", "hex encoded command APDU sent by the apdu command")
	fs.IntVar(&cfg.Slot, "slot", 0, "CCID slot queried by slot-status")
	fs.DurationVar(&cfg.Timeout, "timeout", defTimeout, "USB transfer timeout (env "+timeoutEnv+")")
	fs.StringVar(&level, "log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "log format (text, json)")
	fs.IntVar(&cfg.USBDebug, "usb-debug", 0, "libusb debug level (0-4)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	var err error
	if cfg.LogLevel, err = logrus.ParseLevel(level); err != nil {
		return nil, err
	}

	switch {
	case !slices.Contains(commands, cfg.Command):
		return nil, fmt.Errorf("unknown command %q, want one of %v", cfg.Command, commands)
	case cfg.LogFormat != "text" && cfg.LogFormat != "json":
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	case cfg.NAD < 0 || cfg.NAD > 0xFF:
		return nil, fmt.Errorf("NAD %d out of range", cfg.NAD)
	case cfg.Slot < 0 || cfg.Slot > 0xFF:
		return nil, fmt.Errorf("slot %d out of range", cfg.Slot)
	case cfg.Reader < 0:
		return nil, fmt.Errorf("negative reader index %d", cfg.Reader)
	case cfg.Timeout <= 0:
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	case cfg.Command == cmdAPDU && cfg.APDU == "":
		return nil, fmt.Errorf("-apdu is required by the apdu command")
	}

	return cfg, nil
}

// newLogger builds the diagnostics logger. Reports go to stdout, logs to w.
func newLogger(cfg *config, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return log
}
