package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"

	"github.com/gregLibert/ccid-probe/pkg/ccid"
	"github.com/gregLibert/ccid-probe/pkg/libusb"
	"github.com/gregLibert/ccid-probe/pkg/usb"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit status:
// 0 on success, 1 on a failed command, 2 on a command line error.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, os.Getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	log := newLogger(cfg, stderr)
	ctx := context.Background()

	switch cfg.Command {
	case cmdSlotStatus:
		host := libusb.NewHost(libusb.Options{Debug: cfg.USBDebug})
		defer func() {
			if err := host.Close(); err != nil {
				log.WithError(err).Warn("Failed to close USB context")
			}
		}()
		err = slotStatus(ctx, host, cfg, log, stdout)
	default:
		err = readerCommand(cfg, log, stdout)
	}

	if err != nil {
		log.WithField("cmd", cfg.Command).Error(err)
		return 1
	}
	return 0
}

// slotStatus runs the raw CCID probe on the first CCID device of host.
func slotStatus(ctx context.Context, host usb.Host, cfg *config, log logrus.FieldLogger, out io.Writer) error {
	banner(out, "CCID SLOT STATUS (raw USB)")

	prober := ccid.NewProber(host, log)
	prober.Timeout = cfg.Timeout
	prober.Slot = byte(cfg.Slot)

	res, err := prober.Run(ctx)
	if errors.Is(err, ccid.ErrNoDevice) {
		fmt.Fprintln(out, ">> No CCID device found.")
		return err
	}
	if res != nil {
		printExchange(out, res, log)
	}
	if err != nil {
		return err
	}
	printReport(out, res.Report)
	return nil
}

func printExchange(out io.Writer, res *ccid.Result, log logrus.FieldLogger) {
	log.Debugf("Device record: %# v", pretty.Formatter(res.Device))

	fmt.Fprintf(out, ">> Found device: %s\n", res.Device)
	fmt.Fprintln(out, ">> Scanning interfaces:")
	for _, cfg := range res.Device.Configurations {
		for _, intf := range cfg.Interfaces {
			fmt.Fprintf(out, "   - %s\n", intf)
		}
	}
	fmt.Fprintf(out, ">> Using %s\n", res.Interface)
	fmt.Fprintf(out, "   EP OUT:  %s\n", res.Endpoints.BulkOut)
	fmt.Fprintf(out, "   EP IN:   %s\n", res.Endpoints.BulkIn)
	if ep := res.Endpoints.Interrupt; ep != nil {
		fmt.Fprintf(out, "   EP INTR: %s\n", *ep)
	}

	fmt.Fprintf(out, ">> Sent: %s\n", res.Command)
	fmt.Fprintf(out, "   % X\n", res.Command.Bytes())
	fmt.Fprintf(out, ">> Received (%d bytes): % X\n", len(res.Response), res.Response)
}

func printReport(out io.Writer, r ccid.Report) {
	fmt.Fprintf(out, ">> Result: %s\n", r)
	if r.Kind == ccid.SlotStatus {
		fmt.Fprintf(out, "   bStatus: 0x%02X (ICC status %d, command status %d)\n", r.Status, r.ICCStatus(), r.CommandStatus())
		if r.HasErrorCode {
			fmt.Fprintf(out, "   bError:  0x%02X\n", r.ErrorCode)
		}
	}
}

func banner(out io.Writer, title string) {
	fmt.Fprintln(out, "=============================================")
	fmt.Fprintf(out, " %s\n", title)
	fmt.Fprintln(out, "=============================================")
}
