package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/ebfe/scard"
	"github.com/sirupsen/logrus"

	"github.com/gregLibert/ccid-probe/pkg/iso7816"
	"github.com/gregLibert/ccid-probe/pkg/pcsc"
	"github.com/gregLibert/ccid-probe/pkg/tlv"
)

// readerCommand runs one of the PC/SC commands.
func readerCommand(cfg *config, log logrus.FieldLogger, out io.Writer) error {
	ctx, err := pcsc.Establish()
	if err != nil {
		return err
	}
	defer func() {
		if err := ctx.Release(); err != nil {
			log.WithError(err).Warn("Failed to release context")
		}
	}()

	readers, err := ctx.ListReaders()
	if err != nil {
		return err
	}
	if len(readers) == 0 {
		return errors.New("no smart card reader found")
	}

	switch cfg.Command {
	case cmdReaders:
		printReaders(out, readers)
		return nil
	case cmdUSBPath:
		for _, name := range readers {
			if err := withCard(ctx, name, true, log, func(card *scard.Card) error {
				return printUSBPath(out, name, card, log)
			}); err != nil {
				return err
			}
		}
		return nil
	}

	if cfg.Reader >= len(readers) {
		return fmt.Errorf("reader index %d out of range, %d reader(s) found", cfg.Reader, len(readers))
	}
	name := readers[cfg.Reader]
	log = log.WithField("reader", name)

	switch cfg.Command {
	case cmdNAD:
		return withCard(ctx, name, true, log, func(card *scard.Card) error {
			return printNAD(out, card, byte(cfg.NAD))
		})
	case cmdFeatures:
		return withCard(ctx, name, true, log, func(card *scard.Card) error {
			return printFeatures(out, card, log)
		})
	case cmdAPDU:
		cmd, err := parseAPDU(cfg.APDU)
		if err != nil {
			return err
		}
		return withCard(ctx, name, false, log, func(card *scard.Card) error {
			return sendAPDU(out, card, cmd)
		})
	}
	return fmt.Errorf("unknown command %q", cfg.Command)
}

// withCard connects to reader, runs fn and leaves the card as it was.
func withCard(ctx *pcsc.Context, reader string, direct bool, log logrus.FieldLogger, fn func(*scard.Card) error) error {
	card, err := ctx.Connect(reader, direct)
	if err != nil {
		return err
	}
	defer func() {
		if err := card.Disconnect(scard.LeaveCard); err != nil {
			log.WithError(err).Warn("Failed to disconnect card")
		}
	}()
	return fn(card)
}

func printReaders(out io.Writer, readers []string) {
	banner(out, "PC/SC READERS")
	for i, name := range readers {
		fmt.Fprintf(out, "[%d] %s\n", i, name)
	}
}

// printUSBPath shows the USB topology of one reader. A driver without the
// control code is reported, not treated as a failure.
func printUSBPath(out io.Writer, reader string, c pcsc.Controller, log logrus.FieldLogger) error {
	fmt.Fprintf(out, ">> Using: %s\n", reader)

	path, err := pcsc.USBPath(c)
	if errors.Is(err, pcsc.ErrUnsupported) {
		fmt.Fprintf(out, "   Your driver does not (yet) support SCARD_CTL_CODE(3601)\n")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   USB path: %s\n", path)

	ch, err := pcsc.ChannelID(c)
	if err != nil {
		log.WithError(err).Warn("Channel ID not available")
		return nil
	}
	if ch.IsUSB() {
		fmt.Fprintf(out, "   %s\n", ch)
	}
	return nil
}

// printNAD reads the NAD, writes nad and reads it back.
func printNAD(out io.Writer, c pcsc.Controller, nad byte) error {
	banner(out, "NAD")

	before, err := pcsc.GetNAD(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, ">> NAD: %d\n", before)

	if err := pcsc.SetNAD(c, nad); err != nil {
		return err
	}
	fmt.Fprintf(out, ">> NAD set to %d\n", nad)

	after, err := pcsc.GetNAD(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, ">> NAD: %d\n", after)
	return nil
}

func printFeatures(out io.Writer, c pcsc.Controller, log logrus.FieldLogger) error {
	features, err := pcsc.GetFeatures(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, features.Describe())

	props, err := pcsc.GetProperties(c, features)
	if errors.Is(err, pcsc.ErrUnsupported) {
		log.Info("Reader has no TLV properties")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, props.Describe())

	if v, ok := props.Int(pcsc.PropIDVendor); ok {
		if p, ok := props.Int(pcsc.PropIDProduct); ok {
			fmt.Fprintf(out, ">> USB ID: %04x:%04x\n", v, p)
		}
	}
	return nil
}

func parseAPDU(s string) (*iso7816.CommandAPDU, error) {
	raw, err := tlv.ParseHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid APDU hex: %w", err)
	}
	return iso7816.ParseCommandAPDU(raw)
}

// sendAPDU transmits cmd and prints every exchange of the resulting trace.
func sendAPDU(out io.Writer, card iso7816.Transmitter, cmd *iso7816.CommandAPDU) error {
	banner(out, "APDU EXCHANGE")
	if cla, err := iso7816.DecodeClass(cmd.CLA); err == nil {
		fmt.Fprintf(out, ">> %s\n", cla)
	}

	trace, err := iso7816.NewClient(card).Send(cmd)
	if len(trace) > 0 {
		fmt.Fprintln(out, trace.Describe())
	}
	if err != nil {
		return err
	}

	data := trace.Data()
	if len(data) == 0 {
		return nil
	}
	fmt.Fprintf(out, ">> Data: % X\n", data)
	if tree, err := tlv.DescribeBER(data); err == nil {
		fmt.Fprintln(out, tree)
	}
	if name := dfName(data); name != nil {
		fmt.Fprintf(out, ">> DF name: %X\n", name)
	}
	return nil
}

// fciTemplate holds the FCI fields summarized after a SELECT.
type fciTemplate struct {
	DFName []byte `tlv:"84"`
}

// dfName returns the DF name of an FCI reply (tag 6F), or nil.
func dfName(data []byte) []byte {
	tmpl, err := tlv.GetValue(data, 0x6F)
	if err != nil {
		return nil
	}
	var f fciTemplate
	if err := tlv.Unmarshal(tmpl, &f); err != nil {
		return nil
	}
	return f.DFName
}
