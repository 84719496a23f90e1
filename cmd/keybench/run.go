//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chase3718/lou-keys/internal/bench"
	"github.com/chase3718/lou-keys/internal/board"
	"github.com/chase3718/lou-keys/internal/capture"
	"github.com/chase3718/lou-keys/internal/clock"
	"github.com/chase3718/lou-keys/internal/keyboard"
	"github.com/chase3718/lou-keys/internal/keys"
	"github.com/chase3718/lou-keys/internal/led"
	"github.com/chase3718/lou-keys/internal/midiout"
	"github.com/chase3718/lou-keys/internal/usbrelay"
)

const feedDepth = 64

func runBench(cmd *cobra.Command, _ []string) error {
	logOut := io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	initLogger(debug, logOut)
	logger.Info("keybench starting",
		"serial", serialDev,
		"baud", baud,
		"usb_in", usbIn,
		"record", recordFile,
		"debug", debug,
	)

	var line io.ByteWriter = board.LogLine{}
	if serialDev != "" {
		sp, err := board.OpenSerial(serialDev, baud, logger)
		if err != nil {
			return err
		}
		defer sp.Close()
		line = sp
	}

	clk := clock.System{}
	keymap := keys.NewMap()
	bus := &board.VirtualBus{}
	ind := led.New(&led.MemPin{})
	ind.Pulse(clk, led.BootPulse)

	tx := midiout.NewTransmitter(line, midiout.QueueDepth, logger)
	feed := bench.NewFeed(feedDepth)
	tx.AddTap(feed)
	var rec *capture.Recorder
	if recordFile != "" {
		rec = capture.NewRecorder(clk, logger)
		tx.AddTap(rec)
	}
	txDone := make(chan struct{})
	go func() {
		defer close(txDone)
		_ = tx.Run(context.Background())
	}()

	ring := usbrelay.NewRing(usbrelay.RingSize)
	watcher, err := board.NewMIDIWatcher(ring, usbIn, logger)
	if err != nil {
		logger.Warn("keybench: usb relay has no host input", "err", err)
	} else {
		defer watcher.Close()
	}

	relay := usbrelay.New(usbrelay.Config{
		Source: ring,
		LED:    ind,
		Clock:  clk,
		Out:    tx,
		Logger: logger,
	})
	ctl := keyboard.New(keyboard.Config{
		Map:    keymap,
		Bus:    bus,
		LED:    ind,
		Clock:  clk,
		Out:    tx,
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctl.Run(gctx) })
	g.Go(func() error { return relay.Run(gctx) })
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	p := tea.NewProgram(bench.NewModel(bus, ind, keymap, feed.C()), tea.WithAltScreen())
	_, uiErr := p.Run()

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("keybench: loop failed", "err", err)
	}
	tx.Close()
	<-txDone

	if rec != nil {
		if err := rec.WriteFile(recordFile); err != nil {
			return err
		}
	}
	logger.Info("keybench stopped")
	if uiErr != nil {
		return fmt.Errorf("terminal ui: %w", uiErr)
	}
	return nil
}
