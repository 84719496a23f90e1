//go:build tinygo

// Command lou-keys is the controller firmware. The scan loop runs on the
// main goroutine, the USB relay on a second one, and a third owns the MIDI
// DIN line.
package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"github.com/chase3718/lou-keys/internal/board"
	"github.com/chase3718/lou-keys/internal/clock"
	"github.com/chase3718/lou-keys/internal/keyboard"
	"github.com/chase3718/lou-keys/internal/keys"
	"github.com/chase3718/lou-keys/internal/led"
	"github.com/chase3718/lou-keys/internal/midiout"
	"github.com/chase3718/lou-keys/internal/usbrelay"
)

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	clk := clock.System{}
	ind := led.New(board.NewLEDPin())
	ind.Pulse(clk, led.BootPulse)

	uart, err := board.OpenUART()
	if err != nil {
		logger.Error("board: uart setup failed", "err", err)
		halt(ind, clk)
	}

	ctx := context.Background()
	tx := midiout.NewTransmitter(uart, midiout.QueueDepth, logger)
	go tx.Run(ctx)

	ring := usbrelay.NewRing(usbrelay.RingSize)
	board.AttachUSB(ring)
	relay := usbrelay.New(usbrelay.Config{
		Source: ring,
		LED:    ind,
		Clock:  clk,
		Out:    tx,
		Logger: logger,
	})
	go relay.Run(ctx)

	logger.Info("lou-keys starting",
		"keys", keys.NumKeys,
		"baud", board.MIDIBaud,
		"velocity", keys.DefaultVelocity,
	)
	ctl := keyboard.New(keyboard.Config{
		Map:    keys.NewMap(),
		Bus:    board.NewPicoBus(),
		LED:    ind,
		Clock:  clk,
		Out:    tx,
		Logger: logger,
	})
	ctl.Run(ctx)
}

// halt blinks the indicator forever.
func halt(ind *led.Indicator, clk clock.Clock) {
	for {
		ind.Flash(clk, 1, 100*time.Millisecond)
	}
}
