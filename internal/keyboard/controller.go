package keyboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/chase3718/lou-keys/internal/clock"
	"github.com/chase3718/lou-keys/internal/keys"
	"github.com/chase3718/lou-keys/internal/led"
	"github.com/chase3718/lou-keys/internal/midiout"
	"github.com/chase3718/lou-keys/internal/mode"
	"github.com/chase3718/lou-keys/internal/voice"
)

// PollInterval is the delay between two passes of the scan loop.
const PollInterval = 50 * time.Millisecond

// Config wires a Controller to the board.
type Config struct {
	Map    *keys.Map
	Bus    keys.Bus
	LED    *led.Indicator
	Clock  clock.Clock
	Out    midiout.Sink
	Logger *slog.Logger
}

// Controller runs the scan loop. Everything it holds is private to the
// goroutine calling Run or Step.
type Controller struct {
	keymap  *keys.Map
	bus     keys.Bus
	clk     clock.Clock
	out     midiout.Sink
	log     *slog.Logger
	state   *State
	voices  *voice.Pool
	overlay *mode.Overlay

	// note sounding on each voice, so a release turns off what the press
	// turned on even if the octave moved in between
	sounding [voice.NumVoices]uint8
	edges    []keys.Edge
}

func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Map == nil {
		cfg.Map = keys.NewMap()
	}
	return &Controller{
		keymap: cfg.Map,
		bus:    cfg.Bus,
		clk:    cfg.Clock,
		out:    cfg.Out,
		log:    logger,
		state:  NewState(),
		voices: voice.NewPool(),
		overlay: mode.New(mode.Config{
			Map:    cfg.Map,
			Bus:    cfg.Bus,
			LED:    cfg.LED,
			Clock:  cfg.Clock,
			Out:    cfg.Out,
			Logger: logger,
		}),
		edges: make([]keys.Edge, 0, keys.NumKeys),
	}
}

// Run polls until ctx is done. Each pass either scans the note keys or, when
// the button is down, runs the mode overlay to completion.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info("keyboard: scan loop started",
		"octave", c.state.Octave.Value(),
		"voices", voice.NumVoices,
		"poll_ms", PollInterval.Milliseconds(),
	)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("keyboard: scan loop stopped")
			return ctx.Err()
		default:
		}
		c.Step()
		c.clk.Sleep(PollInterval)
	}
}

// Step runs one pass of the loop without the trailing delay.
func (c *Controller) Step() {
	if c.bus.ButtonDown() {
		c.overlay.Engage(&c.state.Octave)
		return
	}
	c.Scan()
}

// Scan polls the key bus once and emits a message for every edge that gets
// a voice. It returns the number of messages sent.
func (c *Controller) Scan() int {
	c.edges = c.state.Scanner.Poll(c.bus, c.edges[:0])
	sent := 0
	for _, e := range c.edges {
		if c.handle(e) {
			sent++
		}
	}
	return sent
}

func (c *Controller) handle(e keys.Edge) bool {
	slot, res := c.voices.Assign(e.Line, e.Pressed)
	switch res {
	case voice.Overflow:
		c.log.Warn("keyboard: no free voice, note dropped", "key", e.Line, "busy", c.voices.Busy())
		return false
	case voice.Spurious:
		c.log.Debug("keyboard: release without a voice", "key", e.Line)
		return false
	}

	vel := c.state.Velocity[e.Line]
	var msg midiout.Message
	if e.Pressed {
		k := c.keymap.Key(e.Line)
		msg = midiout.Encode(true, k.Offset, c.state.Octave.Value(), vel, uint8(slot))
		c.sounding[slot] = msg.Data[1]
	} else {
		msg = midiout.Note(false, c.sounding[slot], vel, uint8(slot))
	}

	if err := c.out.Send(msg); err != nil {
		c.log.Error("keyboard: note not sent", "key", e.Line, "err", err)
		return false
	}
	c.log.Debug("keyboard: note",
		"key", e.Line,
		"pressed", e.Pressed,
		"pitch", keys.PitchName(msg.Data[1]),
		"voice", slot,
		"result", res.String(),
	)
	return true
}

// Octave returns the current octave register. Call only from the scan
// goroutine.
func (c *Controller) Octave() uint8 { return c.state.Octave.Value() }

// Preset returns the current preset. Call only from the scan goroutine.
func (c *Controller) Preset() uint8 { return c.overlay.State.Preset() }

// Voices returns the number of voices currently held. Call only from the
// scan goroutine.
func (c *Controller) Voices() int { return c.voices.Busy() }
