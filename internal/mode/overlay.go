// Package mode implements the push-button configuration overlay. While the
// button is held the note keys stop playing notes: four of them send a
// channel-select Control Change and two of them move the octave register.
// Each release of the button advances the preset.
package mode

import (
	"log/slog"
	"time"

	"github.com/chase3718/lou-keys/internal/clock"
	"github.com/chase3718/lou-keys/internal/keys"
	"github.com/chase3718/lou-keys/internal/led"
	"github.com/chase3718/lou-keys/internal/midiout"
)

// -------------------- Tunables --------------------

// NumPresets is the length of the preset cycle.
const NumPresets = 4

const (
	EntryPulse    = 300 * time.Millisecond
	EntryHold     = 200 * time.Millisecond
	ChannelRepeat = 100 * time.Millisecond
	OctaveRepeat  = 400 * time.Millisecond
	IdleTick      = time.Millisecond
	Settle        = 10 * time.Millisecond

	// PresetController is the controller number of the channel-select CC.
	PresetController = 0x00
)

// flashPeriod is the blink half-period announcing each preset. Preset 0
// does not blink and just waits its period.
var flashPeriod = [NumPresets]time.Duration{
	500 * time.Millisecond,
	250 * time.Millisecond,
	150 * time.Millisecond,
	100 * time.Millisecond,
}

// -------------------- State --------------------

// State is the preset index. It lives as long as the running firmware and is
// only reset by a restart.
type State struct {
	preset uint8
}

func (s State) Preset() uint8 { return s.preset }

// Advance moves to the next preset, wrapping after the last.
func (s *State) Advance() {
	s.preset = (s.preset + 1) % NumPresets
}

// -------------------- Overlay --------------------

// Config wires an Overlay to its collaborators.
type Config struct {
	Map    *keys.Map
	Bus    keys.Bus
	LED    *led.Indicator
	Clock  clock.Clock
	Out    midiout.Sink
	Logger *slog.Logger
}

// Overlay is the mode state machine. It belongs to the scan loop and is not
// safe for concurrent use.
type Overlay struct {
	State State

	bus      keys.Bus
	led      *led.Indicator
	clk      clock.Clock
	out      midiout.Sink
	log      *slog.Logger
	channels [4]keys.Line
	up, down keys.Line
}

func New(cfg Config) *Overlay {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	o := &Overlay{
		bus:      cfg.Bus,
		led:      cfg.LED,
		clk:      cfg.Clock,
		out:      cfg.Out,
		log:      logger,
		channels: cfg.Map.ChannelLines(),
	}
	o.up, o.down = cfg.Map.OctaveLines()
	return o
}

// Engage runs the overlay from a button press until the button is released,
// then advances the preset. It blocks the caller for the whole time.
func (o *Overlay) Engage(octave *keys.Octave) {
	preset := o.State.Preset()
	o.log.Info("mode: overlay entered", "preset", preset, "octave", octave.Value())

	o.announce(preset)

	var ccs, steps int
	for o.bus.ButtonDown() {
		wait, kind := o.step(octave, preset)
		switch kind {
		case stepChannel:
			ccs++
		case stepOctave:
			steps++
		}
		o.clk.Sleep(wait)
	}

	o.State.Advance()
	o.clk.Sleep(Settle)
	o.led.Off()
	o.log.Info("mode: overlay left",
		"next_preset", o.State.Preset(),
		"octave", octave.Value(),
		"cc_sent", ccs,
		"octave_steps", steps,
	)
}

// announce flashes the current preset on the indicator and leaves it lit.
func (o *Overlay) announce(preset uint8) {
	o.led.Pulse(o.clk, EntryPulse)
	if preset == 0 {
		o.clk.Sleep(flashPeriod[0])
	} else {
		o.led.Flash(o.clk, int(preset), flashPeriod[preset])
	}
	o.clk.Sleep(EntryHold)
	o.led.On()
}

type stepKind uint8

const (
	stepIdle stepKind = iota
	stepChannel
	stepOctave
)

// step samples the keys once and performs at most one action. Channel
// selects win over octave keys, lower channels over higher ones. It returns
// how long to wait before sampling again.
func (o *Overlay) step(octave *keys.Octave, preset uint8) (time.Duration, stepKind) {
	sample := o.bus.Sample()
	held := func(l keys.Line) bool { return sample&(1<<l) != 0 }

	for ch, l := range o.channels {
		if !held(l) {
			continue
		}
		msg := midiout.CC(uint8(ch), PresetController, preset)
		if err := o.out.Send(msg); err != nil {
			o.log.Error("mode: channel select not sent", "channel", ch, "err", err)
		} else {
			o.log.Debug("mode: channel select", "channel", ch, "preset", preset)
		}
		return ChannelRepeat, stepChannel
	}

	switch {
	case held(o.up):
		if octave.Up() {
			o.log.Info("mode: octave up", "octave", octave.Value())
		}
		return OctaveRepeat, stepOctave
	case held(o.down):
		if octave.Down() {
			o.log.Info("mode: octave down", "octave", octave.Value())
		}
		return OctaveRepeat, stepOctave
	}
	return IdleTick, stepIdle
}
