package mode

import (
	"testing"
	"time"

	"github.com/chase3718/lou-keys/internal/clock"
	"github.com/chase3718/lou-keys/internal/keys"
	"github.com/chase3718/lou-keys/internal/led"
	"github.com/chase3718/lou-keys/internal/midiout"
)

// timedBus holds the button and a set of lines for a fixed stretch of
// virtual time measured from when the test starts the overlay.
type timedBus struct {
	clk     *clock.Fake
	start   time.Time
	hold    time.Duration
	lines   uint32
	samples int
}

func (b *timedBus) ButtonDown() bool { return b.clk.Since(b.start) < b.hold }

func (b *timedBus) Sample() uint32 {
	b.samples++
	return b.lines
}

type recorder struct {
	msgs []midiout.Message
}

func (r *recorder) Send(m midiout.Message) error {
	r.msgs = append(r.msgs, m)
	return nil
}

type fixture struct {
	clk     *clock.Fake
	bus     *timedBus
	pin     *led.MemPin
	out     *recorder
	overlay *Overlay
	keymap  *keys.Map
}

func newFixture() *fixture {
	clk := clock.NewFake()
	f := &fixture{
		clk:    clk,
		bus:    &timedBus{clk: clk},
		pin:    &led.MemPin{},
		out:    &recorder{},
		keymap: keys.NewMap(),
	}
	f.overlay = New(Config{
		Map:   f.keymap,
		Bus:   f.bus,
		LED:   led.New(f.pin),
		Clock: clk,
		Out:   f.out,
	})
	return f
}

// engage holds the button for hold past the entry sequence.
func (f *fixture) engage(oct *keys.Octave, lines uint32, hold time.Duration) {
	preset := f.overlay.State.Preset()
	entry := EntryPulse + EntryHold + flashPeriod[0]
	if preset > 0 {
		entry = EntryPulse + EntryHold + 2*time.Duration(preset)*flashPeriod[preset]
	}
	f.bus.start = f.clk.Now()
	f.bus.hold = entry + hold
	f.bus.lines = lines
	f.overlay.Engage(oct)
}

func TestPresetCycle(t *testing.T) {
	f := newFixture()
	oct := keys.NewOctave()
	want := []uint8{1, 2, 3, 0, 1, 2, 3, 0, 1}
	for i, w := range want {
		f.engage(&oct, 0, 0)
		if got := f.overlay.State.Preset(); got != w {
			t.Fatalf("after engagement %d preset = %d, want %d", i+1, got, w)
		}
	}
	if len(f.out.msgs) != 0 {
		t.Errorf("idle engagements sent %d messages", len(f.out.msgs))
	}
}

func TestChannelSelectRepeats(t *testing.T) {
	f := newFixture()
	oct := keys.NewOctave()
	lower := f.keymap.ChannelLines()[0]

	f.engage(&oct, 1<<lower, 250*time.Millisecond)

	if len(f.out.msgs) != 3 {
		t.Fatalf("sent %d CCs in 250ms, want 3", len(f.out.msgs))
	}
	for _, m := range f.out.msgs {
		if m.Data != [3]byte{0xB0, PresetController, 0} {
			t.Errorf("CC = % X, want B0 00 00", m.Bytes())
		}
	}
}

func TestChannelSelectCarriesPreset(t *testing.T) {
	f := newFixture()
	oct := keys.NewOctave()
	f.engage(&oct, 0, 0)
	f.engage(&oct, 0, 0)

	chans := f.keymap.ChannelLines()
	f.engage(&oct, 1<<chans[3]|1<<chans[1], 50*time.Millisecond)

	if len(f.out.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.out.msgs))
	}
	// lowest channel wins, value is the preset at entry
	if got := f.out.msgs[0]; got.Channel() != 1 || got.Data[2] != 2 {
		t.Errorf("CC = % X, want channel 1 value 2", got.Bytes())
	}
	if f.overlay.State.Preset() != 3 {
		t.Errorf("preset = %d, want 3", f.overlay.State.Preset())
	}
}

func TestOctaveClamped(t *testing.T) {
	f := newFixture()
	oct := keys.NewOctave()
	up, down := f.keymap.OctaveLines()

	f.engage(&oct, 1<<up, 10*time.Second)
	if oct.Value() != keys.MaxOctave {
		t.Errorf("octave after long up hold = %d, want %d", oct.Value(), keys.MaxOctave)
	}

	f.engage(&oct, 1<<down, 10*time.Second)
	if oct.Value() != keys.MinOctave {
		t.Errorf("octave after long down hold = %d, want %d", oct.Value(), keys.MinOctave)
	}
	if len(f.out.msgs) != 0 {
		t.Errorf("octave keys sent %d messages", len(f.out.msgs))
	}
}

func TestOctaveRepeatRate(t *testing.T) {
	f := newFixture()
	oct := keys.NewOctave()
	up, _ := f.keymap.OctaveLines()

	// steps at 0, 400 and 800ms
	f.engage(&oct, 1<<up, 900*time.Millisecond)
	if oct.Value() != keys.DefaultOctave+3 {
		t.Errorf("octave = %d, want %d", oct.Value(), keys.DefaultOctave+3)
	}
}

func TestAnnounceFlashes(t *testing.T) {
	for preset := 0; preset < NumPresets; preset++ {
		f := newFixture()
		oct := keys.NewOctave()
		for i := 0; i < preset; i++ {
			f.engage(&oct, 0, 0)
		}
		before := f.pin.Rises()
		f.engage(&oct, 0, 0)

		// entry pulse + one per preset + steady on
		if got := f.pin.Rises() - before; got != preset+2 {
			t.Errorf("preset %d: %d rises, want %d", preset, got, preset+2)
		}
		if f.pin.Get() {
			t.Errorf("preset %d: indicator left lit", preset)
		}
	}
}

func TestIdleOverlaySamplesWithoutSending(t *testing.T) {
	f := newFixture()
	oct := keys.NewOctave()
	f.engage(&oct, 0, 20*time.Millisecond)
	if f.bus.samples != 20 {
		t.Errorf("sampled %d times in 20ms idle, want 20", f.bus.samples)
	}
	if oct.Value() != keys.DefaultOctave || len(f.out.msgs) != 0 {
		t.Errorf("idle overlay changed state: octave %d, %d messages", oct.Value(), len(f.out.msgs))
	}
}
