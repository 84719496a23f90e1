package capture

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/chase3718/lou-keys/internal/clock"
	"github.com/chase3718/lou-keys/internal/midiout"
)

type note struct {
	delta uint32
	on    bool
	key   uint8
}

func notes(t *testing.T, s *smf.SMF) []note {
	t.Helper()
	if len(s.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(s.Tracks))
	}
	var out []note
	var pending uint32
	for _, ev := range s.Tracks[0] {
		pending += ev.Delta
		var ch, key, vel uint8
		m := midi.Message(ev.Message)
		switch {
		case m.GetNoteStart(&ch, &key, &vel):
			out = append(out, note{pending, true, key})
			pending = 0
		case m.GetNoteEnd(&ch, &key):
			out = append(out, note{pending, false, key})
			pending = 0
		}
	}
	return out
}

func TestRecorderTicks(t *testing.T) {
	clk := clock.NewFake()
	r := NewRecorder(clk, nil)

	r.Observe(midiout.Note(true, 60, 100, 0))
	clk.Advance(500 * time.Millisecond) // one beat at 120 bpm
	r.Observe(midiout.Note(false, 60, 100, 0))
	clk.Advance(250 * time.Millisecond)
	r.Observe(midiout.Note(true, 64, 100, 2))

	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if tf, ok := s.TimeFormat.(smf.MetricTicks); !ok || tf != Resolution {
		t.Fatalf("time format = %v", s.TimeFormat)
	}

	got := notes(t, s)
	want := []note{{0, true, 60}, {960, false, 60}, {480, true, 64}}
	if len(got) != len(want) {
		t.Fatalf("notes = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("note %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRecorderWriteFile(t *testing.T) {
	clk := clock.NewFake()
	r := NewRecorder(clk, nil)
	r.Observe(midiout.CC(1, 0, 3))

	path := filepath.Join(t.TempDir(), "take.mid")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := smf.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var found bool
	for _, ev := range s.Tracks[0] {
		var ch, ctl, val uint8
		if midi.Message(ev.Message).GetControlChange(&ch, &ctl, &val) {
			found = ch == 1 && ctl == 0 && val == 3
		}
	}
	if !found {
		t.Error("control change not in file")
	}
}

func TestRecorderImplementsTap(t *testing.T) {
	var _ midiout.Tap = NewRecorder(clock.NewFake(), nil)
}
