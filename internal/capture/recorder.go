// Package capture records everything the transmitter puts on the line into
// a Standard MIDI File, so a bench session can be replayed in a DAW.
package capture

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/chase3718/lou-keys/internal/clock"
	"github.com/chase3718/lou-keys/internal/midiout"
)

const (
	Resolution = smf.MetricTicks(960)
	Tempo      = 120.0
)

type event struct {
	at  time.Time
	msg midiout.Message
}

// Recorder is a transmitter tap. Each observed message is stamped with the
// clock's time; the file is laid out on a fixed tempo grid.
type Recorder struct {
	clk clock.Clock
	log *slog.Logger

	mu     sync.Mutex
	start  time.Time
	events []event
}

func NewRecorder(clk clock.Clock, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{clk: clk, log: logger, start: clk.Now()}
}

func (r *Recorder) Observe(m midiout.Message) {
	now := r.clk.Now()
	r.mu.Lock()
	r.events = append(r.events, event{at: now, msg: m})
	r.mu.Unlock()
}

// Len returns the number of recorded messages.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// SMF builds a single-track file from the recording so far.
func (r *Recorder) SMF() (*smf.SMF, error) {
	r.mu.Lock()
	events := append([]event(nil), r.events...)
	start := r.start
	r.mu.Unlock()

	s := smf.New()
	s.TimeFormat = Resolution

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName("lou-keys"))
	track.Add(0, smf.MetaTempo(Tempo))

	var last uint32
	for _, ev := range events {
		abs := Resolution.Ticks(Tempo, ev.at.Sub(start))
		if abs < last {
			abs = last
		}
		track.Add(abs-last, ev.msg.Bytes())
		last = abs
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("capture: add track: %w", err)
	}
	return s, nil
}

// WriteTo writes the recording as a Standard MIDI File.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	s, err := r.SMF()
	if err != nil {
		return 0, err
	}
	n, err := s.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("capture: write: %w", err)
	}
	return n, nil
}

// WriteFile writes the recording to path.
func (r *Recorder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	r.log.Info("capture: wrote file", "path", path, "messages", r.Len())
	return nil
}
