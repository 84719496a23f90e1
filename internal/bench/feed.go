package bench

import "github.com/chase3718/lou-keys/internal/midiout"

// Feed is a transmitter tap that hands messages to the TUI. It never
// blocks the transmitter: when the TUI falls behind, messages are skipped.
type Feed struct {
	ch chan midiout.Message
}

func NewFeed(depth int) *Feed {
	return &Feed{ch: make(chan midiout.Message, depth)}
}

func (f *Feed) Observe(m midiout.Message) {
	select {
	case f.ch <- m:
	default:
	}
}

// C returns the receive side of the feed.
func (f *Feed) C() <-chan midiout.Message { return f.ch }
