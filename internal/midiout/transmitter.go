package midiout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// QueueDepth is the default number of messages that may wait for the line.
const QueueDepth = 16

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("midiout: transmitter closed")

// Sink accepts complete messages for transmission.
type Sink interface {
	Send(Message) error
}

// Tap observes each message after it has been written to the line.
type Tap interface {
	Observe(Message)
}

// TapFunc adapts a function to Tap.
type TapFunc func(Message)

func (f TapFunc) Observe(m Message) { f(m) }

// Transmitter is the only writer of the MIDI line. Any number of producers
// call Send; a single Run loop writes each message's bytes back to back, so
// messages from different producers never interleave on the wire.
//
// A byte write blocks for as long as the line does. There is no timeout and
// nothing is dropped: a stalled line eventually blocks Send as well.
type Transmitter struct {
	line    io.ByteWriter
	queue   chan Message
	stopped chan struct{}
	taps    []Tap
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewTransmitter returns a transmitter writing to line. depth <= 0 selects
// QueueDepth.
func NewTransmitter(line io.ByteWriter, depth int, logger *slog.Logger) *Transmitter {
	if depth <= 0 {
		depth = QueueDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transmitter{
		line:    line,
		queue:   make(chan Message, depth),
		stopped: make(chan struct{}),
		log:     logger,
	}
}

// AddTap registers an observer. Call before Run.
func (t *Transmitter) AddTap(tap Tap) {
	t.taps = append(t.taps, tap)
}

// Send queues m, blocking while the queue is full. It fails only once the
// transmitter is closed or its Run loop has exited.
func (t *Transmitter) Send(m Message) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrClosed
	}
	select {
	case t.queue <- m:
		return nil
	case <-t.stopped:
		return ErrClosed
	}
}

// Close stops accepting messages. Run writes whatever is still queued and
// then returns.
func (t *Transmitter) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
}

// Run writes queued messages until Close has been called and the queue is
// drained, or ctx is done. Call it once.
func (t *Transmitter) Run(ctx context.Context) error {
	defer close(t.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-t.queue:
			if !ok {
				return nil
			}
			if err := t.write(m); err != nil {
				t.log.Error("midiout: write error", "msg", m.String(), "err", err)
				continue
			}
			for _, tap := range t.taps {
				tap.Observe(m)
			}
		}
	}
}

// write puts all of m's bytes on the line, in order.
func (t *Transmitter) write(m Message) error {
	for _, b := range m.Bytes() {
		if err := t.line.WriteByte(b); err != nil {
			return err
		}
	}
	t.log.Debug("midiout: sent", "msg", m.String())
	return nil
}
