// Package usbrelay is the USB receive context. It drains USB-MIDI packets,
// picks out Note On and Note Off messages and hands them to the shared
// transmitter.
package usbrelay

import (
	"context"
	"log/slog"
	"time"

	"github.com/chase3718/lou-keys/internal/clock"
	"github.com/chase3718/lou-keys/internal/led"
	"github.com/chase3718/lou-keys/internal/midiout"
)

const (
	// BatchSize bounds how many packets one drain pass takes.
	BatchSize = 32
	// IdleTick is the pause when a drain pass found nothing.
	IdleTick = time.Millisecond
	// RingSize is the receive ring capacity in packets.
	RingSize = 64
)

// Extract looks for a note status at packet byte 0, then byte 1, and returns
// the three bytes starting at the first match. On a conforming USB-MIDI
// stream byte 0 is the packet header, so the match normally comes from byte
// 1; the byte 0 check accepts senders that put the MIDI message first.
func Extract(p Packet) (midiout.Message, bool) {
	for i := 0; i < 2; i++ {
		if midiout.IsNote(p[i]) {
			return midiout.Message{Len: 3, Data: [3]byte{p[i], p[i+1], p[i+2]}}, true
		}
	}
	return midiout.Message{}, false
}

// Frame wraps a raw MIDI message into a USB-MIDI packet on the given cable.
// The code index number is the status high nibble, which holds for channel
// voice messages.
func Frame(cable uint8, msg []byte) Packet {
	var p Packet
	if len(msg) == 0 {
		return p
	}
	p[0] = cable<<4 | msg[0]>>4
	copy(p[1:], msg)
	return p
}

// Config wires a Relay.
type Config struct {
	Source Source
	LED    *led.Indicator
	Clock  clock.Clock
	// Out receives extracted notes. When nil, notes are only counted and
	// flashed on the indicator.
	Out    midiout.Sink
	Logger *slog.Logger
}

// Relay is the receive loop. It owns only its batch buffer; the transmitter
// is reached through Out.
type Relay struct {
	src   Source
	led   *led.Indicator
	clk   clock.Clock
	out   midiout.Sink
	log   *slog.Logger
	batch [BatchSize]Packet

	matched   uint64
	forwarded uint64
}

func New(cfg Config) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		src: cfg.Source,
		led: cfg.LED,
		clk: cfg.Clock,
		out: cfg.Out,
		log: logger,
	}
}

// Run drains and relays until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("usbrelay: started", "forwarding", r.out != nil)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("usbrelay: stopped", "matched", r.matched, "forwarded", r.forwarded)
			return ctx.Err()
		default:
		}
		if r.Poll() == 0 {
			r.clk.Sleep(IdleTick)
		}
	}
}

// Poll drains everything pending (in batches of BatchSize) and then
// processes each drained packet in arrival order. It returns the number of
// packets drained.
func (r *Relay) Poll() int {
	total := 0
	for {
		n := 0
		for n < len(r.batch) {
			p, ok := r.src.Next()
			if !ok {
				break
			}
			r.batch[n] = p
			n++
		}
		for _, p := range r.batch[:n] {
			r.relay(p)
		}
		total += n
		if n < len(r.batch) {
			return total
		}
	}
}

func (r *Relay) relay(p Packet) {
	msg, ok := Extract(p)
	if !ok {
		r.log.Debug("usbrelay: packet ignored", "packet", p[:])
		return
	}
	r.matched++
	r.led.Toggle()
	if r.out == nil {
		r.log.Debug("usbrelay: note", "msg", msg.String())
		return
	}
	if err := r.out.Send(msg); err != nil {
		r.log.Error("usbrelay: note not forwarded", "msg", msg.String(), "err", err)
		return
	}
	r.forwarded++
	r.log.Debug("usbrelay: note forwarded", "msg", msg.String())
}

// Stats returns how many notes were matched and forwarded. Call only from
// the relay goroutine.
func (r *Relay) Stats() (matched, forwarded uint64) { return r.matched, r.forwarded }
