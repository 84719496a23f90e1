// Package voice arbitrates key events across the fixed set of polyphonic
// voice slots. The slot index doubles as the MIDI channel of the note.
package voice

import "github.com/chase3718/lou-keys/internal/keys"

// NumVoices is the number of voice slots.
const NumVoices = 4

// free marks an unowned slot. It is outside the range of keys.Line values.
const free = 0xFF

// Result is the outcome of one Assign call.
type Result uint8

const (
	// Claimed: a press took the first free slot.
	Claimed Result = iota
	// Reused: a press for a key that already owns a slot got that slot back.
	Reused
	// Released: a release freed the key's slot.
	Released
	// Overflow: a press found every slot taken. The event is dropped.
	Overflow
	// Spurious: a release for a key that owns no slot. Ignored.
	Spurious
)

// OK reports whether the event was granted a slot.
func (r Result) OK() bool { return r <= Released }

func (r Result) String() string {
	switch r {
	case Claimed:
		return "claimed"
	case Reused:
		return "reused"
	case Released:
		return "released"
	case Overflow:
		return "overflow"
	case Spurious:
		return "spurious"
	}
	return "unknown"
}

// Pool holds the slot owners. It is not safe for concurrent use; the scan
// loop owns it.
type Pool struct {
	owner [NumVoices]uint8
}

func NewPool() *Pool {
	p := &Pool{}
	p.Reset()
	return p
}

// Reset frees every slot.
func (p *Pool) Reset() {
	for n := range p.owner {
		p.owner[n] = free
	}
}

// Assign maps a press or release of key onto a slot. Slots are scanned in
// index order. A press first looks for a slot key already owns, then for the
// first free one. The returned slot is only valid when the result is OK.
func (p *Pool) Assign(key keys.Line, pressed bool) (int, Result) {
	if n := p.find(uint8(key)); n >= 0 {
		if pressed {
			return n, Reused
		}
		p.owner[n] = free
		return n, Released
	}
	if !pressed {
		return -1, Spurious
	}
	n := p.find(free)
	if n < 0 {
		return -1, Overflow
	}
	p.owner[n] = uint8(key)
	return n, Claimed
}

// Owner returns the key holding slot n.
func (p *Pool) Owner(n int) (keys.Line, bool) {
	if p.owner[n] == free {
		return 0, false
	}
	return keys.Line(p.owner[n]), true
}

// Busy returns the number of owned slots.
func (p *Pool) Busy() int {
	busy := 0
	for _, o := range p.owner {
		if o != free {
			busy++
		}
	}
	return busy
}

func (p *Pool) find(owner uint8) int {
	for n, o := range p.owner {
		if o == owner {
			return n
		}
	}
	return -1
}
