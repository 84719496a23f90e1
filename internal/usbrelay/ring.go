package usbrelay

import "sync/atomic"

// Packet is one USB-MIDI event packet: a header byte (cable number and code
// index) followed by up to three MIDI bytes.
type Packet [4]byte

// Source yields received packets. Next reports false when nothing is
// pending.
type Source interface {
	Next() (Packet, bool)
}

// Ring is a fixed-size single-producer single-consumer packet queue. The
// USB receive callback pushes, the relay loop pops. When full, new packets
// are dropped and counted.
type Ring struct {
	buf     []Packet
	mask    uint32
	head    atomic.Uint32 // next slot to read
	tail    atomic.Uint32 // next slot to write
	dropped atomic.Uint32
}

// NewRing returns a ring holding size packets; size is rounded up to a power
// of two.
func NewRing(size int) *Ring {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring{buf: make([]Packet, n), mask: uint32(n - 1)}
}

// Push appends p. It must only be called from one goroutine or interrupt.
func (r *Ring) Push(p Packet) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint32(len(r.buf)) {
		r.dropped.Add(1)
		return false
	}
	r.buf[tail&r.mask] = p
	r.tail.Store(tail + 1)
	return true
}

// PushBytes splits b into 4-byte packets and pushes each. A trailing partial
// packet is ignored.
func (r *Ring) PushBytes(b []byte) {
	for len(b) >= 4 {
		r.Push(Packet{b[0], b[1], b[2], b[3]})
		b = b[4:]
	}
}

// Next pops the oldest packet.
func (r *Ring) Next() (Packet, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return Packet{}, false
	}
	p := r.buf[head&r.mask]
	r.head.Store(head + 1)
	return p, true
}

// Len returns the number of pending packets.
func (r *Ring) Len() int { return int(r.tail.Load() - r.head.Load()) }

// Dropped returns how many packets were lost to a full ring.
func (r *Ring) Dropped() uint32 { return r.dropped.Load() }
