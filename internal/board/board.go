// Package board adapts the controller core to real hardware. The rp2040
// build drives GPIO, UART0 and the USB-MIDI endpoint through TinyGo's
// machine package; the host build puts the MIDI line on a serial port and
// feeds the USB relay from a host MIDI input.
package board

import (
	"sync/atomic"

	"github.com/chase3718/lou-keys/internal/keys"
)

// Pin assignments.
const (
	ButtonGPIO = 9
	LEDGPIO    = 25
	MIDITxGPIO = 0
	MIDIRxGPIO = 1

	// MIDIBaud is the MIDI 1.0 DIN line rate, 8N1.
	MIDIBaud = 31250
)

// VirtualBus is a key bus whose lines are set in software. It is safe to
// update from one goroutine while the scan loop samples it from another.
type VirtualBus struct {
	keys   atomic.Uint32
	button atomic.Bool
}

func (b *VirtualBus) Sample() uint32   { return b.keys.Load() }
func (b *VirtualBus) ButtonDown() bool { return b.button.Load() }

// Toggle flips line l and returns its new state.
func (b *VirtualBus) Toggle(l keys.Line) bool {
	for {
		old := b.keys.Load()
		next := old ^ 1<<l
		if b.keys.CompareAndSwap(old, next) {
			return next&(1<<l) != 0
		}
	}
}

// Release lets go of every key line.
func (b *VirtualBus) Release() { b.keys.Store(0) }

// SetButton presses or releases the overlay button.
func (b *VirtualBus) SetButton(down bool) { b.button.Store(down) }
