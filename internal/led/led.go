// Package led drives the single status indicator. It is feedback only:
// boot heartbeat, preset flashes while the mode overlay is entered, and an
// activity toggle for relayed USB notes.
package led

import (
	"sync"
	"time"

	"github.com/chase3718/lou-keys/internal/clock"
)

// BootPulse is how long the indicator stays lit at power-up.
const BootPulse = 500 * time.Millisecond

// Pin is a binary output. machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
	Get() bool
}

// Indicator serialises access to the pin; both execution contexts touch it.
type Indicator struct {
	mu  sync.Mutex
	pin Pin
}

func New(pin Pin) *Indicator { return &Indicator{pin: pin} }

func (i *Indicator) Set(on bool) {
	i.mu.Lock()
	i.pin.Set(on)
	i.mu.Unlock()
}

func (i *Indicator) On()  { i.Set(true) }
func (i *Indicator) Off() { i.Set(false) }

func (i *Indicator) Lit() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pin.Get()
}

// Toggle inverts the indicator.
func (i *Indicator) Toggle() {
	i.mu.Lock()
	i.pin.Set(!i.pin.Get())
	i.mu.Unlock()
}

// Pulse lights the indicator for d, then turns it off.
func (i *Indicator) Pulse(clk clock.Clock, d time.Duration) {
	i.On()
	clk.Sleep(d)
	i.Off()
}

// Flash blinks n times with the given on and off period. It starts and ends
// with the indicator off.
func (i *Indicator) Flash(clk clock.Clock, n int, period time.Duration) {
	for ; n > 0; n-- {
		clk.Sleep(period)
		i.On()
		clk.Sleep(period)
		i.Off()
	}
}

// MemPin is an in-memory Pin that counts rising edges. It backs the host
// bench and tests.
type MemPin struct {
	mu    sync.Mutex
	high  bool
	rises int
}

func (p *MemPin) Set(high bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if high && !p.high {
		p.rises++
	}
	p.high = high
}

func (p *MemPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

// Rises returns how many times the pin went from low to high.
func (p *MemPin) Rises() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rises
}
