//go:build rp2040

package board

import (
	"machine"
	"machine/usb/adc/midi"

	"github.com/chase3718/lou-keys/internal/keys"
	"github.com/chase3718/lou-keys/internal/usbrelay"
)

// PicoBus reads the thirteen key lines and the overlay button. All inputs
// are pulled up and pressed means low; Sample reports pressed as a set bit.
type PicoBus struct {
	lines  [keys.NumKeys]machine.Pin
	button machine.Pin
}

// NewPicoBus configures the key and button pins as pulled-up inputs.
func NewPicoBus() *PicoBus {
	b := &PicoBus{button: machine.Pin(ButtonGPIO)}
	for i := range b.lines {
		p := machine.Pin(keys.Line(i).GPIO())
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		b.lines[i] = p
	}
	b.button.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return b
}

func (b *PicoBus) Sample() uint32 {
	var s uint32
	for i, p := range b.lines {
		if !p.Get() {
			s |= 1 << i
		}
	}
	return s
}

func (b *PicoBus) ButtonDown() bool { return !b.button.Get() }

// LEDPin is the on-board LED.
type LEDPin struct{ p machine.Pin }

func NewLEDPin() LEDPin {
	p := machine.Pin(LEDGPIO)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return LEDPin{p: p}
}

func (l LEDPin) Set(on bool) { l.p.Set(on) }
func (l LEDPin) Get() bool   { return l.p.Get() }

// OpenUART configures UART0 as the MIDI DIN line.
func OpenUART() (*machine.UART, error) {
	u := machine.UART0
	err := u.Configure(machine.UARTConfig{
		BaudRate: MIDIBaud,
		TX:       machine.Pin(MIDITxGPIO),
		RX:       machine.Pin(MIDIRxGPIO),
	})
	if err != nil {
		return nil, err
	}
	if err := u.SetFormat(8, 1, machine.ParityNone); err != nil {
		return nil, err
	}
	return u, nil
}

// AttachUSB routes packets received on the USB-MIDI endpoint into ring.
// The handler runs in interrupt context and only copies.
func AttachUSB(ring *usbrelay.Ring) {
	midi.Port().SetRxHandler(func(b []byte) {
		ring.PushBytes(b)
	})
}
