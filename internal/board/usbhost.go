//go:build !tinygo

package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/chase3718/lou-keys/internal/usbrelay"
)

// -------------------- Hot-swap config --------------------

// ExcludedInputs are virtual/system ports that are never auto-connected.
var ExcludedInputs = []string{"Midi Through", "Through Port", "Dummy"}

const rescanInterval = time.Second

// -------------------- MIDIWatcher --------------------

// MIDIWatcher stands in for the device-side USB stack on the host. It keeps
// a connection to a host MIDI input and frames every message it receives as
// a USB-MIDI packet into a ring the relay drains. Hot-plug and unplug are
// handled on each Tick.
type MIDIWatcher struct {
	mu           sync.Mutex
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	lastRescanAt time.Time

	preferred []string
	cable     uint8
	ring      *usbrelay.Ring
	log       *slog.Logger
}

// NewMIDIWatcher initialises the rtmidi driver. Inputs whose name contains
// one of preferred are picked first; with no preference the only available
// input is used. Call Close when done.
func NewMIDIWatcher(ring *usbrelay.Ring, preferred []string, logger *slog.Logger) (*MIDIWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &MIDIWatcher{
		drv:       drv,
		preferred: preferred,
		ring:      ring,
		log:       logger,
	}, nil
}

// Close shuts down the active input and the rtmidi driver.
func (m *MIDIWatcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeConn()
	m.drv.Close()
}

// Connected returns the name of the connected input, if any.
func (m *MIDIWatcher) Connected() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedName, m.connected
}

// Run calls Tick every rescan interval until ctx is done.
func (m *MIDIWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()
	m.Tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick scans for inputs, connects to a preferred one and notices when the
// connected one disappears.
func (m *MIDIWatcher) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !m.lastRescanAt.IsZero() && now.Sub(m.lastRescanAt) < rescanInterval {
		return
	}
	m.lastRescanAt = now

	inputs := m.listInputs()

	if m.connected {
		for _, n := range inputs {
			if n == m.selectedName {
				return
			}
		}
		m.log.Warn("usb: input disappeared", "device", m.selectedName)
		m.closeConn()
		m.lastRescanAt = time.Time{}
		return
	}

	if len(inputs) == 0 {
		return
	}
	cand, ok := pickPreferred(inputs, m.preferred)
	if !ok {
		m.log.Debug("usb: no preferred input", "available", strings.Join(inputs, ", "))
		return
	}
	if err := m.openByName(cand); err != nil {
		m.log.Error("usb: connect failed", "device", cand, "err", err)
	}
}

// -------------------- internal --------------------

func (m *MIDIWatcher) listInputs() []string {
	ins, err := m.drv.Ins()
	if err != nil {
		m.log.Error("usb: list inputs failed", "err", err)
		return nil
	}
	return filterInputs(ins, m.log)
}

func filterInputs(ins []drivers.In, logger *slog.Logger) []string {
	var names []string
	for _, in := range ins {
		name := in.String()
		if excluded(name) {
			logger.Debug("usb: input excluded", "device", name)
			continue
		}
		names = append(names, name)
	}
	return names
}

func excluded(name string) bool {
	for _, pat := range ExcludedInputs {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func pickPreferred(inputs, preferred []string) (string, bool) {
	for _, pat := range preferred {
		for _, name := range inputs {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(inputs) == 1 {
		return inputs[0], true
	}
	return "", false
}

func (m *MIDIWatcher) closeConn() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.inPort != nil {
		_ = m.inPort.Close()
		m.inPort = nil
	}
	m.connected = false
	m.selectedName = ""
}

func (m *MIDIWatcher) openByName(name string) error {
	ins, err := m.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		if !m.ring.Push(usbrelay.Frame(m.cable, msg)) {
			m.log.Warn("usb: receive ring full, packet dropped", "msg", msg.String())
		}
	}, midi.HandleError(func(listenErr error) {
		m.log.Warn("usb: listener error", "device", name, "err", listenErr)
		// closeConn must not run on the listener goroutine itself
		go func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.connected && m.selectedName == name {
				m.closeConn()
				m.lastRescanAt = time.Time{}
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	m.inPort = found
	m.stopFn = stop
	m.connected = true
	m.selectedName = name
	m.log.Info("usb: connected", "device", name)
	return nil
}

// MIDIInputs lists the host MIDI inputs the watcher would consider.
func MIDIInputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: list inputs: %w", err)
	}
	return filterInputs(ins, slog.Default()), nil
}

// -------------------- utility --------------------

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
