// Package keys models the 13 physical key lines of the controller: the fixed
// line-to-note map, the bounded octave register and the edge scanner that
// turns raw bus samples into press/release events.
package keys

import "fmt"

// -------------------- Tunables --------------------

const (
	// NumKeys is the number of scanned key lines (one chromatic octave plus
	// the upper C).
	NumKeys = 13

	// Mask selects the key lines out of a raw bus sample. Bit n is line n.
	Mask uint32 = 1<<NumKeys - 1

	// FirstGPIO is the GPIO number wired to line 0.
	FirstGPIO = 10

	// DefaultVelocity is applied to every key; there is no velocity sensing.
	DefaultVelocity = 100
)

// Line is a physical key line index in [0, NumKeys).
type Line uint8

// GPIO returns the board pin number the line is wired to.
func (l Line) GPIO() uint8 { return uint8(l) + FirstGPIO }

func (l Line) String() string { return fmt.Sprintf("L%d", uint8(l)) }

// Role is the meaning a line takes while the mode overlay is active.
type Role uint8

const (
	NoRole Role = iota
	ChannelSelect
	OctaveUp
	OctaveDown
)

func (r Role) String() string {
	switch r {
	case ChannelSelect:
		return "channel-select"
	case OctaveUp:
		return "octave-up"
	case OctaveDown:
		return "octave-down"
	}
	return "none"
}

// Key describes one line: the semitone offset above the octave base it plays
// during note scanning, and its overlay role.
type Key struct {
	Offset  uint8
	Role    Role
	Channel uint8 // only meaningful for ChannelSelect
}

// Map is the immutable line table. Build it once with NewMap.
type Map struct {
	keys     [NumKeys]Key
	channels [4]Line
	up, down Line
}

// NewMap returns the keyboard's wiring. Lines 0..5 run F down to the lower C
// because that bank is mounted mirrored on the board.
func NewMap() *Map {
	m := &Map{}
	offsets := [NumKeys]uint8{5, 4, 3, 2, 1, 0, 6, 7, 8, 9, 10, 11, 12}
	for i, off := range offsets {
		m.keys[i] = Key{Offset: off}
	}

	// lower C, D, E, F select channels 0..3
	for ch, l := range [4]Line{5, 3, 1, 0} {
		m.keys[l].Role = ChannelSelect
		m.keys[l].Channel = uint8(ch)
		m.channels[ch] = l
	}

	m.up, m.down = 12, 11
	m.keys[m.up].Role = OctaveUp
	m.keys[m.down].Role = OctaveDown
	return m
}

// Key returns the table entry for line l.
func (m *Map) Key(l Line) Key { return m.keys[l] }

// ChannelLines returns the channel-select lines indexed by channel.
func (m *Map) ChannelLines() [4]Line { return m.channels }

// OctaveLines returns the octave-up and octave-down lines.
func (m *Map) OctaveLines() (up, down Line) { return m.up, m.down }

// LineForOffset returns the line that plays the given semitone offset.
func (m *Map) LineForOffset(off uint8) (Line, bool) {
	for i, k := range m.keys {
		if k.Offset == off {
			return Line(i), true
		}
	}
	return 0, false
}
