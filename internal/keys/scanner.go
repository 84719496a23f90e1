package keys

import "math/bits"

// Bus is the key input port as seen by the scan loop. Sample reads every
// line at once with bit n set while line n is held down. Board adapters
// take care of pull-up inversion.
type Bus interface {
	Sample() uint32
	ButtonDown() bool
}

// Edge is one press or release transition detected between two polls.
type Edge struct {
	Line    Line
	Pressed bool
}

// Scanner diffs successive bus samples. It keeps only the previous sample
// and applies no debouncing: a glitch on a line shows up as a press and a
// release.
type Scanner struct {
	mask uint32
	prev uint32
}

func NewScanner() Scanner { return Scanner{mask: Mask} }

// Poll samples bus once and appends the edges since the last poll to dst.
func (s *Scanner) Poll(bus Bus, dst []Edge) []Edge {
	return s.Diff(bus.Sample(), dst)
}

// Diff appends the edges between the previous sample and cur to dst,
// lowest line first, then makes cur the previous sample.
func (s *Scanner) Diff(cur uint32, dst []Edge) []Edge {
	changed := s.mask & (s.prev ^ cur)
	for changed != 0 {
		n := bits.TrailingZeros32(changed)
		changed &^= 1 << n
		dst = append(dst, Edge{Line: Line(n), Pressed: cur&(1<<n) != 0})
	}
	s.prev = cur
	return dst
}

// Last returns the most recent raw sample.
func (s *Scanner) Last() uint32 { return s.prev }

// Held reports whether line l was down at the last poll.
func (s *Scanner) Held(l Line) bool { return s.prev&(1<<l) != 0 }
