package keys

// Octave register bounds. Value 5 puts the lowest key on middle C (60).
const (
	MinOctave     = 2
	MaxOctave     = 9
	DefaultOctave = 5

	NotesPerOctave = 12
)

// Octave is the bounded octave register. The zero value is not valid; use
// NewOctave.
type Octave struct {
	v uint8
}

func NewOctave() Octave { return Octave{v: DefaultOctave} }

func (o Octave) Value() uint8 { return o.v }

// Up raises the octave by one unless it is already at MaxOctave. It reports
// whether the value changed.
func (o *Octave) Up() bool {
	if o.v >= MaxOctave {
		return false
	}
	o.v++
	return true
}

// Down lowers the octave by one unless it is already at MinOctave.
func (o *Octave) Down() bool {
	if o.v <= MinOctave {
		return false
	}
	o.v--
	return true
}

// Note returns the MIDI note number for a key offset at this octave.
func (o Octave) Note(offset uint8) uint8 {
	return offset + o.v*NotesPerOctave
}
