// Package keyboard is the scan context: it owns the key state, the voice
// pool and the mode overlay, and turns key edges into note messages.
package keyboard

import "github.com/chase3718/lou-keys/internal/keys"

// State tracks what the scan loop knows about the keys. It is owned by one
// Controller and never shared.
type State struct {
	Octave   keys.Octave
	Velocity [keys.NumKeys]uint8
	Scanner  keys.Scanner
}

// NewState returns the power-up state: default octave, default velocity on
// every key, all keys released.
func NewState() *State {
	s := &State{
		Octave:  keys.NewOctave(),
		Scanner: keys.NewScanner(),
	}
	for n := range s.Velocity {
		s.Velocity[n] = keys.DefaultVelocity
	}
	return s
}
