// Package midiout builds the channel messages the controller emits and
// serialises them onto the MIDI line through a single writer.
package midiout

import (
	"gitlab.com/gomidi/midi/v2"
)

// Status nibbles, channel bits clear.
const (
	NoteOff       byte = 0x80
	NoteOn        byte = 0x90
	ControlChange byte = 0xB0

	// StatusMask selects the message kind out of a status byte.
	StatusMask byte = 0xF0
	// ChannelMask selects the channel out of a status byte.
	ChannelMask byte = 0x0F
)

// Message is one complete 2 or 3 byte MIDI message. It is a value type so
// it can be queued without sharing a buffer with its producer.
type Message struct {
	Len  uint8
	Data [3]byte
}

// FromMIDI copies a gomidi message. Anything past three bytes is cut off;
// the controller never emits longer messages.
func FromMIDI(m midi.Message) Message {
	var msg Message
	msg.Len = uint8(copy(msg.Data[:], m))
	return msg
}

// Encode builds the Note On or Note Off for a key. The note number is the
// key's offset plus twelve per octave; channel is the voice slot.
//
//	[0x90|ch or 0x80|ch][offset + octave*12][velocity]
func Encode(pressed bool, offset, octave, velocity, channel uint8) Message {
	return Note(pressed, offset+octave*12, velocity, channel)
}

// Note builds a Note On or Note Off for an absolute note number.
func Note(pressed bool, note, velocity, channel uint8) Message {
	if pressed {
		return FromMIDI(midi.NoteOn(channel, note, velocity))
	}
	return FromMIDI(midi.NoteOffVelocity(channel, note, velocity))
}

// CC builds a Control Change.
func CC(channel, controller, value uint8) Message {
	return FromMIDI(midi.ControlChange(channel, controller, value))
}

// Bytes returns the wire bytes.
func (m Message) Bytes() []byte { return m.Data[:m.Len] }

// MIDI returns the message as a gomidi message for decoding.
func (m Message) MIDI() midi.Message { return midi.Message(m.Bytes()) }

// Status returns the status byte.
func (m Message) Status() byte { return m.Data[0] }

// Channel returns the channel nibble of the status byte.
func (m Message) Channel() uint8 { return m.Data[0] & ChannelMask }

func (m Message) String() string { return m.MIDI().String() }

// MatchStatus reports whether b carries the wanted value under mask, i.e.
// (b & mask) == want.
func MatchStatus(b, mask, want byte) bool {
	return (b & mask) == want
}

// IsNote reports whether b is a Note On or Note Off status byte on any
// channel.
func IsNote(b byte) bool {
	return MatchStatus(b, StatusMask, NoteOn) || MatchStatus(b, StatusMask, NoteOff)
}
