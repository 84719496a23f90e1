package midiout

import (
	"testing"
)

func TestEncodeNoteOn(t *testing.T) {
	m := Encode(true, 0, 5, 100, 2)
	want := Message{Len: 3, Data: [3]byte{0x92, 60, 100}}
	if m != want {
		t.Fatalf("Encode(pressed) = % X, want % X", m.Bytes(), want.Bytes())
	}

	var ch, key, vel uint8
	if !m.MIDI().GetNoteOn(&ch, &key, &vel) || ch != 2 || key != 60 || vel != 100 {
		t.Errorf("decoded note on = ch %d key %d vel %d", ch, key, vel)
	}
}

func TestEncodeNoteOffKeepsVelocity(t *testing.T) {
	m := Encode(false, 0, 5, 100, 2)
	want := Message{Len: 3, Data: [3]byte{0x82, 60, 100}}
	if m != want {
		t.Fatalf("Encode(released) = % X, want % X", m.Bytes(), want.Bytes())
	}
	if m.Channel() != 2 || !MatchStatus(m.Status(), StatusMask, NoteOff) {
		t.Errorf("status %02X: channel %d", m.Status(), m.Channel())
	}
}

func TestEncodeOctaves(t *testing.T) {
	tests := []struct {
		offset, octave uint8
		want           uint8
	}{
		{0, 5, 60},
		{12, 5, 72},
		{7, 2, 31},
		{12, 9, 120},
	}
	for _, tt := range tests {
		m := Encode(true, tt.offset, tt.octave, 100, 0)
		if m.Data[1] != tt.want {
			t.Errorf("Encode(offset %d, octave %d) note = %d, want %d", tt.offset, tt.octave, m.Data[1], tt.want)
		}
	}
}

func TestCC(t *testing.T) {
	m := CC(3, 0, 2)
	if m.Len != 3 || m.Data != [3]byte{0xB3, 0x00, 0x02} {
		t.Errorf("CC(3, 0, 2) = % X", m.Bytes())
	}
}

func TestMatchStatus(t *testing.T) {
	tests := []struct {
		b, mask, want byte
		match         bool
	}{
		{0x93, StatusMask, NoteOn, true},
		{0x9F, StatusMask, NoteOn, true},
		{0x83, StatusMask, NoteOff, true},
		{0x93, StatusMask, NoteOff, false},
		{0xB0, StatusMask, NoteOn, false},
		{0x00, StatusMask, NoteOn, false},
		{0x09, StatusMask, NoteOn, false},
	}
	for _, tt := range tests {
		if got := MatchStatus(tt.b, tt.mask, tt.want); got != tt.match {
			t.Errorf("MatchStatus(%02X, %02X, %02X) = %v, want %v", tt.b, tt.mask, tt.want, got, tt.match)
		}
	}
}

// Masking must happen before the comparison. Comparing first and masking
// the boolean result never matches a real Note status.
func TestMatchStatusMasksBeforeCompare(t *testing.T) {
	for b := 0; b < 256; b++ {
		got := MatchStatus(byte(b), StatusMask, NoteOn)
		if want := b>>4 == 0x9; got != want {
			t.Fatalf("MatchStatus(%02X, F0, 90) = %v, want %v", b, got, want)
		}
		if IsNote(byte(b)) != (b>>4 == 0x8 || b>>4 == 0x9) {
			t.Fatalf("IsNote(%02X) wrong", b)
		}
	}
}
