// Package gomidi connects gitlab.com/gomidi/midi to the synth engine: it
// decodes wire messages into engine events, listens on rtmidi ports and
// reads and writes Standard MIDI Files.
package gomidi

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/danielkinahan/dualie/internal/synth"
)

// Decode turns a channel voice message into an engine event. Every channel
// is accepted. Messages the engine has no use for report false.
func Decode(msg midi.Message) (synth.Event, bool) {
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		if vel == 0 {
			return synth.NoteOff(key, 0), true
		}
		return synth.NoteOn(key, vel), true
	case msg.GetNoteOff(&ch, &key, &vel):
		return synth.NoteOff(key, vel), true
	case msg.GetControlChange(&ch, &cc, &val):
		return synth.ControlChange(cc, val), true
	case msg.GetPitchBend(&ch, &rel, &abs):
		return synth.PitchBend(rel), true
	}
	return synth.Event{}, false
}

// DecodeBytes decodes a raw message as delivered by a driver callback.
func DecodeBytes(data []byte) (synth.Event, bool) {
	if len(data) == 0 {
		return synth.Event{}, false
	}
	return Decode(midi.Message(data))
}

// Encode is the inverse of Decode for notes and controllers, on channel 0.
func Encode(ev synth.Event) (midi.Message, bool) {
	switch ev.Kind {
	case synth.EventNoteOn:
		return midi.NoteOn(0, ev.Note, ev.Velocity), true
	case synth.EventNoteOff:
		return midi.NoteOff(0, ev.Note), true
	case synth.EventControlChange:
		return midi.ControlChange(0, ev.Controller, ev.Value), true
	case synth.EventAllNotesOff:
		return midi.ControlChange(0, 123, 0), true
	case synth.EventAllSoundOff:
		return midi.ControlChange(0, 120, 0), true
	}
	return nil, false
}
