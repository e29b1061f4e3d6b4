package synth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEvent is returned for events whose data is out of range.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrQueueFull is returned by Engine.Send when the audio side is behind.
	ErrQueueFull = errors.New("event queue full")
)

// EventKind tells the engine how to apply an Event.
type EventKind uint8

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventControlChange
	EventParamSet
	EventParamNudge
	EventPitchBend
	EventAllNotesOff
	EventAllSoundOff
	numEventKinds
)

var eventKindNames = [numEventKinds]string{
	"note-on", "note-off", "cc", "param", "nudge", "bend", "all-notes-off", "all-sound-off",
}

func (k EventKind) String() string {
	if k >= numEventKinds {
		return fmt.Sprintf("event(%d)", k)
	}
	return eventKindNames[k]
}

// Event is one control message for the engine. Only the fields relevant to
// Kind are read.
type Event struct {
	Kind       EventKind
	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
	Param      ParamID
	Delta      int
	// Bend is the 14-bit MIDI pitch bend, centered on 0 (-8192..8191).
	Bend int16
}

func NoteOn(note, velocity uint8) Event {
	return Event{Kind: EventNoteOn, Note: note, Velocity: velocity}
}

func NoteOff(note, velocity uint8) Event {
	return Event{Kind: EventNoteOff, Note: note, Velocity: velocity}
}

func ControlChange(controller, value uint8) Event {
	return Event{Kind: EventControlChange, Controller: controller, Value: value}
}

func ParamSet(id ParamID, raw uint8) Event {
	return Event{Kind: EventParamSet, Param: id, Value: raw}
}

func ParamNudge(id ParamID, delta int) Event {
	return Event{Kind: EventParamNudge, Param: id, Delta: delta}
}

func PitchBend(bend int16) Event {
	return Event{Kind: EventPitchBend, Bend: bend}
}

// Validate rejects events the core would otherwise have to clamp.
func (e Event) Validate() error {
	switch e.Kind {
	case EventNoteOn, EventNoteOff:
		if e.Note > 127 || e.Velocity > 127 {
			return fmt.Errorf("%w: %s note %d velocity %d", ErrInvalidEvent, e.Kind, e.Note, e.Velocity)
		}
	case EventControlChange:
		if e.Controller > 127 || e.Value > 127 {
			return fmt.Errorf("%w: cc %d value %d", ErrInvalidEvent, e.Controller, e.Value)
		}
	case EventParamSet:
		if !e.Param.Valid() || e.Value > 127 {
			return fmt.Errorf("%w: param %s value %d", ErrInvalidEvent, e.Param, e.Value)
		}
	case EventParamNudge:
		if !e.Param.Valid() {
			return fmt.Errorf("%w: nudge %s", ErrInvalidEvent, e.Param)
		}
	case EventPitchBend:
		if e.Bend < -8192 || e.Bend > 8191 {
			return fmt.Errorf("%w: bend %d", ErrInvalidEvent, e.Bend)
		}
	case EventAllNotesOff, EventAllSoundOff:
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidEvent, e.Kind)
	}
	return nil
}

func (e Event) String() string {
	switch e.Kind {
	case EventNoteOn, EventNoteOff:
		return fmt.Sprintf("%s %d vel %d", e.Kind, e.Note, e.Velocity)
	case EventControlChange:
		return fmt.Sprintf("cc %d = %d", e.Controller, e.Value)
	case EventParamSet:
		return fmt.Sprintf("%s = %d", e.Param, e.Value)
	case EventParamNudge:
		return fmt.Sprintf("%s %+d", e.Param, e.Delta)
	case EventPitchBend:
		return fmt.Sprintf("bend %d", e.Bend)
	}
	return e.Kind.String()
}
