package gomidi

import (
	"slices"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/danielkinahan/dualie/internal/synth"
)

var smfDebug = debuggo.Debug("dualie:smf")

const (
	defaultBPM        = 120
	defaultResolution = 960
)

// ScoreEvent is an engine event at an absolute tick.
type ScoreEvent struct {
	Tick  int64
	Event synth.Event
}

type tempoChange struct {
	tick int64
	bpm  float64
}

// Score is a Standard MIDI File flattened to a single time-ordered list of
// engine events plus its tempo map.
type Score struct {
	Resolution uint16 // ticks per quarter note
	Events     []ScoreEvent
	tempos     []tempoChange
}

// NewScore returns an empty score at the given tempo.
func NewScore(resolution uint16, bpm float64) *Score {
	if resolution == 0 {
		resolution = defaultResolution
	}
	s := &Score{Resolution: resolution}
	s.SetTempo(0, bpm)
	return s
}

// Add appends ev at tick. Events may be added in any order.
func (s *Score) Add(tick int64, ev synth.Event) {
	s.Events = append(s.Events, ScoreEvent{Tick: tick, Event: ev})
}

// SetTempo records a tempo change at tick.
func (s *Score) SetTempo(tick int64, bpm float64) {
	if bpm <= 0 {
		bpm = defaultBPM
	}
	i := slices.IndexFunc(s.tempos, func(t tempoChange) bool { return t.tick == tick })
	if i >= 0 {
		s.tempos[i].bpm = bpm
		return
	}
	s.tempos = append(s.tempos, tempoChange{tick: tick, bpm: bpm})
	slices.SortFunc(s.tempos, func(a, b tempoChange) int { return int(a.tick - b.tick) })
}

// BPMAt returns the tempo in effect at tick.
func (s *Score) BPMAt(tick int64) float64 {
	bpm := float64(defaultBPM)
	for _, t := range s.tempos {
		if t.tick > tick {
			break
		}
		bpm = t.bpm
	}
	return bpm
}

// Seconds converts an absolute tick to seconds through the tempo map.
func (s *Score) Seconds(tick int64) float64 {
	var sec float64
	prevTick := int64(0)
	bpm := float64(defaultBPM)
	for _, t := range s.tempos {
		if t.tick >= tick {
			break
		}
		sec += float64(t.tick-prevTick) * 60 / (bpm * float64(s.Resolution))
		prevTick, bpm = t.tick, t.bpm
	}
	return sec + float64(tick-prevTick)*60/(bpm*float64(s.Resolution))
}

// TimedEvent is an engine event at an absolute sample frame.
type TimedEvent struct {
	Frame int64
	Event synth.Event
}

// Frames converts the score to sample frames, ordered by time.
func (s *Score) Frames(sampleRate int) []TimedEvent {
	s.sort()
	out := make([]TimedEvent, len(s.Events))
	for i, ev := range s.Events {
		out[i] = TimedEvent{
			Frame: int64(s.Seconds(ev.Tick)*float64(sampleRate) + 0.5),
			Event: ev.Event,
		}
	}
	return out
}

// Length is the time of the last event in seconds.
func (s *Score) Length() float64 {
	s.sort()
	if len(s.Events) == 0 {
		return 0
	}
	return s.Seconds(s.Events[len(s.Events)-1].Tick)
}

func (s *Score) sort() {
	slices.SortStableFunc(s.Events, func(a, b ScoreEvent) int {
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		}
		return 0
	})
}

// ReadScore loads every track of a Standard MIDI File into one score.
func ReadScore(path string) (*Score, error) {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read MIDI file %s", path)
	}
	ticks, ok := rd.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.Errorf("%s: SMPTE time format is not supported", path)
	}

	s := &Score{Resolution: uint16(ticks)}
	skipped := 0
	for _, track := range rd.Tracks {
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				s.SetTempo(tick, bpm)
				continue
			}
			if ev.Message.IsMeta() {
				continue
			}
			e, ok := Decode(midi.Message(ev.Message))
			if !ok {
				skipped++
				continue
			}
			s.Add(tick, e)
		}
	}
	s.sort()
	smfDebug("%s: %d tracks, %d events, %d tempo changes, %d skipped",
		path, len(rd.Tracks), len(s.Events), len(s.tempos), skipped)
	return s, nil
}

// WriteFile stores the score as a single-track SMF on channel 0. Events
// that have no MIDI form, such as parameter edits, are left out.
func (s *Score) WriteFile(path string) error {
	s.sort()
	type item struct {
		tick int64
		msg  []byte
	}
	items := make([]item, 0, len(s.Events)+len(s.tempos))
	for _, t := range s.tempos {
		items = append(items, item{t.tick, smf.MetaTempo(t.bpm)})
	}
	for _, ev := range s.Events {
		if msg, ok := Encode(ev.Event); ok {
			items = append(items, item{ev.Tick, msg})
		}
	}
	slices.SortStableFunc(items, func(a, b item) int { return int(a.tick - b.tick) })

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(s.Resolution)
	var track smf.Track
	track.Add(0, smf.MetaMeter(4, 4))
	var last int64
	for _, it := range items {
		track.Add(uint32(it.tick-last), it.msg)
		last = it.tick
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return errors.Wrap(err, "add track")
	}
	if err := sm.WriteFile(path); err != nil {
		return errors.Wrapf(err, "write MIDI file %s", path)
	}
	smfDebug("%s: wrote %d events", path, len(items))
	return nil
}
