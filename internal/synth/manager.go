package synth

import (
	"github.com/danielkinahan/dualie/internal/dsp"
	"github.com/viterin/vek/vek32"
)

// Manager owns a fixed pool of voices and the LFO they share.
//
// Allocation is first-fit: a note-on takes the lowest-numbered inactive
// voice, and is dropped when every voice is busy.
type Manager struct {
	voices []Voice
	lfo    dsp.Oscillator
	panel  *Panel

	lfoBuf [MaxBlockSize]float32
	mixBuf [MaxBlockSize]float32
}

// NewManager allocates n voices, all initialized from the panel.
func NewManager(n int, sampleRate float32, kind dsp.FilterKind, p *Panel) *Manager {
	m := &Manager{
		voices: make([]Voice, max(n, 1)),
		panel:  p,
	}
	for i := range m.voices {
		m.voices[i].Init(sampleRate, kind, p, int32(i+1))
	}
	m.lfo.Init(sampleRate)
	m.lfo.SetAmp(1)
	m.lfo.SetWaveform(lfoWaveform(p.Value(ParamLFOWave)))
	m.lfo.SetFreq(p.Value(ParamLFORate))
	return m
}

func (m *Manager) NumVoices() int { return len(m.voices) }

// Voice returns voice i for inspection.
func (m *Manager) Voice(i int) *Voice { return &m.voices[i] }

// OnNoteOn starts note on the first free voice. Velocity 0 is a note-off.
// It reports false when the note was dropped.
func (m *Manager) OnNoteOn(note, velocity uint8) bool {
	if velocity == 0 {
		m.OnNoteOff(note)
		return true
	}
	for i := range m.voices {
		v := &m.voices[i]
		if !v.IsActive() {
			v.OnNoteOn(note, velocity)
			return true
		}
	}
	return false
}

// OnNoteOff releases every active voice playing note.
func (m *Manager) OnNoteOff(note uint8) {
	for i := range m.voices {
		v := &m.voices[i]
		if v.IsActive() && v.Note() == note {
			v.OnNoteOff()
		}
	}
}

// AllNotesOff releases every voice; tails still ring out.
func (m *Manager) AllNotesOff() {
	for i := range m.voices {
		m.voices[i].OnNoteOff()
	}
}

// AllSoundOff silences every voice at once.
func (m *Manager) AllSoundOff() {
	for i := range m.voices {
		m.voices[i].Kill()
	}
}

// SetParam pushes a derived value to the LFO or to every voice.
func (m *Manager) SetParam(id ParamID, value float32) {
	switch id {
	case ParamLFOWave:
		m.lfo.SetWaveform(lfoWaveform(value))
	case ParamLFORate:
		m.lfo.SetFreq(value)
	default:
		for i := range m.voices {
			m.voices[i].SetParam(id, value)
		}
	}
}

// SetFilterKind swaps the filter topology of every voice.
func (m *Manager) SetFilterKind(kind dsp.FilterKind) {
	for i := range m.voices {
		m.voices[i].SetFilterKind(kind)
	}
}

// PitchBend applies a normalized bend in [-1, 1] to every voice.
func (m *Manager) PitchBend(amount float32) {
	for i := range m.voices {
		m.voices[i].SetBend(amount)
	}
}

// ActiveCount reports how many voices are sounding.
func (m *Manager) ActiveCount() int {
	n := 0
	for i := range m.voices {
		if m.voices[i].IsActive() {
			n++
		}
	}
	return n
}

// Process renders one sample, the sum of all voices.
func (m *Manager) Process() float32 {
	lfo := m.lfo.Process()
	var sum float32
	for i := range m.voices {
		sum += m.voices[i].Process(lfo)
	}
	return sum
}

// ProcessBlock overwrites out with the sum of all voices.
func (m *Manager) ProcessBlock(out []float32) {
	for len(out) > 0 {
		n := min(len(out), MaxBlockSize)
		chunk := out[:n]
		lfo := m.lfoBuf[:n]
		m.lfo.ProcessBlock(lfo, nil, nil, nil, false)

		clear(chunk)
		mix := m.mixBuf[:n]
		for i := range m.voices {
			v := &m.voices[i]
			if !v.IsActive() {
				continue
			}
			v.ProcessBlock(mix, lfo)
			vek32.Add_Inplace(chunk, mix)
		}
		out = out[n:]
	}
}
