package synth

import (
	"github.com/chewxy/math32"
	"github.com/danielkinahan/dualie/internal/dsp"
	"github.com/viterin/vek/vek32"
)

// MaxBlockSize bounds the scratch buffers each voice owns.
const MaxBlockSize = 256

const (
	// vibrato depth 1 swings pitch by about a semitone
	vibratoRange = 0.06
	// filter envelope amount 1 opens the cutoff this far
	filterEnvRangeHz = 10000
	// pitch bend range in semitones
	bendRange = 2
)

// MIDINoteToFreq converts a MIDI note number to Hz, A4 (69) = 440 Hz.
func MIDINoteToFreq(note float32) float32 {
	return 440 * math32.Exp2((note-69)/12)
}

func oscWaveform(v float32) dsp.Waveform {
	return dsp.Waveform(int(max(v, 0)))
}

var lfoShapes = [...]dsp.Waveform{dsp.WaveSin, dsp.WaveTri, dsp.WaveSaw, dsp.WaveSquare}

func lfoWaveform(v float32) dsp.Waveform {
	i := min(max(int(v), 0), len(lfoShapes)-1)
	return lfoShapes[i]
}

// Voice renders a single note: two oscillators and noise through a filter,
// shaped by an amplitude and a filter envelope.
type Voice struct {
	osc1, osc2 dsp.Oscillator
	noise      dsp.WhiteNoise
	ampEnv     dsp.Envelope
	filtEnv    dsp.Envelope
	filter     dsp.Filter

	note     uint8
	velocity uint8
	gain     float32
	gate     bool
	active   bool
	bend     float32

	pw         float32
	fmDepth    float32
	coarse     float32
	fine       float32
	sync       bool
	noiseLevel float32
	mix        float32
	cutoff     float32
	envAmt     float32
	tracking   float32
	trackMul   float32
	lfoCutoff  float32
	lfoPitch   float32
	lfoPW      float32

	// scratch for ProcessBlock
	o1, o2, nz        [MaxBlockSize]float32
	pwBuf, fm1, fm2   [MaxBlockSize]float32
	env, fenv, cutBuf [MaxBlockSize]float32
	eoc               [MaxBlockSize]bool
}

// Init prepares the voice and loads every value currently on the panel.
func (v *Voice) Init(sampleRate float32, kind dsp.FilterKind, p *Panel, seed int32) {
	v.osc1.Init(sampleRate)
	v.osc2.Init(sampleRate)
	v.osc1.SetAmp(1)
	v.osc2.SetAmp(1)
	v.noise.Init()
	v.noise.SetSeed(seed)
	v.ampEnv.Init(sampleRate)
	v.filtEnv.Init(sampleRate)
	v.filter.Init(sampleRate, kind)
	v.trackMul = 1
	v.note = 60
	for id := ParamID(0); id < NumParams; id++ {
		v.SetParam(id, p.Value(id))
	}
}

func (v *Voice) IsActive() bool { return v.active }
func (v *Voice) Note() uint8 { return v.note }
func (v *Voice) Velocity() uint8 { return v.velocity }
func (v *Voice) Gate() bool { return v.gate }
func (v *Voice) Stage() dsp.EnvStage { return v.ampEnv.Stage() }
func (v *Voice) Level() float32 { return v.ampEnv.Value() }

// OnNoteOn starts a note. Velocity is normalized to [0, 1] for gain.
func (v *Voice) OnNoteOn(note, velocity uint8) {
	v.note = min(note, 127)
	v.velocity = min(velocity, 127)
	v.gain = float32(v.velocity) / 127
	v.gate = true
	v.active = true
	v.updatePitch()
	v.updateTracking()
	v.ampEnv.Retrigger(false)
	v.filtEnv.Retrigger(false)
}

// OnNoteOff closes the gate. The voice keeps sounding until its amplitude
// envelope finishes releasing.
func (v *Voice) OnNoteOff() {
	v.gate = false
}

// Kill silences the voice at once and frees the slot.
func (v *Voice) Kill() {
	v.gate = false
	v.active = false
	v.ampEnv.Reset()
	v.filtEnv.Reset()
	v.filter.Reset()
}

// SetBend applies a pitch bend in [-1, 1] of the bend range.
func (v *Voice) SetBend(amount float32) {
	v.bend = max(min(amount, 1), -1) * bendRange
	v.updatePitch()
}

func (v *Voice) updatePitch() {
	base := float32(v.note) + v.bend
	v.osc1.SetFreq(MIDINoteToFreq(base))
	v.osc2.SetFreq(MIDINoteToFreq(base + v.coarse + v.fine/100))
}

func (v *Voice) updateTracking() {
	v.trackMul = math32.Exp2(v.tracking * (float32(v.note) - 60) / 12)
}

// SetParam applies one derived panel value. Parameters that belong to the
// manager or the master chain are ignored here.
func (v *Voice) SetParam(id ParamID, value float32) {
	switch id {
	case ParamOscWave:
		v.osc1.SetWaveform(oscWaveform(value))
	case ParamOsc2Wave:
		v.osc2.SetWaveform(oscWaveform(value))
	case ParamPulseWidth:
		v.pw = value
		v.osc1.SetPw(value)
		v.osc2.SetPw(value)
	case ParamFMDepth:
		v.fmDepth = value
	case ParamDetuneCoarse:
		v.coarse = value
		v.updatePitch()
	case ParamDetuneFine:
		v.fine = value
		v.updatePitch()
	case ParamSync:
		v.sync = value > 0
	case ParamNoise:
		v.noiseLevel = value
	case ParamMix:
		v.mix = value
	case ParamCutoff:
		v.cutoff = value
	case ParamResonance:
		v.filter.SetRes(value)
	case ParamFilterEnv:
		v.envAmt = value
	case ParamTracking:
		v.tracking = value
		v.updateTracking()
	case ParamAttack:
		v.ampEnv.SetAttackTime(value)
	case ParamDecay:
		v.ampEnv.SetDecayTime(value)
	case ParamSustain:
		v.ampEnv.SetSustainLevel(value)
	case ParamRelease:
		v.ampEnv.SetReleaseTime(value)
	case ParamFAttack:
		v.filtEnv.SetAttackTime(value)
	case ParamFDecay:
		v.filtEnv.SetDecayTime(value)
	case ParamFSustain:
		v.filtEnv.SetSustainLevel(value)
	case ParamFRelease:
		v.filtEnv.SetReleaseTime(value)
	case ParamLFOCutoff:
		v.lfoCutoff = value
	case ParamLFOPitch:
		v.lfoPitch = value
	case ParamLFOPW:
		v.lfoPW = value
	}
}

// SetFilterKind swaps the filter topology.
func (v *Voice) SetFilterKind(kind dsp.FilterKind) {
	v.filter.SetKind(kind)
	v.filter.SetFreq(v.cutoff)
}

func (v *Voice) cutoffAt(fenv, lfo float32) float32 {
	c := v.cutoff*v.trackMul + fenv*v.envAmt*filterEnvRangeHz
	return c * (1 + lfo*v.lfoCutoff)
}

// Process renders one sample given the shared LFO value. Inactive voices
// return exactly zero.
func (v *Voice) Process(lfo float32) float32 {
	if !v.active {
		return 0
	}
	pw := v.pw + lfo*v.lfoPW
	if v.lfoPitch > 0 {
		v.osc1.PhaseAdd(lfo * v.lfoPitch * vibratoRange * v.osc1.PhaseInc())
	}

	s1 := v.osc1.ProcessWidth(pw)
	if v.sync && v.osc1.IsEOC() {
		v.osc2.Reset()
	}
	var fm float32
	if v.lfoPitch > 0 {
		fm = lfo * v.lfoPitch * vibratoRange * v.osc2.PhaseInc()
	}
	if v.fmDepth > 0 {
		fm += s1 * v.fmDepth * v.osc2.PhaseInc()
	}
	if fm != 0 {
		v.osc2.PhaseAdd(fm)
	}
	s2 := v.osc2.ProcessWidth(pw)

	sig := (1-v.mix)*s1 + v.mix*s2
	if v.noiseLevel > 0 {
		sig += v.noise.Process() * v.noiseLevel
	}

	amp := v.ampEnv.Process(v.gate)
	fenv := v.filtEnv.Process(v.gate)
	if v.filter.Kind() != dsp.FilterOff {
		v.filter.SetFreq(v.cutoffAt(fenv, lfo))
		sig = v.filter.Process(sig)
	}
	out := sig * amp * v.gain

	if !v.ampEnv.IsRunning() {
		v.active = false
	}
	return out
}

// ProcessBlock renders len(out) samples, at most MaxBlockSize. lfo holds the
// shared LFO for the block and may be nil.
func (v *Voice) ProcessBlock(out, lfo []float32) {
	n := len(out)
	if !v.active {
		clear(out)
		return
	}
	o1, o2 := v.o1[:n], v.o2[:n]
	eoc := v.eoc[:n]

	var pw, fm1, fm2 []float32
	if lfo != nil && v.lfoPW != 0 {
		pw = vek32.MulNumber_Into(v.pwBuf[:n], lfo[:n], v.lfoPW)
		vek32.AddNumber_Inplace(pw, v.pw)
	}
	if lfo != nil && v.lfoPitch > 0 {
		fm1 = vek32.MulNumber_Into(v.fm1[:n], lfo[:n], v.lfoPitch*vibratoRange*v.osc1.PhaseInc())
	}
	v.osc1.ProcessBlock(o1, pw, fm1, eoc, false)

	if (lfo != nil && v.lfoPitch > 0) || v.fmDepth > 0 {
		fm2 = v.fm2[:n]
		if lfo != nil && v.lfoPitch > 0 {
			vek32.MulNumber_Into(fm2, lfo[:n], v.lfoPitch*vibratoRange*v.osc2.PhaseInc())
		} else {
			clear(fm2)
		}
		if v.fmDepth > 0 {
			k := v.fmDepth * v.osc2.PhaseInc()
			for i, s := range o1 {
				fm2[i] += s * k
			}
		}
	}
	var sync []bool
	if v.sync {
		sync = eoc
	}
	v.osc2.ProcessBlock(o2, pw, fm2, sync, true)

	vek32.MulNumber_Into(out, o1, 1-v.mix)
	if v.mix != 0 {
		vek32.MulNumber_Inplace(o2, v.mix)
		vek32.Add_Inplace(out, o2)
	}
	if v.noiseLevel > 0 {
		nz := v.nz[:n]
		v.noise.ProcessBlock(nz)
		vek32.MulNumber_Inplace(nz, v.noiseLevel)
		vek32.Add_Inplace(out, nz)
	}

	env, fenv := v.env[:n], v.fenv[:n]
	v.ampEnv.ProcessBlock(env, v.gate)
	v.filtEnv.ProcessBlock(fenv, v.gate)

	if v.filter.Kind() != dsp.FilterOff {
		cut := v.cutBuf[:n]
		for i := range cut {
			var l float32
			if lfo != nil {
				l = lfo[i]
			}
			cut[i] = v.cutoffAt(fenv[i], l)
		}
		v.filter.ProcessBlock(out, cut)
	}

	vek32.Mul_Inplace(out, env)
	vek32.MulNumber_Inplace(out, v.gain)

	if !v.ampEnv.IsRunning() {
		v.active = false
	}
}
