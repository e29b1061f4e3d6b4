// Package dsp holds the per-sample signal blocks used by the synth voices:
// oscillators, envelopes, filters, noise and the master effects.
package dsp

import (
	"github.com/chewxy/math32"
)

const (
	twoPi      = 2 * math32.Pi
	twoPiRecip = 1 / twoPi
)

// Waveform selects the generating function of an Oscillator.
type Waveform uint8

const (
	WaveSin Waveform = iota
	WaveTri
	WaveSaw
	WaveRamp
	WaveSquare
	WavePolyBLEPTri
	WavePolyBLEPSaw
	WavePolyBLEPSquare
	NumWaveforms
)

var waveNames = [NumWaveforms]string{
	"sin", "tri", "saw", "ramp", "square", "blep-tri", "blep-saw", "blep-square",
}

func (w Waveform) String() string {
	if w >= NumWaveforms {
		return "unknown"
	}
	return waveNames[w]
}

// Oscillator is a phase-accumulator tone generator.
//
// Both Process and ProcessBlock produce the sample at the current phase and
// advance afterwards, so the two call forms stay sample-aligned.
type Oscillator struct {
	sr      float32
	srRecip float32

	freq     float32
	amp      float32
	pw       float32
	phase    float32
	phaseInc float32
	waveform Waveform

	lastOut float32
	eoc     bool
	eor     bool
	// net cycle boundaries crossed by phase nudges, settled by the next advance
	nudged  int
}

// leaky integrator trough for a full-scale square at steady state
const triIntegratorStart = -0.245

// Init resets the oscillator for the given sample rate.
func (o *Oscillator) Init(sampleRate float32) {
	o.sr = sampleRate
	o.srRecip = 1 / sampleRate
	o.freq = 100
	o.amp = 0.5
	o.pw = 0.5
	o.phase = 0
	o.waveform = WaveSin
	o.lastOut = triIntegratorStart
	o.eoc = false
	o.eor = false
	o.nudged = 0
	o.phaseInc = o.calcPhaseInc(o.freq)
}

func (o *Oscillator) calcPhaseInc(f float32) float32 {
	return twoPi * f * o.srRecip
}

// SetFreq sets the frequency in Hz and recomputes the phase increment.
func (o *Oscillator) SetFreq(f float32) {
	o.freq = f
	o.phaseInc = o.calcPhaseInc(f)
}

// SetAmp sets the output amplitude, clamped to [0, 1].
func (o *Oscillator) SetAmp(a float32) { o.amp = clamp01(a) }

// SetPw sets the pulse width, clamped to [0, 1].
func (o *Oscillator) SetPw(pw float32) { o.pw = clamp01(pw) }

// SetWaveform selects the waveform. Unknown values fall back to WaveSin.
func (o *Oscillator) SetWaveform(w Waveform) {
	if w >= NumWaveforms {
		w = WaveSin
	}
	o.waveform = w
}

func (o *Oscillator) Freq() float32 { return o.freq }
func (o *Oscillator) Phase() float32 { return o.phase }
func (o *Oscillator) PhaseInc() float32 { return o.phaseInc }
func (o *Oscillator) Waveform() Waveform { return o.waveform }
func (o *Oscillator) IsEOC() bool { return o.eoc }
func (o *Oscillator) IsEOR() bool { return o.eor }
func (o *Oscillator) IsRising() bool { return o.phase < math32.Pi }
func (o *Oscillator) IsFalling() bool { return o.phase >= math32.Pi }
func (o *Oscillator) SampleRate() float32 { return o.sr }

// Reset restarts the cycle. Used for hard sync.
func (o *Oscillator) Reset() {
	o.phase = 0
	o.nudged = 0
}

// PhaseAdd shifts the running phase by d radians. A shift across a cycle
// boundary counts toward the end-of-cycle flag of the next sample: forward
// crossings report one, backward crossings cancel the wrap that follows.
func (o *Oscillator) PhaseAdd(d float32) {
	p := o.phase + d
	if p >= 0 && p < twoPi {
		o.phase = p
		return
	}
	k := math32.Floor(p * twoPiRecip)
	p -= k * twoPi
	if p >= twoPi {
		p -= twoPi
		k++
	}
	o.phase = max(p, 0)
	o.nudged += int(k)
}

// Process returns one sample at the stored pulse width and advances the
// phase.
func (o *Oscillator) Process() float32 {
	return o.ProcessWidth(o.pw)
}

// ProcessWidth is Process with a pulse width for this sample only. The
// stored width is left untouched.
func (o *Oscillator) ProcessWidth(pw float32) float32 {
	var out float32
	if o.waveform == WaveSin {
		out = math32.Sin(o.phase)
	} else {
		out = o.shape(o.phase, clamp01(pw))
	}
	o.advance()
	return out * o.amp
}

// ProcessBlock fills out with len(out) samples.
//
// pw and fm are optional per-sample pulse width and phase offsets (radians,
// accumulated into the running phase). When reset is true, sync is read and a
// set entry restarts the cycle before that sample is produced. When reset is
// false, a non-nil sync receives the end-of-cycle flag for every sample.
func (o *Oscillator) ProcessBlock(out, pw, fm []float32, sync []bool, reset bool) {
	for i := range out {
		if reset && sync != nil && sync[i] {
			o.Reset()
		}
		if fm != nil {
			o.PhaseAdd(fm[i])
		}
		width := o.pw
		if pw != nil {
			width = clamp01(pw[i])
		}
		var s float32
		if o.waveform == WaveSin {
			s = sinLookup(o.phase)
		} else {
			s = o.shape(o.phase, width)
		}
		out[i] = s * o.amp
		o.advance()
		if !reset && sync != nil {
			sync[i] = o.eoc
		}
	}
}

func (o *Oscillator) advance() {
	prev := o.phase
	o.phase += o.phaseInc
	wraps := o.nudged
	if o.phase >= twoPi {
		o.phase -= twoPi
		wraps++
	}
	if o.phase < 0 || o.phase >= twoPi {
		o.phase = wrapPhase(o.phase)
	}
	// a backward nudge past zero stays owed until a forward wrap pays it
	o.eoc = wraps > 0
	o.nudged = min(wraps, 0)
	o.eor = !o.eoc && prev < math32.Pi && o.phase >= math32.Pi
}

// shape evaluates every waveform except the exact sine.
func (o *Oscillator) shape(phase, pw float32) float32 {
	t := phase * twoPiRecip
	switch o.waveform {
	case WaveSin:
		return math32.Sin(phase)
	case WaveTri:
		return 2 * (math32.Abs(2*t-1) - 0.5)
	case WaveSaw:
		return 1 - 2*t
	case WaveRamp:
		return 2*t - 1
	case WaveSquare:
		if phase < pw*twoPi {
			return 1
		}
		return -1
	case WavePolyBLEPTri:
		dt := o.phaseInc * twoPiRecip
		out := float32(-1)
		if phase < math32.Pi {
			out = 1
		}
		out += polyBLEP(dt, t)
		out -= polyBLEP(dt, math32.Mod(t+0.5, 1))
		k := clamp01(dt)
		out = k*out + (1-k)*o.lastOut
		o.lastOut = out
		return clamp(out*4, -1, 1)
	case WavePolyBLEPSaw:
		dt := o.phaseInc * twoPiRecip
		out := 2*t - 1
		out -= polyBLEP(dt, t)
		return clamp(-out, -1, 1)
	case WavePolyBLEPSquare:
		dt := o.phaseInc * twoPiRecip
		out := float32(-1)
		if phase < pw*twoPi {
			out = 1
		}
		out += polyBLEP(dt, t)
		out -= polyBLEP(dt, math32.Mod(t+(1-pw), 1))
		return clamp(out*0.707, -1, 1)
	}
	return 0
}

// polyBLEP returns the band-limited step correction for the fractional phase
// t given the fractional increment dt.
func polyBLEP(dt, t float32) float32 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func wrapPhase(p float32) float32 {
	if p >= 0 && p < twoPi {
		return p
	}
	p = math32.Mod(p, twoPi)
	if p < 0 {
		p += twoPi
	}
	if p >= twoPi {
		p = 0
	}
	return p
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

func clamp01(v float32) float32 {
	return clamp(v, 0, 1)
}
