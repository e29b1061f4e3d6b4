package dsp

import "github.com/chewxy/math32"

// MaxResonance is the highest normalized resonance any filter accepts.
// Above it both topologies self-oscillate and blow up.
const MaxResonance = 0.95

const (
	minCutoff   = 10
	maxCutoffSR = 0.49
)

// FilterKind selects the topology behind a Filter.
type FilterKind uint8

const (
	FilterOff FilterKind = iota
	FilterLadder
	FilterSVF
	NumFilterKinds
)

func (k FilterKind) String() string {
	switch k {
	case FilterLadder:
		return "ladder"
	case FilterSVF:
		return "svf"
	}
	return "off"
}

// ParseFilterKind maps a config name to a FilterKind.
func ParseFilterKind(s string) (FilterKind, bool) {
	for k := FilterOff; k < NumFilterKinds; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return FilterOff, false
}

// Filter is a resonant low-pass whose topology is picked at runtime.
// FilterOff passes the signal through untouched.
type Filter struct {
	kind   FilterKind
	sr     float32
	cutoff float32
	res    float32
	ladder Ladder
	svf    SVF
}

func (f *Filter) Init(sampleRate float32, kind FilterKind) {
	f.sr = sampleRate
	f.kind = kind
	f.cutoff = 1000
	f.res = 0
	f.ladder.Init(sampleRate)
	f.svf.Init(sampleRate)
}

// SetKind switches topology. The new stage starts from a clean state.
func (f *Filter) SetKind(kind FilterKind) {
	if kind >= NumFilterKinds || kind == f.kind {
		return
	}
	f.kind = kind
	f.Reset()
	f.SetFreq(f.cutoff)
	f.SetRes(f.res)
}

// Reset clears the internal state of both topologies.
func (f *Filter) Reset() {
	f.ladder.Reset()
	f.svf.Reset()
}

func (f *Filter) Kind() FilterKind { return f.kind }
func (f *Filter) Freq() float32 { return f.cutoff }
func (f *Filter) Res() float32 { return f.res }

func (f *Filter) SetFreq(hz float32) {
	f.cutoff = clampCutoff(hz, f.sr)
	switch f.kind {
	case FilterLadder:
		f.ladder.SetFreq(f.cutoff)
	case FilterSVF:
		f.svf.SetFreq(f.cutoff)
	}
}

func (f *Filter) SetRes(r float32) {
	f.res = clamp(r, 0, MaxResonance)
	switch f.kind {
	case FilterLadder:
		f.ladder.SetRes(f.res)
	case FilterSVF:
		f.svf.SetRes(f.res)
	}
}

// Process filters one sample and returns the low-pass output.
func (f *Filter) Process(in float32) float32 {
	switch f.kind {
	case FilterLadder:
		return f.ladder.Process(in)
	case FilterSVF:
		return f.svf.Process(in)
	}
	return in
}

// ProcessBlock filters buf in place. cutoff, when non-nil, holds one cutoff
// frequency per sample.
func (f *Filter) ProcessBlock(buf, cutoff []float32) {
	if f.kind == FilterOff {
		return
	}
	for i := range buf {
		if cutoff != nil && cutoff[i] != f.cutoff {
			f.SetFreq(cutoff[i])
		}
		buf[i] = f.Process(buf[i])
	}
}

func clampCutoff(hz, sr float32) float32 {
	return clamp(hz, minCutoff, sr*maxCutoffSR)
}

// Ladder is a four-pole Moog-style low-pass (musicdsp "variation 2") with a
// soft-clipped feedback path.
type Ladder struct {
	sr   float32
	f    float32
	fb   float32
	res  float32
	in   [4]float32
	out  [4]float32
	gain float32
}

func (l *Ladder) Init(sampleRate float32) {
	l.sr = sampleRate
	l.Reset()
	l.SetFreq(1000)
	l.SetRes(0)
}

func (l *Ladder) Reset() {
	l.in = [4]float32{}
	l.out = [4]float32{}
}

func (l *Ladder) SetFreq(hz float32) {
	fc := clampCutoff(hz, l.sr) / (l.sr * 0.5)
	l.f = min(fc*1.16, 1)
	l.gain = 0.35013 * (l.f * l.f) * (l.f * l.f)
	l.fb = l.res * 4 * (1 - 0.15*l.f*l.f)
}

func (l *Ladder) SetRes(r float32) {
	l.res = clamp(r, 0, MaxResonance)
	l.fb = l.res * 4 * (1 - 0.15*l.f*l.f)
}

func (l *Ladder) Process(in float32) float32 {
	x := math32.Tanh(in - l.out[3]*l.fb)
	x *= l.gain
	damp := 1 - l.f
	l.out[0] = x + 0.3*l.in[0] + damp*l.out[0]
	l.in[0] = x
	l.out[1] = l.out[0] + 0.3*l.in[1] + damp*l.out[1]
	l.in[1] = l.out[0]
	l.out[2] = l.out[1] + 0.3*l.in[2] + damp*l.out[2]
	l.in[2] = l.out[1]
	l.out[3] = l.out[2] + 0.3*l.in[3] + damp*l.out[3]
	l.in[3] = l.out[2]
	return l.out[3]
}

// SVF is a zero-delay-feedback state-variable filter. Process returns the
// low-pass tap; the other taps are read back afterwards.
type SVF struct {
	sr         float32
	g, k       float32
	a1, a2, a3 float32
	ic1, ic2   float32
	low, band  float32
	high       float32
}

func (s *SVF) Init(sampleRate float32) {
	s.sr = sampleRate
	s.Reset()
	s.k = 2
	s.SetFreq(1000)
}

func (s *SVF) Reset() {
	s.ic1, s.ic2 = 0, 0
	s.low, s.band, s.high = 0, 0, 0
}

func (s *SVF) SetFreq(hz float32) {
	s.g = math32.Tan(math32.Pi * clampCutoff(hz, s.sr) / s.sr)
	s.update()
}

// SetRes maps normalized resonance onto damping k = 2 - 2r.
func (s *SVF) SetRes(r float32) {
	s.k = 2 - 2*clamp(r, 0, MaxResonance)
	s.update()
}

func (s *SVF) update() {
	s.a1 = 1 / (1 + s.g*(s.g+s.k))
	s.a2 = s.g * s.a1
	s.a3 = s.g * s.a2
}

func (s *SVF) Process(in float32) float32 {
	v3 := in - s.ic2
	v1 := s.a1*s.ic1 + s.a2*v3
	v2 := s.ic2 + s.a2*s.ic1 + s.a3*v3
	s.ic1 = 2*v1 - s.ic1
	s.ic2 = 2*v2 - s.ic2
	s.low = v2
	s.band = v1
	s.high = in - s.k*v1 - v2
	return s.low
}

func (s *SVF) Low() float32 { return s.low }
func (s *SVF) Band() float32 { return s.band }
func (s *SVF) High() float32 { return s.high }
