package dsp

// Freeverb tuning, in samples at 44.1 kHz.
var (
	combTuning    = [...]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTuning = [...]int{556, 441, 341, 225}
)

const (
	reverbFixedGain  = 0.015
	reverbScaleWet   = 3
	reverbScaleDamp  = 0.4
	reverbScaleRoom  = 0.28
	reverbOffsetRoom = 0.7
	allpassFeedback  = 0.5
)

type comb struct {
	buf         []float32
	idx         int
	feedback    float32
	damp1       float32
	damp2       float32
	filterStore float32
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.idx]
	c.filterStore = out*c.damp2 + c.filterStore*c.damp1
	c.buf[c.idx] = in + c.filterStore*c.feedback
	c.idx++
	if c.idx >= len(c.buf) {
		c.idx = 0
	}
	return out
}

type allpass struct {
	buf []float32
	idx int
}

func (a *allpass) process(in float32) float32 {
	bufout := a.buf[a.idx]
	a.buf[a.idx] = in + bufout*allpassFeedback
	a.idx++
	if a.idx >= len(a.buf) {
		a.idx = 0
	}
	return bufout - in
}

// Reverb is a mono Freeverb. All delay lines are allocated by NewReverb.
type Reverb struct {
	combs     [len(combTuning)]comb
	allpasses [len(allpassTuning)]allpass
	room      float32
	damp      float32
	mix       float32
}

func NewReverb(sampleRate float32) *Reverb {
	r := &Reverb{room: 0.5, damp: 0.5}
	scale := sampleRate / 44100
	for i, n := range combTuning {
		r.combs[i].buf = make([]float32, max(int(float32(n)*scale), 1))
	}
	for i, n := range allpassTuning {
		r.allpasses[i].buf = make([]float32, max(int(float32(n)*scale), 1))
	}
	r.update()
	return r
}

func (r *Reverb) update() {
	fb := r.room*reverbScaleRoom + reverbOffsetRoom
	d := r.damp * reverbScaleDamp
	for i := range r.combs {
		r.combs[i].feedback = fb
		r.combs[i].damp1 = d
		r.combs[i].damp2 = 1 - d
	}
}

// SetRoomSize and SetDamping take normalized [0, 1] values.
func (r *Reverb) SetRoomSize(v float32) {
	r.room = clamp01(v)
	r.update()
}

func (r *Reverb) SetDamping(v float32) {
	r.damp = clamp01(v)
	r.update()
}

// SetMix sets the wet/dry balance. Zero bypasses the reverb entirely.
func (r *Reverb) SetMix(v float32) { r.mix = clamp01(v) }

func (r *Reverb) Mix() float32 { return r.mix }

// Clear empties every delay line.
func (r *Reverb) Clear() {
	for i := range r.combs {
		clear(r.combs[i].buf)
		r.combs[i].filterStore = 0
	}
	for i := range r.allpasses {
		clear(r.allpasses[i].buf)
	}
}

func (r *Reverb) Process(in float32) float32 {
	if r.mix == 0 {
		return in
	}
	x := in * reverbFixedGain
	var wet float32
	for i := range r.combs {
		wet += r.combs[i].process(x)
	}
	for i := range r.allpasses {
		wet = r.allpasses[i].process(wet)
	}
	return in*(1-r.mix) + wet*r.mix*reverbScaleWet
}

// ProcessBlock runs the reverb in place.
func (r *Reverb) ProcessBlock(buf []float32) {
	if r.mix == 0 {
		return
	}
	for i := range buf {
		buf[i] = r.Process(buf[i])
	}
}
