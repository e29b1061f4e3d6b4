package dsp

// EnvStage is the current segment of an Envelope.
type EnvStage uint8

const (
	EnvIdle EnvStage = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

func (s EnvStage) String() string {
	switch s {
	case EnvAttack:
		return "attack"
	case EnvDecay:
		return "decay"
	case EnvSustain:
		return "sustain"
	case EnvRelease:
		return "release"
	}
	return "idle"
}

// EnvMode selects between a gated ADSR and a one-shot AD contour.
type EnvMode uint8

const (
	EnvADSR EnvMode = iota
	EnvAD
)

// levels below this count as silence when releasing
const envFloor = 1e-4

// Envelope is a linear-segment ADSR generator driven by a gate.
type Envelope struct {
	sr   float32
	mode EnvMode

	attack  float32 // seconds
	decay   float32
	sustain float32 // level
	release float32

	// segment lengths in samples, < 1 means the segment is instantaneous
	attackLen  float32
	decayLen   float32
	releaseLen float32

	releaseStep float32
	level       float32
	stage       EnvStage
	gate        bool
}

// Init sets the sample rate and loads the default contour.
func (e *Envelope) Init(sampleRate float32) {
	e.sr = sampleRate
	e.mode = EnvADSR
	e.stage = EnvIdle
	e.level = 0
	e.gate = false
	e.SetAttackTime(0.1)
	e.SetDecayTime(0.1)
	e.SetSustainLevel(0.7)
	e.SetReleaseTime(0.1)
}

func (e *Envelope) SetMode(m EnvMode) { e.mode = m }

func (e *Envelope) SetAttackTime(sec float32) {
	e.attack = max(sec, 0)
	e.attackLen = e.attack * e.sr
}

func (e *Envelope) SetDecayTime(sec float32) {
	e.decay = max(sec, 0)
	e.decayLen = e.decay * e.sr
}

// SetSustainLevel clamps to [0, 1].
func (e *Envelope) SetSustainLevel(level float32) {
	e.sustain = clamp01(level)
}

// SetReleaseTime also rescales a release that is already under way.
func (e *Envelope) SetReleaseTime(sec float32) {
	e.release = max(sec, 0)
	e.releaseLen = e.release * e.sr
	if e.stage == EnvRelease {
		e.beginRelease()
	}
}

func (e *Envelope) AttackTime() float32 { return e.attack }
func (e *Envelope) DecayTime() float32 { return e.decay }
func (e *Envelope) SustainLevel() float32 { return e.sustain }
func (e *Envelope) ReleaseTime() float32 { return e.release }
func (e *Envelope) Stage() EnvStage { return e.stage }
func (e *Envelope) Value() float32 { return e.level }

// IsRunning reports whether the envelope is anywhere but Idle.
func (e *Envelope) IsRunning() bool { return e.stage != EnvIdle }

// Reset silences the envelope immediately.
func (e *Envelope) Reset() {
	e.level = 0
	e.stage = EnvIdle
	e.gate = false
}

// Retrigger enters the attack as if the gate had just opened. A hard
// retrigger restarts from zero instead of the current level.
func (e *Envelope) Retrigger(hard bool) {
	if hard {
		e.level = 0
	}
	e.stage = EnvAttack
	e.gate = true
}

func (e *Envelope) beginRelease() {
	if e.releaseLen < 1 {
		e.level = 0
		e.stage = EnvIdle
		return
	}
	e.releaseStep = e.level / e.releaseLen
	e.stage = EnvRelease
}

// Process advances one sample and returns the level in [0, 1].
func (e *Envelope) Process(gate bool) float32 {
	if gate && !e.gate {
		e.stage = EnvAttack
	} else if !gate && e.gate && e.mode == EnvADSR && e.stage != EnvIdle {
		e.beginRelease()
	}
	e.gate = gate

	switch e.stage {
	case EnvAttack:
		if e.attackLen < 1 {
			e.level = 1
		} else {
			e.level += 1 / e.attackLen
		}
		if e.level >= 1 {
			e.level = 1
			e.stage = EnvDecay
			if e.decayLen < 1 {
				e.endDecay()
			}
		}
	case EnvDecay:
		target := e.decayTarget()
		if e.decayLen < 1 {
			e.endDecay()
			break
		}
		e.level -= (1 - target) / e.decayLen
		if e.level <= target {
			e.endDecay()
		}
	case EnvSustain:
		e.level = e.sustain
	case EnvRelease:
		e.level -= e.releaseStep
		if e.level <= envFloor {
			e.level = 0
			e.stage = EnvIdle
		}
	}
	return e.level
}

// ProcessBlock writes one level per sample of out with a constant gate.
func (e *Envelope) ProcessBlock(out []float32, gate bool) {
	for i := range out {
		out[i] = e.Process(gate)
	}
}

func (e *Envelope) decayTarget() float32 {
	if e.mode == EnvAD {
		return 0
	}
	return e.sustain
}

func (e *Envelope) endDecay() {
	if e.mode == EnvAD {
		e.level = 0
		e.stage = EnvIdle
		return
	}
	e.level = e.sustain
	e.stage = EnvSustain
}
