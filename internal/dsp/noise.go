package dsp

// 1 / 2^31
const noiseScale = 4.6566129e-10

// WhiteNoise is a multiplicative LCG (seed * 16807, wrapping).
type WhiteNoise struct {
	seed int32
	amp  float32
}

func (n *WhiteNoise) Init() {
	n.seed = 1
	n.amp = 1
}

func (n *WhiteNoise) SetAmp(a float32) { n.amp = a }

// SetSeed restarts the sequence. Zero is a fixed point of the generator and
// is replaced by 1.
func (n *WhiteNoise) SetSeed(s int32) {
	if s == 0 {
		s = 1
	}
	n.seed = s
}

// Process returns a sample in [-amp, amp].
func (n *WhiteNoise) Process() float32 {
	n.seed *= 16807
	return float32(n.seed) * noiseScale * n.amp
}

func (n *WhiteNoise) ProcessBlock(out []float32) {
	for i := range out {
		out[i] = n.Process()
	}
}
