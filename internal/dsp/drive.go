package dsp

import "github.com/chewxy/math32"

// Drive is a tanh waveshaper normalized so that full scale stays full scale.
type Drive struct {
	amount float32
	gain   float32
	norm   float32
}

// SetAmount sets the extra gain into the shaper; 0 bypasses it.
func (d *Drive) SetAmount(a float32) {
	d.amount = max(a, 0)
	d.gain = 1 + d.amount
	d.norm = 1 / math32.Tanh(d.gain)
}

func (d *Drive) Amount() float32 { return d.amount }

func (d *Drive) Process(in float32) float32 {
	if d.amount == 0 {
		return in
	}
	return math32.Tanh(in*d.gain) * d.norm
}

func (d *Drive) ProcessBlock(buf []float32) {
	if d.amount == 0 {
		return
	}
	for i := range buf {
		buf[i] = math32.Tanh(buf[i]*d.gain) * d.norm
	}
}
