package dsp

import "github.com/chewxy/math32"

const (
	sinLUTSize  = 2048
	sinLUTMask  = sinLUTSize - 1
	sinLUTScale = float32(sinLUTSize) / twoPi
)

// sinLUT holds one cycle of sine; block rendering interpolates into it.
var sinLUT [sinLUTSize + 1]float32

func init() {
	for i := range sinLUT {
		sinLUT[i] = math32.Sin(float32(i) * twoPi / sinLUTSize)
	}
}

// sinLookup expects phase in [0, 2π).
func sinLookup(phase float32) float32 {
	idx := phase * sinLUTScale
	i := int(idx)
	frac := idx - float32(i)
	i &= sinLUTMask
	return sinLUT[i] + frac*(sinLUT[i+1]-sinLUT[i])
}
