package audio

import "encoding/binary"

// FloatToInt16 converts a sample in [-1, 1] to 16-bit PCM, clipping
// anything outside.
func FloatToInt16(s float32) int16 {
	s = max(min(s, 1), -1)
	return int16(s * 32767)
}

// PutInt16LE writes samples as little-endian 16-bit PCM. dst must hold at
// least 2*len(samples) bytes.
func PutInt16LE(dst []byte, samples []float32) {
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(FloatToInt16(s)))
	}
}
