package audio

import (
	"encoding/binary"
	"testing"
)

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-3, -32767},
		{0.5, 16383},
	}
	for _, tt := range tests {
		if got := FloatToInt16(tt.in); got != tt.want {
			t.Errorf("FloatToInt16(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

type rampRenderer struct {
	calls int
	next  float32
}

func (r *rampRenderer) RenderInterleaved(out []float32, channels int) {
	r.calls++
	for i := 0; i < len(out); i += channels {
		for c := range channels {
			out[i+c] = r.next
		}
		r.next += 1.0 / 4096
	}
}

func TestRenderReaderFillsWholeFrames(t *testing.T) {
	src := &rampRenderer{}
	rr := newRenderReader(src, 2)
	buf := make([]byte, 4*(maxChunkFrames+10)+3) // trailing partial frame
	for i := range buf {
		buf[i] = 0xff
	}
	n, err := rr.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Expected full read, got %d, %v", n, err)
	}
	if src.calls != 2 {
		t.Errorf("Expected the read to be split into 2 renders, got %d", src.calls)
	}
	left := int16(binary.LittleEndian.Uint16(buf[4*5:]))
	right := int16(binary.LittleEndian.Uint16(buf[4*5+2:]))
	if left != right || left != FloatToInt16(5.0/4096) {
		t.Errorf("Expected frame 5 to hold %d on both channels, got %d/%d", FloatToInt16(5.0/4096), left, right)
	}
	for _, b := range buf[len(buf)-3:] {
		if b != 0 {
			t.Errorf("Expected the partial frame to be zeroed, got %x", b)
		}
	}
}
