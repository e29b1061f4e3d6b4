package dsp

import (
	"math"
	"testing"
)

func TestWhiteNoiseDeterministic(t *testing.T) {
	var a, b WhiteNoise
	a.Init()
	b.Init()
	b.SetSeed(1)
	var sum float64
	const n = 100000
	for i := 0; i < n; i++ {
		x, y := a.Process(), b.Process()
		if x != y {
			t.Fatalf("sample %d: same seed gave %v and %v", i, x, y)
		}
		if x < -1 || x > 1 {
			t.Fatalf("sample %d out of range: %v", i, x)
		}
		sum += float64(x)
	}
	if mean := sum / n; math.Abs(mean) > 0.02 {
		t.Errorf("Expected mean near 0, got %v", mean)
	}
}

func TestWhiteNoiseZeroSeed(t *testing.T) {
	var n WhiteNoise
	n.Init()
	n.SetSeed(0)
	n.SetAmp(0.5)
	if v := n.Process(); v == 0 {
		t.Error("Zero seed should not lock the generator at 0")
	}
}

func TestReverbBypassAndTail(t *testing.T) {
	r := NewReverb(48000)
	if got := r.Process(0.25); got != 0.25 {
		t.Errorf("Expected bypass at mix 0, got %v", got)
	}

	r.SetMix(0.5)
	r.SetRoomSize(0.8)
	r.SetDamping(0.2)
	buf := make([]float32, 48000)
	buf[0] = 1
	r.ProcessBlock(buf)

	tail := rms(buf[4800:])
	if tail == 0 {
		t.Error("Expected a reverb tail after the impulse")
	}
	for i, v := range buf {
		if math.Abs(float64(v)) > 2 {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
	}

	r.Clear()
	clear(buf)
	r.ProcessBlock(buf)
	if rms(buf) != 0 {
		t.Error("Expected silence after Clear")
	}
}

func TestDrive(t *testing.T) {
	var d Drive
	d.SetAmount(0)
	if got := d.Process(0.7); got != 0.7 {
		t.Errorf("Expected bypass at amount 0, got %v", got)
	}

	d.SetAmount(3)
	if got := d.Process(1); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("Expected full scale to stay at 1, got %v", got)
	}
	if got := d.Process(0.1); got <= 0.1 {
		t.Errorf("Expected small signals to gain level, got %v", got)
	}
	for x := float32(-1); x <= 1; x += 0.01 {
		if got := d.Process(x); got > 1.000001 || got < -1.000001 {
			t.Fatalf("Drive(%v) = %v out of range", x, got)
		}
	}
}
