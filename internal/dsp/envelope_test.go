package dsp

import (
	"math"
	"testing"
)

func newEnv(sr, a, d, s, r float32) *Envelope {
	var e Envelope
	e.Init(sr)
	e.SetAttackTime(a)
	e.SetDecayTime(d)
	e.SetSustainLevel(s)
	e.SetReleaseTime(r)
	return &e
}

func TestEnvelopeInstantSegments(t *testing.T) {
	e := newEnv(48000, 0, 0, 1, 0)
	if e.IsRunning() {
		t.Fatal("Expected fresh envelope to be idle")
	}
	if v := e.Process(true); v != 1 {
		t.Errorf("Expected full level on the first sample, got %v", v)
	}
	if e.Stage() != EnvSustain {
		t.Errorf("Expected sustain stage, got %v", e.Stage())
	}
	if v := e.Process(false); v != 0 || e.IsRunning() {
		t.Errorf("Expected zero release to end immediately, got level %v stage %v", v, e.Stage())
	}
}

func TestEnvelopeAttackTiming(t *testing.T) {
	e := newEnv(1000, 0.01, 0.01, 0.5, 0.01)
	var v float32
	for i := 0; i < 10; i++ {
		v = e.Process(true)
	}
	if math.Abs(float64(v)-1) > 1e-4 {
		t.Errorf("Expected attack to peak after 10 samples, got %v", v)
	}
	for i := 0; i < 13; i++ {
		v = e.Process(true)
	}
	if e.Stage() != EnvSustain || v != 0.5 {
		t.Errorf("Expected sustain at 0.5, got %v in %v", v, e.Stage())
	}
}

func TestEnvelopeReleaseFromCurrentLevel(t *testing.T) {
	e := newEnv(1000, 1, 0.1, 1, 0.1)
	var level float32
	for i := 0; i < 100; i++ {
		level = e.Process(true)
	}
	if level < 0.09 || level > 0.11 {
		t.Fatalf("Expected partial attack level ~0.1, got %v", level)
	}

	prev := level
	samples := 0
	for e.IsRunning() {
		v := e.Process(false)
		samples++
		if v > prev || v < 0 {
			t.Fatalf("Release not monotonic: %v after %v", v, prev)
		}
		prev = v
		if samples > 200 {
			t.Fatal("Release did not finish")
		}
	}
	if samples < 95 || samples > 101 {
		t.Errorf("Expected release to take ~100 samples, took %d", samples)
	}
}

func TestEnvelopeRetrigger(t *testing.T) {
	e := newEnv(1000, 0.1, 0.1, 0.5, 0.1)
	for i := 0; i < 50; i++ {
		e.Process(true)
	}
	soft := e.Value()
	e.Retrigger(false)
	if e.Stage() != EnvAttack || e.Value() != soft {
		t.Errorf("Soft retrigger should keep level %v, got %v in %v", soft, e.Value(), e.Stage())
	}
	e.Retrigger(true)
	if e.Value() != 0 {
		t.Errorf("Hard retrigger should restart from 0, got %v", e.Value())
	}

	// a retrigger followed by gate-off before any sample still releases
	e = newEnv(1000, 0.1, 0.1, 0.5, 0)
	e.Retrigger(true)
	e.Process(false)
	if e.IsRunning() {
		t.Errorf("Expected idle after gate-off with zero release, got %v", e.Stage())
	}
}

func TestEnvelopeADMode(t *testing.T) {
	e := newEnv(1000, 0.005, 0.005, 0.8, 1)
	e.SetMode(EnvAD)
	e.Process(true)
	n := 1
	for e.IsRunning() && n < 100 {
		e.Process(false)
		n++
	}
	if e.IsRunning() {
		t.Fatal("Expected AD envelope to finish on its own")
	}
	if n > 12 {
		t.Errorf("Expected AD contour to take ~10 samples, took %d", n)
	}
}

func TestSustainClamped(t *testing.T) {
	e := newEnv(48000, 0, 0, 2, 0)
	if e.SustainLevel() != 1 {
		t.Errorf("Expected sustain clamped to 1, got %v", e.SustainLevel())
	}
	e.SetSustainLevel(-0.5)
	if e.SustainLevel() != 0 {
		t.Errorf("Expected sustain clamped to 0, got %v", e.SustainLevel())
	}
}

func TestEnvelopeBlock(t *testing.T) {
	a := newEnv(48000, 0.001, 0.002, 0.6, 0.003)
	b := newEnv(48000, 0.001, 0.002, 0.6, 0.003)
	buf := make([]float32, 256)
	b.ProcessBlock(buf, true)
	for i, got := range buf {
		if want := a.Process(true); got != want {
			t.Fatalf("sample %d: block=%v per-sample=%v", i, got, want)
		}
	}
}
