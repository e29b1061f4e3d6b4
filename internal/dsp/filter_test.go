package dsp

import (
	"math"
	"testing"
)

func newFilter(kind FilterKind, cutoff, res float32) *Filter {
	var f Filter
	f.Init(48000, kind)
	f.SetFreq(cutoff)
	f.SetRes(res)
	return &f
}

func rms(buf []float32) float64 {
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestFilterPassesDC(t *testing.T) {
	for _, kind := range []FilterKind{FilterLadder, FilterSVF} {
		f := newFilter(kind, 1000, 0)
		var out float32
		for i := 0; i < 10000; i++ {
			out = f.Process(0.1)
		}
		if math.Abs(float64(out)-0.1) > 0.005 {
			t.Errorf("%v: expected DC to pass at ~0.1, got %v", kind, out)
		}
	}
}

func TestFilterAttenuatesAboveCutoff(t *testing.T) {
	for _, kind := range []FilterKind{FilterLadder, FilterSVF} {
		f := newFilter(kind, 200, 0.2)
		in := make([]float32, 4800)
		var osc Oscillator
		osc.Init(48000)
		osc.SetAmp(1)
		osc.SetFreq(8000)
		osc.ProcessBlock(in, nil, nil, nil, false)
		inRMS := rms(in)

		f.ProcessBlock(in, nil)
		if got := rms(in[2400:]); got > inRMS*0.05 {
			t.Errorf("%v: expected 8kHz to be attenuated below 5%%, got rms %v of %v", kind, got, inRMS)
		}
	}
}

func TestResonanceClamped(t *testing.T) {
	for _, kind := range []FilterKind{FilterLadder, FilterSVF} {
		f := newFilter(kind, 2000, 5)
		if f.Res() != MaxResonance {
			t.Errorf("%v: expected resonance clamped to %v, got %v", kind, MaxResonance, f.Res())
		}

		var n WhiteNoise
		n.Init()
		for i := 0; i < 48000; i++ {
			v := f.Process(n.Process())
			if math.IsNaN(float64(v)) || math.Abs(float64(v)) > 20 {
				t.Fatalf("%v: unstable output %v at sample %d", kind, v, i)
			}
		}
	}
}

func TestCutoffClamped(t *testing.T) {
	f := newFilter(FilterSVF, 100000, 0)
	if f.Freq() > 48000*maxCutoffSR {
		t.Errorf("Expected cutoff below Nyquist, got %v", f.Freq())
	}
	f.SetFreq(-5)
	if f.Freq() != minCutoff {
		t.Errorf("Expected cutoff floor %v, got %v", minCutoff, f.Freq())
	}
}

func TestSVFTaps(t *testing.T) {
	var s SVF
	s.Init(48000)
	s.SetFreq(1500)
	s.SetRes(0.5)
	var n WhiteNoise
	n.Init()
	for i := 0; i < 1000; i++ {
		in := n.Process()
		low := s.Process(in)
		if low != s.Low() {
			t.Fatalf("Process should return the low tap")
		}
		sum := s.Low() + s.k*s.Band() + s.High()
		if math.Abs(float64(sum-in)) > 1e-5 {
			t.Fatalf("sample %d: low + k*band + high = %v, want %v", i, sum, in)
		}
	}
}

func TestFilterBlockCutoffVector(t *testing.T) {
	a := newFilter(FilterLadder, 500, 0.5)
	b := newFilter(FilterLadder, 500, 0.5)
	in := make([]float32, 128)
	cut := make([]float32, 128)
	var n WhiteNoise
	n.Init()
	for i := range in {
		in[i] = n.Process()
		cut[i] = 200 + float32(i)*50
	}
	want := make([]float32, len(in))
	for i := range in {
		a.SetFreq(cut[i])
		want[i] = a.Process(in[i])
	}
	b.ProcessBlock(in, cut)
	for i := range in {
		if in[i] != want[i] {
			t.Fatalf("sample %d: block %v, per-sample %v", i, in[i], want[i])
		}
	}
}

func TestFilterOffPassesThrough(t *testing.T) {
	f := newFilter(FilterOff, 100, 0.9)
	for _, v := range []float32{-1, 0, 0.3, 1} {
		if got := f.Process(v); got != v {
			t.Errorf("Expected passthrough %v, got %v", v, got)
		}
	}
}

func TestParseFilterKind(t *testing.T) {
	tests := []struct {
		in   string
		want FilterKind
		ok   bool
	}{
		{"ladder", FilterLadder, true},
		{"svf", FilterSVF, true},
		{"off", FilterOff, true},
		{"comb", FilterOff, false},
	}
	for _, tt := range tests {
		got, ok := ParseFilterKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFilterKind(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
