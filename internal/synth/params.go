package synth

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// ParamID is a stable index into the parameter panel.
type ParamID uint8

const (
	ParamOscWave ParamID = iota
	ParamOsc2Wave
	ParamPulseWidth
	ParamFMDepth
	ParamDetuneCoarse
	ParamDetuneFine
	ParamSync
	ParamNoise
	ParamMix
	ParamCutoff
	ParamResonance
	ParamFilterEnv
	ParamTracking
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamFAttack
	ParamFDecay
	ParamFSustain
	ParamFRelease
	ParamLFOWave
	ParamLFORate
	ParamLFOCutoff
	ParamLFOPitch
	ParamLFOPW
	ParamDrive
	ParamReverb
	ParamMaster
	NumParams
)

// CutoffCurve selects how ParamCutoff maps raw values to Hz.
type CutoffCurve uint8

const (
	// CutoffLinear is raw * 174 Hz.
	CutoffLinear CutoffCurve = iota
	// CutoffSaturating is Vmax * raw / (Km + raw), reaching 20 kHz at 127.
	CutoffSaturating
)

const (
	cutoffLinearHz = 174
	cutoffKm       = 32
	cutoffTopHz    = 20000
	cutoffVmax     = cutoffTopHz * (127 + cutoffKm) / 127.0
)

func ParseCutoffCurve(s string) (CutoffCurve, bool) {
	switch s {
	case "linear", "":
		return CutoffLinear, true
	case "saturating":
		return CutoffSaturating, true
	}
	return CutoffLinear, false
}

func (c CutoffCurve) String() string {
	if c == CutoffSaturating {
		return "saturating"
	}
	return "linear"
}

// ParamSpec documents one panel entry.
type ParamSpec struct {
	Name    string
	Label   string
	Unit    string
	Default uint8
}

var paramSpecs = [NumParams]ParamSpec{
	ParamOscWave:      {"osc_wave", "Osc 1 wave", "", 80},
	ParamOsc2Wave:     {"osc2_wave", "Osc 2 wave", "", 112},
	ParamPulseWidth:   {"pulse_width", "Pulse width", "", 64},
	ParamFMDepth:      {"fm_depth", "FM depth", "", 0},
	ParamDetuneCoarse: {"detune_coarse", "Detune", "st", 64},
	ParamDetuneFine:   {"detune_fine", "Fine tune", "ct", 70},
	ParamSync:         {"sync", "Hard sync", "", 0},
	ParamNoise:        {"noise", "Noise", "", 0},
	ParamMix:          {"mix", "Osc mix", "", 0},
	ParamCutoff:       {"cutoff", "Cutoff", "Hz", 40},
	ParamResonance:    {"resonance", "Resonance", "", 20},
	ParamFilterEnv:    {"filter_env", "Filter env", "", 40},
	ParamTracking:     {"tracking", "Key track", "", 64},
	ParamAttack:       {"attack", "Attack", "s", 1},
	ParamDecay:        {"decay", "Decay", "s", 8},
	ParamSustain:      {"sustain", "Sustain", "", 90},
	ParamRelease:      {"release", "Release", "s", 16},
	ParamFAttack:      {"filter_attack", "F attack", "s", 1},
	ParamFDecay:       {"filter_decay", "F decay", "s", 10},
	ParamFSustain:     {"filter_sustain", "F sustain", "", 30},
	ParamFRelease:     {"filter_release", "F release", "s", 16},
	ParamLFOWave:      {"lfo_wave", "LFO wave", "", 0},
	ParamLFORate:      {"lfo_rate", "LFO rate", "Hz", 32},
	ParamLFOCutoff:    {"lfo_cutoff", "LFO>cutoff", "", 0},
	ParamLFOPitch:     {"lfo_pitch", "Vibrato", "", 0},
	ParamLFOPW:        {"lfo_pw", "LFO>PW", "", 0},
	ParamDrive:        {"drive", "Drive", "", 0},
	ParamReverb:       {"reverb", "Reverb", "", 0},
	ParamMaster:       {"master", "Master", "", 25},
}

// Spec returns the description of id. Unknown IDs yield a zero ParamSpec.
func (id ParamID) Spec() ParamSpec {
	if id >= NumParams {
		return ParamSpec{}
	}
	return paramSpecs[id]
}

func (id ParamID) Valid() bool { return id < NumParams }

func (id ParamID) String() string {
	if id >= NumParams {
		return fmt.Sprintf("param(%d)", id)
	}
	return paramSpecs[id].Name
}

// ParamByName resolves a config-style name such as "cutoff".
func ParamByName(name string) (ParamID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id := ParamID(0); id < NumParams; id++ {
		if paramSpecs[id].Name == name {
			return id, true
		}
	}
	return 0, false
}

// centered maps 0..127 onto [-1, 1], with 64 landing just above zero.
func centered(raw uint8) float32 {
	return float32(raw)/63.5 - 1
}

func norm(raw uint8) float32 {
	return float32(raw) / 127
}

// Scale converts a raw controller value into engineering units for id.
func Scale(id ParamID, raw uint8, curve CutoffCurve) float32 {
	raw = min(raw, 127)
	r := float32(raw)
	switch id {
	case ParamOscWave, ParamOsc2Wave:
		return math32.Floor(r * 8 / 128)
	case ParamPulseWidth, ParamFMDepth, ParamNoise, ParamMix,
		ParamFilterEnv, ParamTracking, ParamSustain, ParamFSustain,
		ParamLFOCutoff, ParamLFOPitch, ParamReverb, ParamMaster:
		return norm(raw)
	case ParamDetuneCoarse:
		return math32.Round(centered(raw) * 12)
	case ParamDetuneFine:
		return centered(raw) * 100
	case ParamSync:
		if raw >= 64 {
			return 1
		}
		return 0
	case ParamCutoff:
		if curve == CutoffSaturating {
			return cutoffVmax * r / (cutoffKm + r)
		}
		return r * cutoffLinearHz
	case ParamResonance:
		return r / 134
	case ParamAttack, ParamDecay, ParamFAttack, ParamFDecay:
		return r / 32
	case ParamRelease, ParamFRelease:
		return r / 64
	case ParamLFOWave:
		return math32.Floor(r / 32)
	case ParamLFORate:
		return r / 6.4
	case ParamLFOPW:
		return norm(raw) * 0.5
	case ParamDrive:
		return norm(raw) * 4
	}
	return 0
}

// FormatValue renders a derived value the way the monitor and the params
// command show it.
func FormatValue(id ParamID, v float32) string {
	switch id {
	case ParamOscWave, ParamOsc2Wave:
		return oscWaveform(v).String()
	case ParamLFOWave:
		return lfoWaveform(v).String()
	case ParamSync:
		if v > 0 {
			return "on"
		}
		return "off"
	case ParamDetuneCoarse:
		return fmt.Sprintf("%+.0f st", v)
	case ParamDetuneFine:
		return fmt.Sprintf("%+.1f ct", v)
	case ParamCutoff, ParamLFORate:
		return fmt.Sprintf("%.1f %s", v, id.Spec().Unit)
	case ParamAttack, ParamDecay, ParamRelease, ParamFAttack, ParamFDecay, ParamFRelease:
		return fmt.Sprintf("%.3f s", v)
	}
	return fmt.Sprintf("%.3f", v)
}
