package synth

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/danielkinahan/dualie/internal/dsp"
	"github.com/viterin/vek/vek32"
)

var debug = debuggo.Debug("dualie:engine")

// Options configures an Engine. Zero fields take the value from
// DefaultOptions.
type Options struct {
	SampleRate  int
	BlockSize   int
	Voices      int
	QueueSize   int
	Filter      dsp.FilterKind
	CutoffCurve CutoffCurve
	// CCMap routes MIDI controllers to panel parameters.
	CCMap map[uint8]ParamID
	// Params overrides panel defaults with raw values.
	Params map[ParamID]uint8
}

func DefaultOptions() Options {
	return Options{
		SampleRate:  48000,
		BlockSize:   16,
		Voices:      24,
		QueueSize:   256,
		Filter:      dsp.FilterLadder,
		CutoffCurve: CutoffLinear,
		CCMap:       DefaultCCMap(),
	}
}

// DefaultCCMap follows the General MIDI sound controller assignments where
// they exist and fills the gaps from CC 80 up.
func DefaultCCMap() map[uint8]ParamID {
	return map[uint8]ParamID{
		1:   ParamLFOPitch,
		7:   ParamMaster,
		70:  ParamOscWave,
		71:  ParamResonance,
		72:  ParamRelease,
		73:  ParamAttack,
		74:  ParamCutoff,
		75:  ParamDecay,
		76:  ParamLFORate,
		77:  ParamLFOCutoff,
		78:  ParamFilterEnv,
		79:  ParamSustain,
		80:  ParamOsc2Wave,
		81:  ParamMix,
		82:  ParamNoise,
		83:  ParamFMDepth,
		84:  ParamDetuneCoarse,
		85:  ParamDetuneFine,
		86:  ParamPulseWidth,
		87:  ParamSync,
		88:  ParamTracking,
		89:  ParamLFOWave,
		90:  ParamLFOPW,
		91:  ParamReverb,
		92:  ParamDrive,
		102: ParamFAttack,
		103: ParamFDecay,
		104: ParamFSustain,
		105: ParamFRelease,
	}
}

const (
	ccAllSoundOff = 120
	ccAllNotesOff = 123
)

// Engine is the complete instrument: a voice pool behind an event queue,
// followed by the master chain.
//
// Send may be called from one control goroutine while a single audio
// goroutine calls Render. Everything else on the audio side (Panel, Manager,
// effects) is touched only from Render, Process and Dispatch.
type Engine struct {
	sampleRate int
	blockSize  int

	queue chan Event
	ccMap map[uint8]ParamID

	panel   *Panel
	manager *Manager
	drive   dsp.Drive
	reverb  *dsp.Reverb
	master  float32

	mono []float32

	// mirrors for Snapshot, written by the audio side
	dropped atomic.Uint64
	active  atomic.Int32
	peak    atomic.Uint32
	raw     [NumParams]atomic.Uint32
	voices  []atomic.Uint32
}

// NewEngine validates opts and allocates everything the audio path needs.
func NewEngine(opts Options) (*Engine, error) {
	def := DefaultOptions()
	if opts.SampleRate == 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = def.BlockSize
	}
	if opts.Voices == 0 {
		opts.Voices = def.Voices
	}
	if opts.QueueSize == 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.CCMap == nil {
		opts.CCMap = def.CCMap
	}
	switch {
	case opts.SampleRate < 0:
		return nil, fmt.Errorf("sample rate %d must be positive", opts.SampleRate)
	case opts.BlockSize < 0 || opts.BlockSize > MaxBlockSize:
		return nil, fmt.Errorf("block size %d out of range 1..%d", opts.BlockSize, MaxBlockSize)
	case opts.Voices < 0:
		return nil, fmt.Errorf("voice count %d must be positive", opts.Voices)
	case opts.QueueSize < 0:
		return nil, fmt.Errorf("queue size %d must be positive", opts.QueueSize)
	case opts.Filter >= dsp.NumFilterKinds:
		return nil, fmt.Errorf("unknown filter kind %d", opts.Filter)
	}

	panel := NewPanel(opts.CutoffCurve)
	for id, raw := range opts.Params {
		if !id.Valid() {
			return nil, fmt.Errorf("initial value: %w: param %d", ErrInvalidEvent, id)
		}
		panel.Set(id, int(raw))
	}

	ccMap := make(map[uint8]ParamID, len(opts.CCMap))
	for cc, id := range opts.CCMap {
		if cc > 127 || !id.Valid() {
			return nil, fmt.Errorf("cc map entry %d -> %d: %w", cc, id, ErrInvalidEvent)
		}
		ccMap[cc] = id
	}

	sr := float32(opts.SampleRate)
	e := &Engine{
		sampleRate: opts.SampleRate,
		blockSize:  opts.BlockSize,
		queue:      make(chan Event, opts.QueueSize),
		ccMap:      ccMap,
		panel:      panel,
		manager:    NewManager(opts.Voices, sr, opts.Filter, panel),
		reverb:     dsp.NewReverb(sr),
		mono:       make([]float32, opts.BlockSize),
		voices:     make([]atomic.Uint32, opts.Voices),
	}
	e.applyMaster(ParamDrive)
	e.applyMaster(ParamReverb)
	e.applyMaster(ParamMaster)
	e.publish(nil)

	debug("engine: %d Hz, block %d, %d voices, filter %s, queue %d",
		opts.SampleRate, opts.BlockSize, opts.Voices, opts.Filter, opts.QueueSize)
	return e, nil
}

func (e *Engine) SampleRate() int { return e.sampleRate }
func (e *Engine) BlockSize() int  { return e.blockSize }
func (e *Engine) NumVoices() int  { return e.manager.NumVoices() }

// CCMap returns a copy of the controller routing.
func (e *Engine) CCMap() map[uint8]ParamID {
	m := make(map[uint8]ParamID, len(e.ccMap))
	for k, v := range e.ccMap {
		m[k] = v
	}
	return m
}

// Send queues ev for the next block. It never blocks: when the queue is
// full the event is dropped and ErrQueueFull returned.
func (e *Engine) Send(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	select {
	case e.queue <- ev:
		return nil
	default:
		n := e.dropped.Add(1)
		debug("queue full, dropped %s (%d total)", ev, n)
		return ErrQueueFull
	}
}

// Dispatch applies ev immediately. It must only be called from the goroutine
// that renders audio.
func (e *Engine) Dispatch(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	e.apply(ev)
	return nil
}

func (e *Engine) drain() {
	for range cap(e.queue) {
		select {
		case ev := <-e.queue:
			e.apply(ev)
		default:
			return
		}
	}
}

func (e *Engine) apply(ev Event) {
	switch ev.Kind {
	case EventNoteOn:
		if !e.manager.OnNoteOn(ev.Note, ev.Velocity) {
			e.dropped.Add(1)
		}
	case EventNoteOff:
		e.manager.OnNoteOff(ev.Note)
	case EventControlChange:
		switch ev.Controller {
		case ccAllSoundOff:
			e.manager.AllSoundOff()
			return
		case ccAllNotesOff:
			e.manager.AllNotesOff()
			return
		}
		if id, ok := e.ccMap[ev.Controller]; ok {
			e.setParam(id, int(ev.Value))
		}
	case EventParamSet:
		e.setParam(ev.Param, int(ev.Value))
	case EventParamNudge:
		if e.panel.Nudge(ev.Param, ev.Delta) {
			e.updateParam(ev.Param)
		}
	case EventPitchBend:
		e.manager.PitchBend(float32(ev.Bend) / 8192)
	case EventAllNotesOff:
		e.manager.AllNotesOff()
	case EventAllSoundOff:
		e.manager.AllSoundOff()
	}
}

func (e *Engine) setParam(id ParamID, raw int) {
	if e.panel.Set(id, raw) {
		e.updateParam(id)
	}
}

func (e *Engine) updateParam(id ParamID) {
	switch id {
	case ParamDrive, ParamReverb, ParamMaster:
		e.applyMaster(id)
	default:
		e.manager.SetParam(id, e.panel.Value(id))
	}
}

func (e *Engine) applyMaster(id ParamID) {
	v := e.panel.Value(id)
	switch id {
	case ParamDrive:
		e.drive.SetAmount(v)
	case ParamReverb:
		e.reverb.SetMix(v)
	case ParamMaster:
		e.master = v
	}
}

// Process drains pending events and returns one output sample.
func (e *Engine) Process() float32 {
	e.drain()
	s := e.manager.Process()
	s = e.drive.Process(s)
	s = e.reverb.Process(s)
	s = max(min(s*e.master, 1), -1)
	return s
}

// Render fills out with mono samples, draining the queue before each block.
func (e *Engine) Render(out []float32) {
	for len(out) > 0 {
		n := min(len(out), e.blockSize)
		e.renderBlock(out[:n])
		out = out[n:]
	}
}

// RenderInterleaved fills out with frames of the given channel count, the
// same signal on every channel. Samples past the last whole frame are zeroed.
func (e *Engine) RenderInterleaved(out []float32, channels int) {
	if channels <= 1 {
		e.Render(out)
		return
	}
	frames := len(out) / channels
	for frames > 0 {
		n := min(frames, e.blockSize)
		buf := e.mono[:n]
		e.renderBlock(buf)
		for i, s := range buf {
			for c := range channels {
				out[i*channels+c] = s
			}
		}
		out = out[n*channels:]
		frames -= n
	}
	// partial trailing frame
	clear(out)
}

func (e *Engine) renderBlock(buf []float32) {
	e.drain()
	e.manager.ProcessBlock(buf)
	e.drive.ProcessBlock(buf)
	e.reverb.ProcessBlock(buf)
	vek32.MulNumber_Inplace(buf, e.master)
	for i, s := range buf {
		buf[i] = max(min(s, 1), -1)
	}
	e.publish(buf)
}

func (e *Engine) publish(buf []float32) {
	e.active.Store(int32(e.manager.ActiveCount()))
	for id := ParamID(0); id < NumParams; id++ {
		e.raw[id].Store(uint32(e.panel.Raw(id)))
	}
	for i := range e.voices {
		v := e.manager.Voice(i)
		var st uint32
		if v.IsActive() {
			st = 1 << 16
		}
		st |= uint32(v.Stage())<<8 | uint32(v.Note())
		e.voices[i].Store(st)
	}
	if len(buf) > 0 {
		peak := max(vek32.Max(buf), -vek32.Min(buf))
		e.peak.Store(math.Float32bits(peak))
	}
}

// VoiceState is the published view of one voice.
type VoiceState struct {
	Active bool
	Note   uint8
	Stage  dsp.EnvStage
}

// Snapshot is a consistent-enough view of the engine for display. Each
// field is read atomically; fields may come from adjacent blocks.
type Snapshot struct {
	Active  int
	Voices  []VoiceState
	Raw     [NumParams]uint8
	Dropped uint64
	Peak    float32
}

// Snapshot reads the mirrors published after the last rendered block. It is
// safe to call from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Active:  int(e.active.Load()),
		Voices:  make([]VoiceState, len(e.voices)),
		Dropped: e.dropped.Load(),
		Peak:    math.Float32frombits(e.peak.Load()),
	}
	for id := range s.Raw {
		s.Raw[id] = uint8(e.raw[id].Load())
	}
	for i := range e.voices {
		st := e.voices[i].Load()
		s.Voices[i] = VoiceState{
			Active: st&(1<<16) != 0,
			Note:   uint8(st),
			Stage:  dsp.EnvStage(st >> 8),
		}
	}
	return s
}
