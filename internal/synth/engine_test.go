package synth

import (
	"errors"
	"sync"
	"testing"

	"github.com/danielkinahan/dualie/internal/dsp"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEngineDefaults(t *testing.T) {
	e := newTestEngine(t, Options{})
	if e.SampleRate() != 48000 || e.BlockSize() != 16 || e.NumVoices() != 24 {
		t.Errorf("Expected defaults 48000/16/24, got %d/%d/%d", e.SampleRate(), e.BlockSize(), e.NumVoices())
	}
	if id, ok := e.CCMap()[74]; !ok || id != ParamCutoff {
		t.Errorf("Expected CC 74 to map to cutoff, got %v", id)
	}
}

func TestEngineRejectsBadOptions(t *testing.T) {
	tests := []Options{
		{BlockSize: MaxBlockSize + 1},
		{SampleRate: -1},
		{Filter: dsp.NumFilterKinds},
		{CCMap: map[uint8]ParamID{10: NumParams}},
		{Params: map[ParamID]uint8{NumParams: 1}},
	}
	for i, opts := range tests {
		if _, err := NewEngine(opts); err == nil {
			t.Errorf("Case %d: expected an error", i)
		}
	}
}

func TestEngineSilentWithoutNotes(t *testing.T) {
	e := newTestEngine(t, Options{})
	out := make([]float32, 256)
	e.Render(out)
	for i, s := range out {
		if s != 0 {
			t.Fatalf("Expected silence at %d, got %v", i, s)
		}
	}
}

func TestEngineSendValidates(t *testing.T) {
	e := newTestEngine(t, Options{})
	err := e.Send(NoteOn(200, 10))
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Expected ErrInvalidEvent, got %v", err)
	}
	if err := e.Send(ParamSet(NumParams, 1)); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Expected ErrInvalidEvent for unknown param, got %v", err)
	}
	if err := e.Dispatch(Event{Kind: 99}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Expected ErrInvalidEvent for unknown kind, got %v", err)
	}
}

func TestEngineQueueFull(t *testing.T) {
	e := newTestEngine(t, Options{QueueSize: 2})
	if err := e.Send(NoteOn(60, 100)); err != nil {
		t.Fatal(err)
	}
	if err := e.Send(NoteOn(62, 100)); err != nil {
		t.Fatal(err)
	}
	if err := e.Send(NoteOn(64, 100)); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Expected ErrQueueFull, got %v", err)
	}
	if got := e.Snapshot().Dropped; got != 1 {
		t.Errorf("Expected 1 dropped event, got %d", got)
	}

	e.Render(make([]float32, 16))
	if got := e.Snapshot().Active; got != 2 {
		t.Errorf("Expected 2 active voices after drain, got %d", got)
	}
	if err := e.Send(NoteOn(64, 100)); err != nil {
		t.Errorf("Expected room after the drain, got %v", err)
	}
}

func TestEngineNoteProducesBoundedAudio(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.Send(NoteOn(60, 127))
	e.Send(NoteOn(64, 127))
	e.Send(NoteOn(67, 127))
	out := make([]float32, 4800)
	e.Render(out)
	var peak float32
	for _, s := range out {
		if s > 1 || s < -1 {
			t.Fatalf("Expected output clamped to [-1, 1], got %v", s)
		}
		peak = max(peak, s, -s)
	}
	if peak == 0 {
		t.Error("Expected audible output")
	}
	snap := e.Snapshot()
	if snap.Peak <= 0 {
		t.Errorf("Expected a published peak, got %v", snap.Peak)
	}
	notes := 0
	for _, v := range snap.Voices {
		if v.Active {
			notes++
		}
	}
	if notes != 3 || snap.Active != 3 {
		t.Errorf("Expected 3 active voices, got %d (%d)", notes, snap.Active)
	}
	if !snap.Voices[0].Active || snap.Voices[0].Note != 60 {
		t.Errorf("Expected voice 0 to hold note 60, got %+v", snap.Voices[0])
	}
}

func TestEngineControlChange(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.Send(ControlChange(74, 100))
	e.Send(ControlChange(3, 100)) // unmapped
	e.Send(ParamNudge(ParamResonance, 5))
	e.Render(make([]float32, 16))
	snap := e.Snapshot()
	if snap.Raw[ParamCutoff] != 100 {
		t.Errorf("Expected cutoff raw 100, got %d", snap.Raw[ParamCutoff])
	}
	want := ParamResonance.Spec().Default + 5
	if snap.Raw[ParamResonance] != want {
		t.Errorf("Expected resonance raw %d, got %d", want, snap.Raw[ParamResonance])
	}
}

func TestEngineAllSoundOffCC(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.Dispatch(NoteOn(60, 100))
	e.Dispatch(NoteOn(61, 100))
	e.Render(make([]float32, 64))
	e.Dispatch(ControlChange(120, 0))
	out := make([]float32, 64)
	e.Render(out)
	if got := e.Snapshot().Active; got != 0 {
		t.Errorf("Expected all voices silenced, got %d", got)
	}
	for i, s := range out {
		if s != 0 {
			t.Fatalf("Expected silence at %d, got %v", i, s)
		}
	}
}

func TestEngineAllNotesOffCC(t *testing.T) {
	e := newTestEngine(t, Options{Params: map[ParamID]uint8{ParamRelease: 0}})
	e.Dispatch(NoteOn(60, 100))
	e.Render(make([]float32, 64))
	e.Dispatch(ControlChange(123, 0))
	e.Render(make([]float32, 16))
	if got := e.Snapshot().Active; got != 0 {
		t.Errorf("Expected released voices with zero release to free up, got %d", got)
	}
}

func TestEngineDeterministic(t *testing.T) {
	render := func() []float32 {
		e := newTestEngine(t, Options{Params: map[ParamID]uint8{ParamNoise: 40, ParamReverb: 50, ParamDrive: 30}})
		e.Dispatch(NoteOn(57, 110))
		out := make([]float32, 2048)
		e.Render(out[:1000])
		e.Dispatch(NoteOff(57, 0))
		e.Render(out[1000:])
		return out
	}
	a, b := render(), render()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Expected identical renders, differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEngineRenderInterleaved(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.Dispatch(NoteOn(60, 100))
	out := make([]float32, 2*100)
	e.RenderInterleaved(out, 2)
	for i := 0; i < len(out); i += 2 {
		if out[i] != out[i+1] {
			t.Fatalf("Expected identical channels at frame %d", i/2)
		}
	}
}

func TestEngineProcessMatchesRender(t *testing.T) {
	opts := Options{BlockSize: 1, Filter: dsp.FilterOff}
	a := newTestEngine(t, opts)
	b := newTestEngine(t, opts)
	a.Dispatch(NoteOn(64, 100))
	b.Dispatch(NoteOn(64, 100))
	out := make([]float32, 200)
	b.Render(out)
	for i, got := range out {
		if want := a.Process(); !near(got, want, 1e-4) {
			t.Fatalf("Sample %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestEngineRenderInterleavedZeroesPartialFrame(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.Dispatch(NoteOn(60, 127))
	out := make([]float32, 2*40+1)
	for i := range out {
		out[i] = 7
	}
	e.RenderInterleaved(out, 2)
	if out[len(out)-1] != 0 {
		t.Errorf("Expected the partial frame to be zeroed, got %v", out[len(out)-1])
	}
	for i, s := range out[:len(out)-1] {
		if s == 7 {
			t.Fatalf("Expected sample %d to be rendered", i)
		}
	}
}

func TestEngineConcurrentSendRender(t *testing.T) {
	const iterations = 5000
	e := newTestEngine(t, Options{QueueSize: 64})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range iterations {
			note := uint8(36 + i%48)
			var err error
			switch i % 4 {
			case 0:
				err = e.Send(NoteOn(note, 100))
			case 1:
				err = e.Send(ControlChange(74, uint8(i%128)))
			case 2:
				err = e.Send(ParamNudge(ParamResonance, 1-2*(i%2)))
			default:
				err = e.Send(NoteOff(note-3, 0))
			}
			if err != nil && !errors.Is(err, ErrQueueFull) {
				t.Errorf("Send: %v", err)
				return
			}
			snap := e.Snapshot()
			if snap.Active < 0 || snap.Active > e.NumVoices() {
				t.Errorf("Snapshot active %d out of range", snap.Active)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		out := make([]float32, 2*64)
		for range iterations {
			e.RenderInterleaved(out, 2)
			for _, s := range out {
				if s > 1 || s < -1 {
					t.Errorf("Sample %v out of range", s)
					return
				}
			}
		}
	}()
	wg.Wait()

	e.Render(make([]float32, 16))
	e.Dispatch(Event{Kind: EventAllSoundOff})
	e.Render(make([]float32, 16))
	if got := e.Snapshot().Active; got != 0 {
		t.Errorf("Expected silence after all-sound-off, got %d active", got)
	}
}
