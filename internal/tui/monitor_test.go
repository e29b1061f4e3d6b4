package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/danielkinahan/dualie/internal/synth"
)

type fakeController struct {
	sent []synth.Event
	snap synth.Snapshot
	err  error
}

func (f *fakeController) Send(ev synth.Event) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeController) Snapshot() synth.Snapshot { return f.snap }

func newFake() *fakeController {
	f := &fakeController{}
	for id := synth.ParamID(0); id < synth.NumParams; id++ {
		f.snap.Raw[id] = id.Spec().Default
	}
	f.snap.Voices = make([]synth.VoiceState, 4)
	return f
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMonitorNudgesSelectedParam(t *testing.T) {
	f := newFake()
	m := NewMonitor("test", "virtual", synth.CutoffLinear, f)
	m.Update(key("down"))
	m.Update(key("down"))
	m.Update(key("right"))
	m.Update(key("L"))
	m.Update(key("left"))

	if len(f.sent) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(f.sent))
	}
	want := []int{1, coarseStep, -1}
	for i, ev := range f.sent {
		if ev.Kind != synth.EventParamNudge || ev.Param != synth.ParamID(2) || ev.Delta != want[i] {
			t.Errorf("Event %d: expected nudge of param 2 by %d, got %v", i, want[i], ev)
		}
	}
	wantRaw := synth.ParamID(2).Spec().Default + coarseStep
	if got := m.snap.Raw[2]; got != wantRaw {
		t.Errorf("Expected the local view to show %d, got %d", wantRaw, got)
	}
}

func TestMonitorCursorBounds(t *testing.T) {
	m := NewMonitor("test", "virtual", synth.CutoffLinear, newFake())
	m.Update(key("up"))
	if m.cursor != 0 {
		t.Errorf("Expected cursor to stay at 0, got %d", m.cursor)
	}
	for range int(synth.NumParams) + 5 {
		m.Update(key("down"))
	}
	if m.cursor != synth.NumParams-1 {
		t.Errorf("Expected cursor to stop at the last param, got %d", m.cursor)
	}
}

func TestMonitorQuitSilences(t *testing.T) {
	f := newFake()
	m := NewMonitor("test", "virtual", synth.CutoffLinear, f)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if len(f.sent) != 1 || f.sent[0].Kind != synth.EventAllSoundOff {
		t.Errorf("Expected all-sound-off on quit, got %v", f.sent)
	}
}

func TestMonitorShowsSendErrors(t *testing.T) {
	f := newFake()
	f.err = synth.ErrQueueFull
	m := NewMonitor("test", "virtual", synth.CutoffLinear, f)
	m.Update(key("right"))
	if !errors.Is(m.err, synth.ErrQueueFull) {
		t.Fatalf("Expected the error to be kept, got %v", m.err)
	}
	if !strings.Contains(m.View(), "queue full") {
		t.Error("Expected the view to show the error")
	}
}

func TestMonitorMessageLog(t *testing.T) {
	m := NewMonitor("test", "virtual", synth.CutoffLinear, newFake())
	for i := range maxMessageHistory + 5 {
		m.Update(EventMsg{Event: synth.NoteOn(uint8(40+i), 100)})
	}
	if m.messageCount != maxMessageHistory+5 {
		t.Errorf("Expected %d messages counted, got %d", maxMessageHistory+5, m.messageCount)
	}
	if len(m.messageHistory) != maxMessageHistory {
		t.Errorf("Expected history capped at %d, got %d", maxMessageHistory, len(m.messageHistory))
	}
	if !strings.Contains(m.messageHistory[0], midiNoteName(40+maxMessageHistory+4)) {
		t.Errorf("Expected newest message first, got %q", m.messageHistory[0])
	}
}

func TestMonitorRefreshesSnapshot(t *testing.T) {
	f := newFake()
	m := NewMonitor("test", "virtual", synth.CutoffLinear, f)
	f.snap.Active = 2
	f.snap.Voices[0] = synth.VoiceState{Active: true, Note: 60}
	_, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Error("Expected the refresh to reschedule itself")
	}
	if m.snap.Active != 2 {
		t.Errorf("Expected the snapshot to refresh, got %d active", m.snap.Active)
	}
	if !strings.Contains(m.View(), "2 active") {
		t.Error("Expected the view to show the active count")
	}
}

func TestMidiNoteName(t *testing.T) {
	tests := map[uint8]string{60: "C4", 69: "A4", 0: "C-1", 61: "C#4"}
	for note, want := range tests {
		if got := midiNoteName(note); got != want {
			t.Errorf("midiNoteName(%d): expected %s, got %s", note, want, got)
		}
	}
}
