// Package tui is the live monitor shown while the synth is playing.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/danielkinahan/dualie/internal/synth"
)

const (
	maxMessageHistory = 20
	shownMessages     = 10
	refreshInterval   = 50 * time.Millisecond
	coarseStep        = 8
)

// Controller is the part of the engine the monitor talks to.
type Controller interface {
	Send(ev synth.Event) error
	Snapshot() synth.Snapshot
}

// EventMsg reports an event that arrived from MIDI, with the result of
// queueing it. Send it to the program from the MIDI observer.
type EventMsg struct {
	Event synth.Event
	Err   error
}

type tickMsg time.Time

// Monitor is the bubbletea model: voice activity, the parameter panel with
// encoder-style editing, a message log and a keyboard.
type Monitor struct {
	title string
	port  string
	curve synth.CutoffCurve
	ctl   Controller

	snap           synth.Snapshot
	cursor         synth.ParamID
	messageHistory []string
	messageCount   int
	err            error
	width          int
	height         int
}

// NewMonitor builds the model. port is shown as the MIDI source.
func NewMonitor(title, port string, curve synth.CutoffCurve, ctl Controller) *Monitor {
	return &Monitor{
		title:          title,
		port:           port,
		curve:          curve,
		ctl:            ctl,
		snap:           ctl.Snapshot(),
		messageHistory: make([]string, 0, maxMessageHistory),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Monitor) Init() tea.Cmd {
	return tick()
}

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.snap = m.ctl.Snapshot()
		return m, tick()

	case EventMsg:
		m.messageCount++
		line := msg.Event.String()
		if msg.Event.Kind == synth.EventNoteOn || msg.Event.Kind == synth.EventNoteOff {
			line = fmt.Sprintf("%s %-4s vel:%d", msg.Event.Kind, midiNoteName(msg.Event.Note), msg.Event.Velocity)
		}
		if msg.Err != nil {
			line += " (" + msg.Err.Error() + ")"
		}
		m.logMessage(line)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Monitor) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.send(synth.Event{Kind: synth.EventAllSoundOff})
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < synth.NumParams-1 {
			m.cursor++
		}
	case "left", "h":
		m.send(synth.ParamNudge(m.cursor, -1))
	case "right", "l":
		m.send(synth.ParamNudge(m.cursor, 1))
	case "shift+left", "H":
		m.send(synth.ParamNudge(m.cursor, -coarseStep))
	case "shift+right", "L":
		m.send(synth.ParamNudge(m.cursor, coarseStep))
	case " ":
		m.send(synth.Event{Kind: synth.EventAllNotesOff})
	case "p":
		m.send(synth.Event{Kind: synth.EventAllSoundOff})
	}
	return m, nil
}

func (m *Monitor) send(ev synth.Event) {
	if err := m.ctl.Send(ev); err != nil {
		m.err = err
		return
	}
	m.err = nil
	if ev.Kind == synth.EventParamNudge {
		// show the edit before the next refresh
		raw := min(max(int(m.snap.Raw[ev.Param])+ev.Delta, 0), 127)
		m.snap.Raw[ev.Param] = uint8(raw)
	}
}

func (m *Monitor) logMessage(line string) {
	m.messageHistory = append([]string{line}, m.messageHistory...)
	if len(m.messageHistory) > maxMessageHistory {
		m.messageHistory = m.messageHistory[:maxMessageHistory]
	}
}

func (m *Monitor) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("DUALIE "+m.title) + "\n\n")
	b.WriteString(subtitleStyle.Render("MIDI In: ") + statusStyle.Render(m.port) + "\n")
	b.WriteString(subtitleStyle.Render("Voices: ") + m.renderVoices() +
		fmt.Sprintf("  %d active", m.snap.Active) + "\n")
	b.WriteString(subtitleStyle.Render("Level:  ") + renderMeter(m.snap.Peak, 24))
	if m.snap.Dropped > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %d dropped", m.snap.Dropped)))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	b.WriteString(m.renderPanel())

	b.WriteString("\n" + subtitleStyle.Render(fmt.Sprintf("Message Log: [%d total]", m.messageCount)) + "\n")
	if len(m.messageHistory) == 0 {
		b.WriteString("  " + logStyle.Render("(waiting for input)") + "\n")
	}
	for i, line := range m.messageHistory[:min(len(m.messageHistory), shownMessages)] {
		if i == 0 {
			b.WriteString("  " + logHighlightStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString("  " + logStyle.Render("  "+line) + "\n")
		}
	}

	held := make(map[uint8]bool)
	for _, v := range m.snap.Voices {
		if v.Active {
			held[v.Note] = true
		}
	}
	b.WriteString("\n" + renderKeyboard(held) + "\n")
	b.WriteString("\n" + helpStyle.Render("↑/↓: select • ←/→: adjust • H/L: adjust ×8 • space: notes off • p: panic • q: quit"))
	return b.String()
}

func (m *Monitor) renderVoices() string {
	var b strings.Builder
	for _, v := range m.snap.Voices {
		c := stageColors[0]
		if v.Active && int(v.Stage) < len(stageColors) {
			c = stageColors[v.Stage]
		}
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render("■"))
	}
	return b.String()
}

// renderPanel lists the parameters in a window around the cursor.
func (m *Monitor) renderPanel() string {
	rows := int(synth.NumParams)
	if m.height > 0 {
		rows = min(rows, max(m.height-24, 5))
	}
	top := min(max(int(m.cursor)-rows/2, 0), int(synth.NumParams)-rows)

	var b strings.Builder
	for i := top; i < top+rows; i++ {
		id := synth.ParamID(i)
		raw := m.snap.Raw[id]
		line := fmt.Sprintf("%-12s %3d  %s", id.Spec().Label, raw, synth.FormatValue(id, synth.Scale(id, raw, m.curve)))
		if id == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func renderMeter(peak float32, width int) string {
	n := min(int(peak*float32(width)+0.5), width)
	bar := strings.Repeat("█", n) + strings.Repeat("·", width-n)
	style := statusStyle
	if peak >= 0.99 {
		style = errorStyle
	}
	return style.Render(bar)
}
