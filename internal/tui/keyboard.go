package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderKeyboard draws two octaves from C3 with held notes lit.
func renderKeyboard(held map[uint8]bool) string {
	whiteStyle := lipgloss.NewStyle().Background(lipgloss.Color("#FFFFFF")).Foreground(lipgloss.Color("#000000"))
	blackStyle := lipgloss.NewStyle().Background(lipgloss.Color("#000000")).Foreground(lipgloss.Color("#FFFFFF"))
	activeWhite := lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000"))
	activeBlack := lipgloss.NewStyle().Background(lipgloss.Color("#00AA00")).Foreground(lipgloss.Color("#FFFFFF"))

	whiteKeys := []uint8{0, 2, 4, 5, 7, 9, 11}
	// black key after each white key, -1 where there is none
	blackKeys := []int{1, 3, -1, 6, 8, 10, -1}

	var top, bottom strings.Builder
	for octave := 3; octave <= 4; octave++ {
		base := uint8(octave*12 + 12)
		for _, off := range blackKeys {
			switch {
			case off < 0:
				top.WriteString(" ")
			case held[base+uint8(off)]:
				top.WriteString(activeBlack.Render("█"))
			default:
				top.WriteString(blackStyle.Render("█"))
			}
			top.WriteString(" ")
		}
		for _, off := range whiteKeys {
			if held[base+off] {
				bottom.WriteString(activeWhite.Render("█"))
			} else {
				bottom.WriteString(whiteStyle.Render("█"))
			}
			bottom.WriteString(" ")
		}
	}
	return top.String() + "\n" + bottom.String()
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func midiNoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note/12)-1)
}
