package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI note number as name+octave (60 = C4)
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note/12)-1)
}

// RenderNote renders a single colored note label
func RenderNote(note uint8, color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(fmt.Sprintf("%-4s", NoteName(note)))
}

// RenderNoteRow renders a row of note labels with spacing
func RenderNoteRow(notes []uint8, color [3]uint8) string {
	var out strings.Builder
	for i, n := range notes {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderNote(n, color))
	}
	return out.String()
}

// RenderIndexRuler renders 0-based index labels aligned with RenderNoteRow
func RenderIndexRuler(n int, color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	var out strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(style.Render(fmt.Sprintf("%-4d", i)))
	}
	return out.String()
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
