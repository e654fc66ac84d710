package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-arp/arp"
	"go-arp/theme"
	"go-arp/widgets"
)

// Model is the monitor TUI: it shows the current chord, the notes the
// engine is holding open, and drives transport/config changes through the
// bridge's command queue. It never touches the engine directly.
type Model struct {
	Bridge *arp.Bridge
	Theme  *theme.Theme

	// Local view of state the TUI itself controls
	playing     bool
	root        uint8
	passThrough bool

	auditioned [12]bool // chord indices currently held by audition
	quitting   bool
}

type UpdateMsg struct{}

func NewModel(bridge *arp.Bridge, th *theme.Theme) Model {
	cfg := bridge.Engine().Config()
	return Model{
		Bridge:      bridge,
		Theme:       th,
		root:        cfg.RootNote,
		passThrough: cfg.PassThrough,
	}
}

func ListenForUpdates(bridge *arp.Bridge) tea.Cmd {
	return func() tea.Msg {
		<-bridge.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Bridge)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Bridge.SetPlaying(false)
			return m, tea.Quit

		case "p":
			m.playing = !m.playing
			m.Bridge.SetPlaying(m.playing)

		case "+", "=":
			if m.root < 127 {
				m.root++
				m.setRoot(m.root)
			}

		case "-", "_":
			if m.root > 0 {
				m.root--
				m.setRoot(m.root)
			}

		case "t":
			m.passThrough = !m.passThrough
			on := m.passThrough
			bridge := m.Bridge
			bridge.Do(func() {
				bridge.Engine().SetPassThrough(on)
			})

		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx := int(msg.String()[0] - '1')
			m.toggleAudition(idx)
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Bridge)
	}

	return m, nil
}

func (m *Model) setRoot(root uint8) {
	bridge := m.Bridge
	bridge.Do(func() {
		bridge.Engine().SetRootNote(root)
	})
}

// toggleAudition starts or stops a chord slot by index, bypassing the
// rhythm mapping
func (m *Model) toggleAudition(idx int) {
	if idx < 0 || idx >= len(m.auditioned) {
		return
	}
	bridge := m.Bridge
	if m.auditioned[idx] {
		m.auditioned[idx] = false
		bridge.Do(func() {
			bridge.Engine().StopIndexed(idx, 0, bridge.Out())
		})
	} else {
		m.auditioned[idx] = true
		bridge.Do(func() {
			bridge.Engine().StartIndexed(idx, 0, bridge.Out())
		})
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())

	playState := "STOP"
	if m.playing {
		playState = "PLAY"
	}
	passState := "off"
	if m.passThrough {
		passState = "on"
	}

	header := headerStyle.Render(fmt.Sprintf(
		"go-arp  %s  root:%s(%d)  thru:%s", playState, widgets.NoteName(m.root), m.root, passState))

	chord, sounding := m.Bridge.Snapshot()

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	// Chord membership, sorted ascending - the index under each note is
	// the slot a rhythm trigger resolves against
	out.WriteString(labelStyle.Render("Chord"))
	out.WriteString("\n")
	if len(chord) == 0 {
		out.WriteString(dimStyle.Render("  (empty - play notes on the chord channel)"))
		out.WriteString("\n")
	} else {
		notes := make([]uint8, len(chord))
		for i, cn := range chord {
			notes[i] = cn.Note
		}
		out.WriteString("  " + widgets.RenderNoteRow(notes, m.Theme.Palette.Lookup(theme.RoleSuccess)))
		out.WriteString("\n")
		out.WriteString("  " + widgets.RenderIndexRuler(len(notes), m.Theme.Palette.Lookup(theme.RoleMuted)))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	// Currently sounding output notes
	out.WriteString(labelStyle.Render("Sounding"))
	out.WriteString("\n")
	if len(sounding) == 0 {
		out.WriteString(dimStyle.Render("  (silent)"))
		out.WriteString("\n")
	} else {
		for _, pn := range sounding {
			owner := "audition"
			if pn.Owner != arp.NoOwner {
				owner = fmt.Sprintf("key %d", pn.Owner)
			}
			out.WriteString(fmt.Sprintf("  %c %s vel:%-3d  idx:%d oct:%+d  %s\n",
				m.Theme.Symbols.NoteOn,
				widgets.NoteName(pn.Note), pn.Velocity, pn.ChordIndex, pn.OctaveOffset,
				dimStyle.Render(owner)))
		}
	}
	out.WriteString("\n")

	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "p", Desc: "play / stop"},
			{Key: "+ / -", Desc: "root note"},
			{Key: "t", Desc: "pass-through"},
			{Key: "1-9", Desc: "audition chord slot"},
			{Key: "q", Desc: "quit"},
		}},
	}))

	return out.String()
}
