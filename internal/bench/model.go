// Package bench is a terminal stand-in for the keyboard hardware. It turns
// the computer keyboard into the thirteen key lines and the mode button,
// shows the LED, and lists every message that reaches the MIDI line.
package bench

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chase3718/lou-keys/internal/board"
	"github.com/chase3718/lou-keys/internal/keys"
	"github.com/chase3718/lou-keys/internal/led"
	"github.com/chase3718/lou-keys/internal/midiout"
)

// Piano layout on a qwerty row, index is the key's note offset.
var pianoRow = []string{"a", "w", "s", "e", "d", "f", "t", "g", "y", "h", "u", "j", "k"}

const (
	historyLen = 12
	refresh    = 30 * time.Millisecond
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8be9fd"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	heldStyle   = lipgloss.NewStyle().Reverse(true).Bold(true)
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#aaa"))
	ledOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true)
	keyBox      = lipgloss.NewStyle().Width(5).Align(lipgloss.Center)
)

type tickMsg time.Time

type sentMsg midiout.Message

// Model is the bubbletea model driving a VirtualBus.
type Model struct {
	bus    *board.VirtualBus
	led    *led.Indicator
	keymap *keys.Map
	feed   <-chan midiout.Message
	bind   map[string]keys.Line

	history  []string
	sent     int
	quitting bool
}

// NewModel binds the qwerty row to the key lines of m. feed may be nil.
func NewModel(bus *board.VirtualBus, ind *led.Indicator, m *keys.Map, feed <-chan midiout.Message) Model {
	bind := make(map[string]keys.Line, len(pianoRow))
	for off, k := range pianoRow {
		if l, ok := m.LineForOffset(uint8(off)); ok {
			bind[k] = l
		}
	}
	return Model{bus: bus, led: ind, keymap: m, feed: feed, bind: bind}
}

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func listen(feed <-chan midiout.Message) tea.Cmd {
	if feed == nil {
		return nil
	}
	return func() tea.Msg {
		m, ok := <-feed
		if !ok {
			return nil
		}
		return sentMsg(m)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), listen(m.feed))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch k := msg.String(); k {
		case "q", "ctrl+c":
			m.quitting = true
			m.bus.Release()
			m.bus.SetButton(false)
			return m, tea.Quit
		case " ":
			m.bus.SetButton(!m.bus.ButtonDown())
		case "esc":
			m.bus.Release()
		default:
			if l, ok := m.bind[k]; ok {
				m.bus.Toggle(l)
			}
		}

	case tickMsg:
		return m, tick()

	case sentMsg:
		m.sent++
		m.history = append(m.history, describe(midiout.Message(msg)))
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
		return m, listen(m.feed)
	}
	return m, nil
}

func describe(msg midiout.Message) string {
	line := fmt.Sprintf("% X  %s", msg.Bytes(), msg.String())
	if midiout.IsNote(msg.Status()) {
		line += "  " + keys.PitchName(msg.Data[1])
	}
	return line
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	ledMark := dimStyle.Render("○")
	if m.led != nil && m.led.Lit() {
		ledMark = ledOnStyle.Render("●")
	}
	btn := "up"
	if m.bus.ButtonDown() {
		btn = "DOWN"
	}
	b.WriteString(headerStyle.Render("lou-keys bench"))
	fmt.Fprintf(&b, "  led %s  button %s  sent %d\n\n", ledMark, btn, m.sent)

	sample := m.bus.Sample()
	var top, bottom []string
	for off, k := range pianoRow {
		l, ok := m.bind[k]
		if !ok {
			continue
		}
		style := upStyle
		if sample&(1<<l) != 0 {
			style = heldStyle
		}
		top = append(top, keyBox.Render(style.Render(k)))
		bottom = append(bottom, keyBox.Render(dimStyle.Render(roleLabel(m.keymap.Key(l), off))))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, top...))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, bottom...))
	b.WriteString("\n\n")

	if len(m.history) == 0 {
		b.WriteString(dimStyle.Render("no messages yet"))
		b.WriteString("\n")
	}
	for _, h := range m.history {
		b.WriteString(h)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("a-k:toggle key  space:mode button  esc:release all  q:quit"))
	return b.String()
}

func roleLabel(k keys.Key, off int) string {
	switch k.Role {
	case keys.ChannelSelect:
		return fmt.Sprintf("ch%d", k.Channel+1)
	case keys.OctaveUp:
		return "oct+"
	case keys.OctaveDown:
		return "oct-"
	}
	return fmt.Sprintf("+%d", off)
}
