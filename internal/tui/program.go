package tui

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type (
	TickMsg  time.Time
	frameMsg string
	doneMsg  struct{ err error }
)

// Done tells the model the typewriter has finished, with its error if any.
func Done(err error) tea.Msg { return doneMsg{err: err} }

// Model shows the latest typewriter frame inside a panel with a status line.
type Model struct {
	title   string
	content string
	status  func() string
	done    bool
	err     error
	width   int
}

// NewModel builds the view. status, if set, is polled on every tick.
func NewModel(title string, status func() string) Model {
	return Model{title: title, status: status, width: 80}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/4, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case frameMsg:
		m.content = string(msg)
	case doneMsg:
		m.done = true
		m.err = msg.err
	case TickMsg:
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(strings.ToUpper(m.title)) + "\n")

	panel := panelStyle
	if m.width > 8 {
		panel = panel.Width(m.width - 4)
	}
	s.WriteString(panel.Render(m.content) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("ERROR ") + subtleStyle.Render(m.err.Error()))
	case m.done:
		s.WriteString(doneStyle.Render("DONE"))
	default:
		s.WriteString(typingStyle.Render("TYPING"))
	}
	if m.status != nil {
		s.WriteString("  " + subtleStyle.Render(m.status()))
	}
	s.WriteString("\n\n" + keyHintStyle.Render("q quit"))
	return s.String()
}

// Surface delivers typewriter frames to a running bubbletea program.
type Surface struct {
	initial string

	mu      sync.Mutex
	program *tea.Program
}

func NewSurface(initial string) *Surface {
	return &Surface{initial: initial}
}

// Attach must be called before the typewriter draws its first frame.
func (s *Surface) Attach(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
}

func (s *Surface) Content() string { return s.initial }

// SetContent blocks until the program accepts the frame, or returns at once
// if the program has exited.
func (s *Surface) SetContent(content string) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(frameMsg(content))
	}
}
