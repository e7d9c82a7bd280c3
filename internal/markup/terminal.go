package markup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/typewriter/internal/buffer"
)

var (
	letterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e6e6f0"))

	caretStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff")).
			Blink(true)
)

// Terminal renders for ANSI terminals. Zero value uses the default styles.
type Terminal struct {
	Letter *lipgloss.Style
	Caret  *lipgloss.Style
}

func (r Terminal) Render(tokens []buffer.Token, caret string) string {
	letter, cs := letterStyle, caretStyle
	if r.Letter != nil {
		letter = *r.Letter
	}
	if r.Caret != nil {
		cs = *r.Caret
	}

	var sb strings.Builder
	for _, t := range tokens {
		if t.Kind == buffer.Markup {
			sb.WriteString(t.Text)
			continue
		}
		sb.WriteString(letter.Render(t.Text))
	}
	if caret != "" {
		sb.WriteString(cs.Render(caret))
	}
	return sb.String()
}
