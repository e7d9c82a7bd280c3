// Package markup projects a token buffer into displayable content.
//
// Three projections are provided:
//
//   - [HTML]: one <span class="letter"> per character and a trailing
//     <span class="caret">. Characters are HTML-escaped.
//   - [Terminal]: lipgloss-styled characters and caret for ANSI terminals.
//   - [Plain]: bare characters and caret, no styling.
//
// # Trust boundary
//
// Markup tokens are emitted verbatim by every renderer. They are the
// trusted input path; callers must sanitize them before they reach the
// buffer. Only character tokens are escaped.
package markup

import (
	"html"
	"strings"

	"github.com/san-kum/typewriter/internal/buffer"
)

// An empty caret renders no trailing indicator.
type HTML struct{}

func (HTML) Render(tokens []buffer.Token, caret string) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.Kind == buffer.Markup {
			sb.WriteString(t.Text)
			continue
		}
		sb.WriteString(`<span class="letter">`)
		sb.WriteString(html.EscapeString(t.Text))
		sb.WriteString(`</span>`)
	}
	if caret != "" {
		sb.WriteString(`<span class="caret">`)
		sb.WriteString(html.EscapeString(caret))
		sb.WriteString(`</span>`)
	}
	return sb.String()
}

type Plain struct{}

func (Plain) Render(tokens []buffer.Token, caret string) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	sb.WriteString(caret)
	return sb.String()
}
