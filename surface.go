package typewriter

import (
	"sync"

	"github.com/san-kum/typewriter/internal/buffer"
	"github.com/san-kum/typewriter/internal/markup"
)

// Surface is the host a typewriter draws on. Content is read once, at
// construction; SetContent is called after every mutation.
type Surface interface {
	Content() string
	SetContent(content string)
}

type Token = buffer.Token

// Renderer projects the buffer into surface content. An empty caret means
// no trailing indicator.
type Renderer interface {
	Render(tokens []Token, caret string) string
}

// HTMLRenderer wraps each character in <span class="letter"> and the caret
// in <span class="caret">.
func HTMLRenderer() Renderer { return markup.HTML{} }

// TerminalRenderer styles characters and caret for ANSI terminals.
func TerminalRenderer() Renderer { return markup.Terminal{} }

func PlainRenderer() Renderer { return markup.Plain{} }

// MemorySurface keeps every frame it is given. It is safe for concurrent use.
type MemorySurface struct {
	mu      sync.Mutex
	content string
	frames  []string
}

func NewMemorySurface(initial string) *MemorySurface {
	return &MemorySurface{content: initial}
}

func (m *MemorySurface) Content() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

func (m *MemorySurface) SetContent(content string) {
	m.mu.Lock()
	m.content = content
	m.frames = append(m.frames, content)
	m.mu.Unlock()
}

// Frames returns every content set so far, oldest first.
func (m *MemorySurface) Frames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.frames...)
}
