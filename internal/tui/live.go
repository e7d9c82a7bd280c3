package tui

import (
	"fmt"
	"io"
	"sync"
)

const (
	clearLine  = "\r\033[2K"
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
)

// LiveSurface redraws a single terminal line in place on every frame. It is
// the non-interactive counterpart of the bubbletea view.
type LiveSurface struct {
	mu      sync.Mutex
	out     io.Writer
	initial string
	frames  int
}

func NewLiveSurface(out io.Writer, initial string) *LiveSurface {
	return &LiveSurface{out: out, initial: initial}
}

func (l *LiveSurface) Content() string { return l.initial }

func (l *LiveSurface) SetContent(content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames++
	fmt.Fprint(l.out, clearLine+content)
}

func (l *LiveSurface) Frames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *LiveSurface) Start() { fmt.Fprint(l.out, hideCursor) }
func (l *LiveSurface) Stop()  { fmt.Fprint(l.out, "\n"+showCursor) }
