package storage

import (
	"sync"
	"time"
)

type Frame struct {
	At      time.Duration
	Content string
}

// Surface is the part of a typewriter host the recorder wraps.
type Surface interface {
	Content() string
	SetContent(content string)
}

// Recorder passes frames through to the wrapped surface and keeps each one
// with its time since the recorder was created.
type Recorder struct {
	next  Surface
	start time.Time

	mu     sync.Mutex
	frames []Frame
}

func NewRecorder(next Surface) *Recorder {
	return &Recorder{next: next, start: time.Now()}
}

func (r *Recorder) Content() string { return r.next.Content() }

func (r *Recorder) SetContent(content string) {
	r.mu.Lock()
	r.frames = append(r.frames, Frame{At: time.Since(r.start), Content: content})
	r.mu.Unlock()
	r.next.SetContent(content)
}

func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}
