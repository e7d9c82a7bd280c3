package typewriter

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/typewriter/internal/buffer"
)

// Mode selects how Put inserts content.
type Mode string

const (
	// ModeText splits content into individually rendered characters.
	ModeText Mode = "text"
	// ModeHTML inserts content as one verbatim markup token. Trusted input.
	ModeHTML Mode = "html"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeText, ModeHTML:
		return m, nil
	default:
		return "", fmt.Errorf("%w: put mode %q", ErrInvalidArgument, s)
	}
}

func (t *Typewriter) write(ctx context.Context, s string) error {
	for _, r := range s {
		if err := sleep(ctx, t.cadence.next()); err != nil {
			return err
		}
		t.buf.Append(buffer.CharToken(r))
		t.sync()
	}
	return sleep(ctx, settle)
}

// erase pops n tokens, or everything buffered when all is set. The count
// for all is taken when the step starts, not when it was queued.
func (t *Typewriter) erase(ctx context.Context, n int, all bool) error {
	if all {
		n = t.buf.Len()
	}
	for i := 0; i < n; i++ {
		if err := sleep(ctx, t.cadence.next()); err != nil {
			return err
		}
		t.buf.Pop()
		t.sync()
	}
	return sleep(ctx, settle)
}

func (t *Typewriter) put(content string, mode Mode) {
	if mode == ModeHTML {
		t.buf.Append(buffer.MarkupToken(content))
	} else {
		t.buf.Append(buffer.Chars(content)...)
	}
	t.sync()
}

func (t *Typewriter) wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (t *Typewriter) finish() {
	t.host.SetContent(t.renderer.Render(t.buf.Tokens(), ""))
}

func (t *Typewriter) sync() {
	t.host.SetContent(t.renderer.Render(t.buf.Tokens(), t.caret))
}
