package typewriter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/typewriter/internal/buffer"
	"github.com/san-kum/typewriter/internal/callstack"
)

// Typewriter types into one Surface. Chained calls queue commands that run
// one at a time, in order, on the typewriter's own goroutine.
type Typewriter struct {
	host     Surface
	renderer Renderer
	caret    string
	initial  []buffer.Token
	buf      *buffer.Buffer
	cadence  *cadence
	sched    *callstack.Scheduler
	logger   *slog.Logger

	mu          sync.Mutex
	err         error
	initialized bool
}

// New reads the host's current content as the starting text. Nothing is
// drawn until Init.
func New(host Surface, opts ...Option) (*Typewriter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var err error
	if host == nil {
		err = errors.Join(err, fmt.Errorf("%w: nil surface", ErrInvalidArgument))
	}
	if o.speed < 0 {
		err = errors.Join(err, fmt.Errorf("%w: negative speed %v", ErrInvalidArgument, o.speed))
	}
	if o.renderer == nil {
		err = errors.Join(err, fmt.Errorf("%w: nil renderer", ErrInvalidArgument))
	}
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	schedOpts := []callstack.Opts{
		callstack.WithLogger(logger),
		callstack.WithErrorHandler(o.onError),
	}
	for _, obs := range o.observers {
		schedOpts = append(schedOpts, callstack.WithObserver(obs))
	}

	return &Typewriter{
		host:     host,
		renderer: o.renderer,
		caret:    o.caret,
		initial:  buffer.Chars(host.Content()),
		buf:      buffer.New(nil),
		cadence:  newCadence(o.speed, o.seed),
		sched:    callstack.New(schedOpts...),
		logger:   logger,
	}, nil
}

// Init loads the host's original content into the buffer and draws it.
// Calling it again has no effect.
func (t *Typewriter) Init() *Typewriter {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.initialized {
		return t
	}
	t.initialized = true
	t.buf.Append(t.initial...)
	t.sync()
	t.logger.Debug("typewriter initialized", "chars", len(t.initial))
	return t
}

// Write types s one character at a time.
func (t *Typewriter) Write(s string) *Typewriter {
	t.enqueue("write", func(ctx context.Context) error {
		return t.write(ctx, s)
	})
	return t
}

// Delete erases the last n tokens one at a time. Erasing past the start of
// the buffer is a no-op.
func (t *Typewriter) Delete(n int) *Typewriter {
	if n < 0 {
		t.fail(fmt.Errorf("%w: delete count %d", ErrInvalidArgument, n))
		return t
	}
	t.enqueue("delete", func(ctx context.Context) error {
		return t.erase(ctx, n, false)
	})
	return t
}

// DeleteAll erases everything in the buffer at the time it runs.
func (t *Typewriter) DeleteAll() *Typewriter {
	t.enqueue("delete", func(ctx context.Context) error {
		return t.erase(ctx, 0, true)
	})
	return t
}

// Put inserts content at once. See ModeHTML for the trust boundary.
func (t *Typewriter) Put(content string, mode Mode) *Typewriter {
	if _, err := ParseMode(string(mode)); err != nil {
		t.fail(err)
		return t
	}
	t.enqueue("put", func(context.Context) error {
		t.put(content, mode)
		return nil
	})
	return t
}

// Wait pauses for exactly d.
func (t *Typewriter) Wait(d time.Duration) *Typewriter {
	if d < 0 {
		t.fail(fmt.Errorf("%w: wait %v", ErrInvalidArgument, d))
		return t
	}
	t.enqueue("wait", func(ctx context.Context) error {
		return t.wait(ctx, d)
	})
	return t
}

// SetSpeed changes the keystroke interval for the commands after it.
func (t *Typewriter) SetSpeed(d time.Duration) *Typewriter {
	if d < 0 {
		t.fail(fmt.Errorf("%w: speed %v", ErrInvalidArgument, d))
		return t
	}
	t.enqueue("speed", func(context.Context) error {
		t.cadence.setSpeed(d)
		return nil
	})
	return t
}

// DefineLoopStart opens the loop region. Commands chained after it are
// recorded and replayed forever once DefineLoopEnd runs.
func (t *Typewriter) DefineLoopStart() *Typewriter {
	if !t.ready("loop start") {
		return t
	}
	if _, err := t.sched.StartLoop(); err != nil {
		t.fail(fmt.Errorf("typewriter: loop start: %w", err))
	}
	return t
}

// DefineLoopEnd closes the loop region and ends the chain.
func (t *Typewriter) DefineLoopEnd() error {
	if t.ready("loop end") {
		if _, err := t.sched.EndLoop(); err != nil {
			t.fail(fmt.Errorf("typewriter: loop end: %w", err))
		}
	}
	return t.Err()
}

// End draws the buffer one last time without the caret and ends the chain.
func (t *Typewriter) End() error {
	t.enqueue("end", func(context.Context) error {
		t.finish()
		return nil
	})
	return t.Err()
}

// Err returns the first builder error, if any.
func (t *Typewriter) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Idle waits until every queued command has run. It never returns on its
// own while a loop region is active.
func (t *Typewriter) Idle(ctx context.Context) error {
	return t.sched.Idle(ctx)
}

// Stop aborts pending keystrokes and waits for the running command to
// return. Queued commands are discarded.
func (t *Typewriter) Stop() {
	t.sched.Stop()
}

// Text returns the buffered tokens as strings.
func (t *Typewriter) Text() []string { return t.buf.Texts() }

func (t *Typewriter) String() string { return t.buf.String() }

// Cycles reports how many times the loop region has started.
func (t *Typewriter) Cycles() int { return t.sched.Cycles() }

func (t *Typewriter) Speed() time.Duration { return t.cadence.current() }

func (t *Typewriter) enqueue(name string, fn callstack.Func) {
	if !t.ready(name) {
		return
	}
	if _, err := t.sched.Enqueue(name, fn); err != nil {
		t.fail(fmt.Errorf("typewriter: %s: %w", name, err))
	}
}

func (t *Typewriter) ready(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return false
	}
	if !t.initialized {
		t.err = fmt.Errorf("typewriter: %s: %w", name, ErrUninitialized)
		return false
	}
	return true
}

func (t *Typewriter) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
		t.logger.Warn("builder error", "error", err)
	}
}
