package typewriter

import (
	"log/slog"
	"time"

	"github.com/san-kum/typewriter/internal/callstack"
)

const (
	DefaultSpeed = 200 * time.Millisecond
	DefaultCaret = "|"
)

type (
	Event        = callstack.Event
	Observer     = callstack.Observer
	ObserverFunc = callstack.ObserverFunc
)

const (
	Started  = callstack.Started
	Finished = callstack.Finished
)

// Option configures a Typewriter.
type Option func(o *options)

type options struct {
	speed     time.Duration
	caret     string
	renderer  Renderer
	seed      *int64
	logger    *slog.Logger
	onError   func(error)
	observers []Observer
}

func defaultOptions() options {
	return options{
		speed:    DefaultSpeed,
		caret:    DefaultCaret,
		renderer: HTMLRenderer(),
	}
}

// WithSpeed sets the base keystroke interval. Each delay is drawn uniformly
// from [0.25, 1.75) times this value.
func WithSpeed(d time.Duration) Option {
	return func(o *options) {
		o.speed = d
	}
}

// WithCaret sets the trailing cursor glyph. An empty glyph hides the caret.
func WithCaret(glyph string) Option {
	return func(o *options) {
		o.caret = glyph
	}
}

func WithRenderer(r Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithSeed makes keystroke timing reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithErrorHandler receives every command that fails while running.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithObserver is notified when each command starts and finishes.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}
