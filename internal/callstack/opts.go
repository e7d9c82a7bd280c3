package callstack

import "log/slog"

// Opts configures a Scheduler at construction.
type Opts func(s *Scheduler)

// WithLogger sets the structured logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Opts {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithErrorHandler installs fn to receive every *CommandError. fn runs on
// the scheduler goroutine before the next command starts.
func WithErrorHandler(fn func(error)) Opts {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithObserver adds an observer of command start and finish events.
func WithObserver(o Observer) Opts {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}
