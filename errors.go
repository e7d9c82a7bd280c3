package typewriter

import (
	"errors"

	"github.com/san-kum/typewriter/internal/callstack"
)

var (
	// ErrInvalidArgument indicates a malformed builder argument, such as an
	// unknown put mode or a negative duration.
	ErrInvalidArgument = errors.New("typewriter: invalid argument")

	// ErrUninitialized indicates a command issued before Init.
	ErrUninitialized = errors.New("typewriter: used before Init")

	// ErrStopped indicates a command issued after Stop.
	ErrStopped = callstack.ErrStopped
)

// CommandError is reported for a command that failed while running.
type CommandError = callstack.CommandError
