package callstack

import (
	"fmt"

	"github.com/google/uuid"
)

// CommandError wraps a failure returned by a command body.
type CommandError struct {
	Ticket  uuid.UUID
	Name    string
	Wrapped error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("callstack: %s (%s): %v", e.Name, e.Ticket, e.Wrapped)
}

func (e *CommandError) Unwrap() error {
	return e.Wrapped
}
