package callstack

import (
	"time"

	"github.com/google/uuid"
)

type Phase uint8

const (
	Started Phase = iota
	Finished
)

func (p Phase) String() string {
	if p == Started {
		return "started"
	}
	return "finished"
}

// Event describes one command transition. Elapsed and Err are only set on
// Finished events.
type Event struct {
	Ticket  uuid.UUID
	Name    string
	Phase   Phase
	At      time.Time
	Elapsed time.Duration
	Err     error
}

// Observer is notified on the scheduler goroutine; implementations must not
// block for long.
type Observer interface {
	OnCommand(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) OnCommand(ev Event) { f(ev) }
