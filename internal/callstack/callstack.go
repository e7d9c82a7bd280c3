package callstack

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrStopped = errors.New("callstack: scheduler is stopped")

// Func is the body of a command. It must return when ctx is done.
type Func func(ctx context.Context) error

type kind uint8

const (
	kindStep kind = iota
	kindLoopStart
	kindLoopEnd
)

// Command is one unit of scheduled work, identified by its ticket.
type Command struct {
	Ticket uuid.UUID
	Name   string
	fn     Func
	kind   kind
}

// state is owned by the Scheduler and only touched under its mutex.
//
// Invariants: at most one command from queue executes at a time, and once
// recording is set every appended step lands in memory.
type state struct {
	queue     []Command
	memory    []Command
	recording bool
	looping   bool
	// closed is set once the end marker has run; only then does a drained
	// queue refill from memory.
	closed bool
}

// Scheduler runs commands strictly one at a time, in append order, and
// replays a recorded loop region indefinitely once its end marker fires.
type Scheduler struct {
	mu      sync.Mutex
	st      state
	running bool
	idle    chan struct{}
	cycles  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger    *slog.Logger
	onError   func(error)
	observers []Observer
}

// New creates an idle Scheduler. The run loop starts on the first enqueue.
func New(opts ...Opts) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		idle:   closedChan(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Enqueue appends a step. While a loop region is being recorded the step is
// captured for replay instead of being run.
func (s *Scheduler) Enqueue(name string, fn Func) (uuid.UUID, error) {
	return s.push(Command{Ticket: uuid.New(), Name: name, fn: fn, kind: kindStep})
}

// StartLoop switches to recording and queues the marker that turns looping
// on once every earlier command has run.
func (s *Scheduler) StartLoop() (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return uuid.Nil, ErrStopped
	}
	s.st.recording = true
	cmd := Command{Ticket: uuid.New(), Name: "loop-start", kind: kindLoopStart}
	s.appendQueueLocked(cmd)
	return cmd.Ticket, nil
}

// EndLoop queues the marker that loads the recorded region into the queue.
// Recording stays on: later steps keep landing in the loop body.
func (s *Scheduler) EndLoop() (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return uuid.Nil, ErrStopped
	}
	cmd := Command{Ticket: uuid.New(), Name: "loop-end", kind: kindLoopEnd}
	s.appendQueueLocked(cmd)
	return cmd.Ticket, nil
}

func (s *Scheduler) push(cmd Command) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return uuid.Nil, ErrStopped
	}
	if s.st.recording {
		s.st.memory = append(s.st.memory, cmd)
		s.logger.Debug("recorded command", "name", cmd.Name, "ticket", cmd.Ticket)
		return cmd.Ticket, nil
	}
	s.appendQueueLocked(cmd)
	return cmd.Ticket, nil
}

func (s *Scheduler) appendQueueLocked(cmd Command) {
	s.st.queue = append(s.st.queue, cmd)
	s.logger.Debug("queued command", "name", cmd.Name, "ticket", cmd.Ticket)
	if s.running {
		return
	}
	s.running = true
	s.idle = make(chan struct{})
	s.wg.Add(1)
	go s.runNext()
}

// runNext drains the queue. Only one runNext is alive at a time; it exits
// when the queue is empty and the scheduler is not looping.
func (s *Scheduler) runNext() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if s.ctx.Err() != nil || len(s.st.queue) == 0 {
			s.goIdleLocked()
			s.mu.Unlock()
			return
		}
		cmd := s.st.queue[0]
		s.mu.Unlock()

		s.execute(cmd)

		s.mu.Lock()
		switch cmd.kind {
		case kindLoopStart:
			s.st.looping = true
			s.st.queue = s.st.queue[1:]
		case kindLoopEnd:
			s.st.closed = true
			s.reloadLocked()
		default:
			s.st.queue = s.st.queue[1:]
		}
		if s.st.looping && s.st.closed && len(s.st.queue) == 0 && len(s.st.memory) > 0 {
			s.reloadLocked()
		}
		s.mu.Unlock()
	}
}

// reloadLocked replaces the queue with a copy of memory. memory itself is
// never modified, so every cycle replays the same region.
func (s *Scheduler) reloadLocked() {
	s.st.queue = make([]Command, len(s.st.memory))
	copy(s.st.queue, s.st.memory)
	if len(s.st.memory) > 0 {
		s.cycles++
		s.logger.Debug("loop cycle", "cycle", s.cycles, "commands", len(s.st.memory))
	}
}

func (s *Scheduler) goIdleLocked() {
	if s.ctx.Err() != nil {
		s.st.queue = nil
	}
	s.running = false
	close(s.idle)
}

func (s *Scheduler) execute(cmd Command) {
	start := time.Now()
	s.notify(Event{Ticket: cmd.Ticket, Name: cmd.Name, Phase: Started, At: start})

	var err error
	if cmd.fn != nil {
		err = cmd.fn(s.ctx)
	}
	if err != nil && errors.Is(err, context.Canceled) && s.ctx.Err() != nil {
		err = nil
	}

	end := time.Now()
	if err != nil {
		err = &CommandError{Ticket: cmd.Ticket, Name: cmd.Name, Wrapped: err}
		s.logger.Error("command failed", "name", cmd.Name, "ticket", cmd.Ticket, "error", err)
		if s.onError != nil {
			s.onError(err)
		}
	}
	s.notify(Event{Ticket: cmd.Ticket, Name: cmd.Name, Phase: Finished, At: end, Elapsed: end.Sub(start), Err: err})
}

func (s *Scheduler) notify(ev Event) {
	for _, o := range s.observers {
		o.OnCommand(ev)
	}
}

// Idle blocks until the queue has drained or ctx is done. A looping
// scheduler never drains.
func (s *Scheduler) Idle(ctx context.Context) error {
	s.mu.Lock()
	ch := s.idle
	s.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels pending work and waits for the run loop to exit. Commands
// still queued are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.recording
}

func (s *Scheduler) Looping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.looping
}

// Cycles reports how many times the loop region has been loaded into the
// queue.
func (s *Scheduler) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

// Queue returns the tickets currently queued, head first.
func (s *Scheduler) Queue() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tickets(s.st.queue)
}

// Memory returns the tickets of the recorded loop region.
func (s *Scheduler) Memory() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tickets(s.st.memory)
}

func tickets(cmds []Command) []uuid.UUID {
	out := make([]uuid.UUID, len(cmds))
	for i, c := range cmds {
		out[i] = c.Ticket
	}
	return out
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
