package metrics

import (
	"sync"
	"time"

	"github.com/san-kum/typewriter/internal/callstack"
)

// Commands tallies finished commands by name, failures, and time spent
// executing. It is a callstack.Observer.
type Commands struct {
	mu     sync.Mutex
	counts map[string]int
	failed int
	busy   time.Duration
}

func NewCommands() *Commands {
	return &Commands{counts: make(map[string]int)}
}

func (c *Commands) OnCommand(ev callstack.Event) {
	if ev.Phase != callstack.Finished {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[ev.Name]++
	c.busy += ev.Elapsed
	if ev.Err != nil {
		c.failed++
	}
}

func (c *Commands) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Values flattens the tallies for run metadata.
func (c *Commands) Values() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]float64, len(c.counts)+2)
	for name, n := range c.counts {
		out["commands."+name] = float64(n)
	}
	out["failed"] = float64(c.failed)
	out["busy_ms"] = float64(c.busy) / float64(time.Millisecond)
	return out
}

func (c *Commands) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int)
	c.failed = 0
	c.busy = 0
}
