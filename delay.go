package typewriter

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// settle is how long a write or delete lingers after its last keystroke.
const settle = 10 * time.Millisecond

type cadence struct {
	mu    sync.Mutex
	rng   *rand.Rand
	speed time.Duration
}

func newCadence(speed time.Duration, seed *int64) *cadence {
	var src rand.Source
	if seed != nil {
		src = rand.NewPCG(uint64(*seed), uint64(*seed))
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &cadence{rng: rand.New(src), speed: speed}
}

// next returns floor(U(0.25, 1.75) * speed) at millisecond resolution.
func (c *cadence) next() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := float64(c.speed) / float64(time.Millisecond)
	d := math.Floor(c.rng.Float64()*1.5*ms + 0.25*ms)
	return time.Duration(d) * time.Millisecond
}

func (c *cadence) setSpeed(d time.Duration) {
	c.mu.Lock()
	c.speed = d
	c.mu.Unlock()
}

func (c *cadence) current() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SampleDelays returns the first n keystroke delays a typewriter with the
// given speed and seed would use.
func SampleDelays(speed time.Duration, seed int64, n int) []time.Duration {
	c := newCadence(speed, &seed)
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = c.next()
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
