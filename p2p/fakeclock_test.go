package p2p

import (
	"sort"
	"sync"
	"time"
)

// fakeClock is a manually-advanced Clock so timer-driven behavior (version,
// verack, ping, connectivity, announce) is deterministic in tests, never a
// real sleep.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
}

type fakeTimer struct {
	at       time.Time
	fn       func()
	cancelled bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Cancel {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), fn: f}
	c.pending = append(c.pending, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		already := t.cancelled
		t.cancelled = true
		return !already
	}
}

// Advance moves the clock forward by d, firing (in timestamp order) every
// timer whose deadline has passed. Timers armed by a firing timer's own
// callback are eligible to fire within the same Advance if their deadline
// also falls within the new window.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.Slice(c.pending, func(i, j int) bool { return c.pending[i].at.Before(c.pending[j].at) })
		var due *fakeTimer
		for _, t := range c.pending {
			if t.cancelled {
				continue
			}
			if !t.at.After(target) {
				due = t
				break
			}
		}
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = due.at
		due.cancelled = true
		fn := due.fn
		c.mu.Unlock()
		fn()
	}
}
