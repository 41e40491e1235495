package p2p

import (
	"sync"
	"time"
)

// rateLimiter enforces ADDR_RATE_LIMIT (spec.md §4.3/§4.4): at most N
// address records may be charged against it inside a fixed window of
// length w, which starts at the first charge after the previous window has
// elapsed. spec.md §9 Open Question (c) is resolved atomically here — a
// batch either charges in full or is rejected in full, it is never
// partially admitted.
type rateLimiter struct {
	clock Clock
	limit int
	window time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int
}

func newRateLimiter(clock Clock, limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{clock: clock, limit: limit, window: window}
}

// Allow reports whether n more units fit within the current window,
// charging them if so. A non-positive n is always allowed and charges
// nothing.
func (r *rateLimiter) Allow(n int) bool {
	if n <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.count = 0
	}
	if r.count+n > r.limit {
		return false
	}
	r.count += n
	return true
}

// Remaining reports how many more units the current window would admit.
func (r *rateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) >= r.window {
		return r.limit
	}
	rem := r.limit - r.count
	if rem < 0 {
		return 0
	}
	return rem
}
