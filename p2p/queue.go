package p2p

import (
	"sync"
	"time"

	"rubin.dev/peeragent/peeraddr"
)

// addrQueue is the size-bounded FIFO relay buffer of spec.md §4.3: address
// records to be relayed to this agent's peer accumulate here and drain in
// batches on the cadence passed to Start (AddrQueueInterval) rather than
// being relayed one-by-one as they arrive. Arrivals past AddrQueueSizeCap are
// dropped — a slow-draining queue should shed new input, not grow
// unbounded or evict addresses already queued for relay.
type addrQueue struct {
	cap int

	mu   sync.Mutex
	buf  []peeraddr.PeerAddress

	timers *timerRegistry
	onTick func([]peeraddr.PeerAddress)
	running bool
}

func newAddrQueue(timers *timerRegistry, cap int, onTick func([]peeraddr.PeerAddress)) *addrQueue {
	return &addrQueue{cap: cap, timers: timers, onTick: onTick}
}

// Push appends addrs to the queue, dropping whatever doesn't fit under cap.
// Returns the number actually enqueued.
func (q *addrQueue) Push(addrs []peeraddr.PeerAddress) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	room := q.cap - len(q.buf)
	if room <= 0 {
		return 0
	}
	if len(addrs) > room {
		addrs = addrs[:room]
	}
	q.buf = append(q.buf, addrs...)
	return len(addrs)
}

// Start arms the periodic drain tick. Idempotent: calling it again before
// Stop just rearms the same cadence.
func (q *addrQueue) Start(interval time.Duration, batch int) {
	q.mu.Lock()
	q.running = true
	q.mu.Unlock()
	q.scheduleTick(interval, batch)
}

func (q *addrQueue) scheduleTick(interval time.Duration, batch int) {
	q.timers.Set(addrQueueTimerName, interval, func() {
		q.mu.Lock()
		running := q.running
		n := batch
		if n > len(q.buf) {
			n = len(q.buf)
		}
		var out []peeraddr.PeerAddress
		if n > 0 {
			out = append(out, q.buf[:n]...)
			q.buf = q.buf[n:]
		}
		q.mu.Unlock()

		if out != nil {
			q.onTick(out)
		}
		if running {
			q.scheduleTick(interval, batch)
		}
	})
}

// Stop cancels the periodic drain; queued-but-undrained addresses are
// discarded.
func (q *addrQueue) Stop() {
	q.mu.Lock()
	q.running = false
	q.buf = nil
	q.mu.Unlock()
	q.timers.Cancel(addrQueueTimerName)
}

const addrQueueTimerName = "addr_queue_drain"
