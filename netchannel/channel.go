package netchannel

import (
	"sync"
	"time"

	"rubin.dev/peeragent/collab"
	"rubin.dev/peeragent/peeraddr"
)

// base holds the collab.Channel state shared by every transport binding:
// the learned peer address, the inbound event stream, and close
// bookkeeping. Transport-specific types (Transport, WSTransport) embed it
// and supply their own send/read-loop implementations.
type base struct {
	mu      sync.Mutex
	addr    peeraddr.PeerAddress
	hasAddr bool

	lastRecv time.Time

	events chan collab.Event

	closeOnce sync.Once
	closed    chan struct{}
}

func newBase() base {
	return base{events: make(chan collab.Event, 64), closed: make(chan struct{})}
}

func (b *base) PeerAddress() (peeraddr.PeerAddress, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr, b.hasAddr
}

func (b *base) SetPeerAddress(addr peeraddr.PeerAddress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addr = addr
	b.hasAddr = true
}

func (b *base) Closed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

func (b *base) LastMessageReceivedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRecv
}

func (b *base) Events() <-chan collab.Event {
	return b.events
}

func (b *base) markReceived(now time.Time) {
	b.mu.Lock()
	b.lastRecv = now
	b.mu.Unlock()
}

// deliver pushes ev to the event stream unless the channel has already
// closed.
func (b *base) deliver(ev collab.Event) {
	// markClosed can close events while this select is pending; a send on
	// the closed stream panics, and that panic is swallowed here so the
	// event is dropped like any other post-close delivery.
	defer func() { _ = recover() }()
	select {
	case b.events <- ev:
	case <-b.closed:
	}
}

// markClosed closes the done signal and the event stream exactly once.
func (b *base) markClosed() {
	b.closeOnce.Do(func() {
		close(b.closed)
		close(b.events)
	})
}
