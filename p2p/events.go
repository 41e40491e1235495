package p2p

import (
	"time"

	"rubin.dev/peeragent/peeraddr"
)

// Observers carries the callbacks an embedding application hooks to learn
// about an agent's lifecycle (spec.md §7 "Observable events"). Each is
// optional; a nil hook is simply skipped. Hooks run on the agent's own
// actor goroutine, so they must not block or call back into the agent
// synchronously.
type Observers struct {
	// OnVersion fires once a version message has been accepted, before
	// verack is sent.
	OnVersion func(peer peeraddr.PeerID, remote peeraddr.PeerAddress)

	// OnHandshake fires once the handshake completes in both directions.
	OnHandshake func(peer peeraddr.PeerID)

	// OnAddr fires whenever an addr batch from this peer passes the
	// admission, size, rate-limit, and per-address checks and has been
	// handed to the address book, naming how many addresses the batch held.
	OnAddr func(peer peeraddr.PeerID, accepted int)

	// OnPingPong fires once a pong is matched to its ping, naming the
	// round-trip latency.
	OnPingPong func(peer peeraddr.PeerID, rtt time.Duration)

	// OnClose fires once, when the agent's channel closes for any reason.
	OnClose func(peer peeraddr.PeerID, reason CloseReason)
}

func (o Observers) fireVersion(peer peeraddr.PeerID, remote peeraddr.PeerAddress) {
	if o.OnVersion != nil {
		o.OnVersion(peer, remote)
	}
}

func (o Observers) fireHandshake(peer peeraddr.PeerID) {
	if o.OnHandshake != nil {
		o.OnHandshake(peer)
	}
}

func (o Observers) fireAddr(peer peeraddr.PeerID, accepted int) {
	if o.OnAddr != nil {
		o.OnAddr(peer, accepted)
	}
}

func (o Observers) firePingPong(peer peeraddr.PeerID, rtt time.Duration) {
	if o.OnPingPong != nil {
		o.OnPingPong(peer, rtt)
	}
}

func (o Observers) fireClose(peer peeraddr.PeerID, reason CloseReason) {
	if o.OnClose != nil {
		o.OnClose(peer, reason)
	}
}
