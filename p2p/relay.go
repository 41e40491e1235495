package p2p

import (
	"go.uber.org/zap"

	"rubin.dev/peeragent/collab"
	"rubin.dev/peeragent/peeraddr"
)

// relayAddresses enqueues list for outbound gossip (spec.md §4.3). A no-op
// until both verackReceived and versionSent, matching the source's guard
// against relaying before the peer is known to be listening for it.
func (a *Agent) relayAddresses(list []peeraddr.PeerAddress) {
	if !a.verackReceived || !a.versionSent {
		return
	}
	a.addrQueue.Push(list)
}

// flushRelay is the addrQueue's tick callback: filter, rate-limit, and
// transmit up to MaxAddrRelayPerMessage addresses, then remember what was
// sent (spec.md §4.3 "insert each into knownAddresses, overwriting any
// prior entry").
func (a *Agent) flushRelay(batch []peeraddr.PeerAddress) {
	var out []peeraddr.PeerAddress
	for _, addr := range batch {
		if !a.shouldRelay(addr) {
			continue
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return
	}
	if !a.outboundLimit.Allow(len(out)) {
		return
	}
	if !a.channel.SendAddr(out) {
		return
	}
	for _, addr := range out {
		a.insertKnown(addr)
	}
}

func (a *Agent) shouldRelay(addr peeraddr.PeerAddress) bool {
	if addr.Protocol == peeraddr.ProtocolWebRTC && addr.Distance >= MaxDistance {
		return false
	}
	if addr.Protocol == peeraddr.ProtocolDumb {
		return false
	}
	if addr.Seed {
		return false
	}

	known, ok := a.knownAddresses[addr.Key()]
	if !ok {
		return true
	}
	if addr.Protocol == peeraddr.ProtocolWebRTC && addr.Distance < known.addr.Distance {
		return true
	}
	return known.timestamp.Before(a.clock.Now().Add(-RelayThrottle))
}

// onAddr handles an inbound addr batch (spec.md §4.4).
func (a *Agent) onAddr(list []peeraddr.PeerAddress) {
	if a.closed || !admit(a.st, kindAddr) {
		return
	}
	if len(list) > MaxAddrPerMessage {
		a.close(ReasonAddrMessageTooLarge)
		return
	}
	if !a.inboundLimit.Allow(len(list)) {
		a.close(ReasonRateLimitExceeded)
		return
	}

	for _, addr := range list {
		if !addr.Verify(signerAdapter{a.crypto}) {
			a.close(ReasonInvalidAddr)
			return
		}
		if addr.Protocol == peeraddr.ProtocolWebSocket && !addr.GloballyReachable() {
			a.close(ReasonAddrNotGloballyReachable)
			return
		}
		a.insertKnown(addr)
	}

	source := ""
	if a.peer != nil {
		source = a.peer.ID.String()
	}
	if err := a.book.Add(source, list); err != nil {
		a.log.Warn("address book rejected addr batch", zap.Error(err))
	}

	peerID := peeraddr.PeerID{}
	if a.peer != nil {
		peerID = a.peer.ID
	}
	a.observers.fireAddr(peerID, len(list))
}

// onGetAddr handles an inbound getAddr request (spec.md §4.4): query the
// address book, filter out WebRTC entries at MaxDistance or beyond and
// entries already known to the peer and still inside RelayThrottle, and answer with whatever survives — never an
// empty addr frame.
func (a *Agent) onGetAddr(req collab.GetAddrMsg) {
	if a.closed || !admit(a.st, kindGetAddr) {
		return
	}

	candidates := a.book.Query(req.ProtocolMask, req.ServiceMask, MaxAddrPerMessage)
	var out []peeraddr.PeerAddress
	for _, addr := range candidates {
		if addr.Protocol == peeraddr.ProtocolWebRTC && addr.Distance >= MaxDistance {
			continue
		}
		if known, ok := a.knownAddresses[addr.Key()]; ok {
			if !known.timestamp.Before(a.clock.Now().Add(-RelayThrottle)) {
				continue
			}
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return
	}
	a.channel.SendAddr(out)
}
