package p2p

import (
	"encoding/binary"

	"rubin.dev/peeragent/collab"
	"rubin.dev/peeragent/peeraddr"
)

// connectivityTick is the CONNECTIVITY_CHECK_INTERVAL callback installed at
// handshake finish (spec.md §4.5).
func (a *Agent) connectivityTick() {
	if a.closed {
		return
	}

	var buf [4]byte
	if err := a.crypto.Random(buf[:]); err != nil {
		a.log.Error("failed to generate ping nonce")
		return
	}
	nonce := binary.BigEndian.Uint32(buf[:])

	if !a.channel.SendPing(nonce) {
		a.close(ReasonSendingPingFailed)
		return
	}
	now := a.clock.Now()
	a.pingTimes[nonce] = now

	if a.channel.LastMessageReceivedAt().Before(now.Add(-ConnectivityCheckInterval)) {
		a.armTimer(pingTimerName(nonce), PingTimeout, func() {
			delete(a.pingTimes, nonce)
			a.close(ReasonPingTimeout)
		})
	}

	a.armTimer(timerNameConnectivity, ConnectivityCheckInterval, a.connectivityTick)
}

// onPing answers immediately with pong; no rate check, the cost is
// trivial (spec.md §4.5).
func (a *Agent) onPing(msg collab.PingMsg) {
	if a.closed || !admit(a.st, kindPing) {
		return
	}
	a.channel.SendPong(msg.Nonce)
}

// onPong matches an inbound pong to its outstanding ping, cancels the
// per-nonce timeout, and fires the ping-pong latency event (spec.md §4.5).
func (a *Agent) onPong(msg collab.PongMsg) {
	if a.closed || !admit(a.st, kindPong) {
		return
	}

	a.timers.Cancel(pingTimerName(msg.Nonce))

	start, ok := a.pingTimes[msg.Nonce]
	if !ok {
		return
	}
	delete(a.pingTimes, msg.Nonce)

	delta := a.clock.Now().Sub(start)
	if delta > 0 {
		peerID := peeraddr.PeerID{}
		if a.peer != nil {
			peerID = a.peer.ID
		}
		a.observers.firePingPong(peerID, delta)
	}
}
