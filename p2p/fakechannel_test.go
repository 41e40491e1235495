package p2p

import (
	"time"

	"rubin.dev/peeragent/collab"
	"rubin.dev/peeragent/peeraddr"
)

// fakeChannel is an in-memory collab.Channel test double. Sent frames are
// recorded for assertions instead of reaching a real transport; Deliver
// pushes an inbound event as if it arrived from the remote peer.
type fakeChannel struct {
	clock *fakeClock

	addr    peeraddr.PeerAddress
	hasAddr bool

	closed      bool
	closeCode   string
	closeReason string

	lastRecv time.Time

	events chan collab.Event

	sentVersion []sentVersion
	sentVerack  []sentVerack
	sentAddr    [][]peeraddr.PeerAddress
	sentGetAddr []sentGetAddr
	sentPing    []uint32
	sentPong    []uint32
	sentReject  []sentReject

	failNextVersion bool
	failNextPing    bool
}

type sentVersion struct {
	addr  peeraddr.PeerAddress
	head  [32]byte
	nonce []byte
}

type sentVerack struct {
	pub []byte
	sig []byte
}

type sentGetAddr struct {
	protocolMask []peeraddr.Protocol
	serviceMask  peeraddr.Services
}

type sentReject struct {
	msgType string
	code    byte
	reason  string
}

func newFakeChannel(clock *fakeClock) *fakeChannel {
	return &fakeChannel{clock: clock, events: make(chan collab.Event, 64)}
}

func (c *fakeChannel) PeerAddress() (peeraddr.PeerAddress, bool) { return c.addr, c.hasAddr }

func (c *fakeChannel) SetPeerAddress(addr peeraddr.PeerAddress) {
	c.addr = addr
	c.hasAddr = true
}

func (c *fakeChannel) Closed() bool { return c.closed }

func (c *fakeChannel) LastMessageReceivedAt() time.Time { return c.lastRecv }

func (c *fakeChannel) Events() <-chan collab.Event { return c.events }

func (c *fakeChannel) SendVersion(addr peeraddr.PeerAddress, head [32]byte, nonce []byte) bool {
	if c.failNextVersion {
		c.failNextVersion = false
		return false
	}
	c.sentVersion = append(c.sentVersion, sentVersion{addr: addr, head: head, nonce: nonce})
	return true
}

func (c *fakeChannel) SendVerack(pubKey, sig []byte) bool {
	c.sentVerack = append(c.sentVerack, sentVerack{pub: pubKey, sig: sig})
	return true
}

func (c *fakeChannel) SendAddr(list []peeraddr.PeerAddress) bool {
	cp := append([]peeraddr.PeerAddress{}, list...)
	c.sentAddr = append(c.sentAddr, cp)
	return true
}

func (c *fakeChannel) SendGetAddr(protocolMask []peeraddr.Protocol, serviceMask peeraddr.Services) bool {
	c.sentGetAddr = append(c.sentGetAddr, sentGetAddr{protocolMask: protocolMask, serviceMask: serviceMask})
	return true
}

func (c *fakeChannel) SendPing(nonce uint32) bool {
	if c.failNextPing {
		c.failNextPing = false
		return false
	}
	c.sentPing = append(c.sentPing, nonce)
	return true
}

func (c *fakeChannel) SendPong(nonce uint32) bool {
	c.sentPong = append(c.sentPong, nonce)
	return true
}

func (c *fakeChannel) SendReject(msgType string, code byte, reason string) bool {
	c.sentReject = append(c.sentReject, sentReject{msgType: msgType, code: code, reason: reason})
	return true
}

func (c *fakeChannel) Close(code, reason string) {
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.events)
}

// Deliver pushes ev as an inbound frame and marks the channel as having
// just received traffic, as a real transport would.
func (c *fakeChannel) Deliver(ev collab.Event) {
	c.lastRecv = c.clock.Now()
	c.events <- ev
}
