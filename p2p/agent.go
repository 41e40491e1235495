// Package p2p implements the per-peer handshake and liveness agent: one
// instance mediates one logical connection between the local node and one
// remote peer, negotiating identity, gossiping peer-address records under
// rate limits, and maintaining liveness via ping/pong.
package p2p

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"rubin.dev/peeragent/collab"
	"rubin.dev/peeragent/peeraddr"
)

// Config bundles an Agent's collaborators and tuning knobs. Everything
// outside the handshake/relay/liveness/timer fabric itself (spec.md §1
// "Out of scope") is reached through these.
type Config struct {
	Channel collab.Channel
	Chain   collab.BlockchainProvider
	Book    collab.AddressBook
	Net     collab.NetworkConfig
	Crypto  collab.Crypto

	GenesisHash [32]byte
	Observers   Observers
	Clock       Clock  // nil selects RealClock()
	Logger      *zap.Logger // nil selects zap.NewNop()
}

// Agent is the per-peer handshake and liveness state machine of spec.md
// §3/§4. All exported methods post onto the agent's own single-goroutine
// actor loop and block until the corresponding state transition has run to
// completion there, matching spec.md §5's "single-threaded cooperative per
// agent" scheduling model without forcing callers to share a lock.
type Agent struct {
	channel collab.Channel
	chain   collab.BlockchainProvider
	book    collab.AddressBook
	net     collab.NetworkConfig
	crypto  collab.Crypto
	clock   Clock
	log     *zap.Logger

	genesisHash [32]byte
	observers   Observers

	timers        *timerRegistry
	addrQueue     *addrQueue
	inboundLimit  *rateLimiter
	outboundLimit *rateLimiter

	cmds chan func()
	stop chan struct{}

	// Everything below is only ever touched from the actor loop goroutine.
	st                   state
	versionSent          bool
	versionReceived      bool
	verackSent           bool
	verackReceived       bool
	peerAddressVerified  bool
	handshakeFired       bool
	versionAttempts      int

	challengeNonce     []byte
	peerChallengeNonce []byte

	peer *Peer

	knownAddresses map[peeraddr.PeerID]knownEntry
	pingTimes      map[uint32]time.Time

	closed bool
}

// Peer is the handle constructed once a valid version message has been
// accepted (spec.md §3 "peer").
type Peer struct {
	ID              peeraddr.PeerID
	Address         peeraddr.PeerAddress
	ProtocolVersion uint32
	HeadHash        [32]byte
	TimeOffset      time.Duration
}

type knownEntry struct {
	addr      peeraddr.PeerAddress
	timestamp time.Time
}

// New constructs an Agent over cfg. Call Run to start its actor loop and
// Handshake to initiate the protocol.
func New(cfg Config) *Agent {
	clock := cfg.Clock
	if clock == nil {
		clock = RealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Agent{
		channel:        cfg.Channel,
		chain:          cfg.Chain,
		book:           cfg.Book,
		net:            cfg.Net,
		crypto:         cfg.Crypto,
		clock:          clock,
		log:            logger.With(zap.String("module", "p2p.agent")),
		genesisHash:    cfg.GenesisHash,
		observers:      cfg.Observers,
		timers:         newTimerRegistry(clock),
		inboundLimit:   newRateLimiter(clock, AddrRateLimit, AddrRateLimitWindow),
		outboundLimit:  newRateLimiter(clock, AddrRateLimit, AddrRateLimitWindow),
		cmds:           make(chan func(), 32),
		stop:           make(chan struct{}),
		knownAddresses: make(map[peeraddr.PeerID]knownEntry),
		pingTimes:      make(map[uint32]time.Time),
	}
	a.addrQueue = newAddrQueue(a.timers, AddrQueueSizeCap, func(batch []peeraddr.PeerAddress) {
		a.enqueue(func() { a.flushRelay(batch) })
	})

	nonce := make([]byte, 16)
	if err := a.crypto.Random(nonce); err != nil {
		// Construction-time randomness failure is an environment fault, not
		// a protocol one; callers decide whether to retry New.
		a.log.Error("failed to generate challenge nonce", zap.Error(err))
	}
	a.challengeNonce = nonce

	return a
}

// Run starts the actor loop in its own goroutine and returns immediately.
// The loop exits once the channel's event stream closes.
func (a *Agent) Run() {
	go a.loop()
}

func (a *Agent) loop() {
	events := a.channel.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				a.teardown("", false)
				return
			}
			a.dispatch(ev)
		case fn, ok := <-a.cmds:
			if !ok {
				return
			}
			fn()
		case <-a.stop:
			return
		}
	}
}

// post runs fn on the actor loop and blocks until it has completed.
func (a *Agent) post(fn func()) {
	done := make(chan struct{})
	select {
	case a.cmds <- func() { fn(); close(done) }:
		<-done
	case <-a.stop:
	}
}

// enqueue schedules fn to run on the actor loop without waiting for it to
// complete. Every timer and relay-queue callback must reach agent state
// this way rather than by calling agent methods directly from whatever
// goroutine the clock fires them on (RealClock fires from its own
// goroutine per callback) — it is the serialization boundary spec.md §5
// asks for between independently-scheduled callbacks and the rest of the
// agent's single-threaded state.
func (a *Agent) enqueue(fn func()) {
	select {
	case a.cmds <- fn:
	case <-a.stop:
	}
}

// armTimer is timers.Set, routed through enqueue so the fired callback
// runs serialized on the actor loop instead of on the clock's own
// goroutine.
func (a *Agent) armTimer(name string, d time.Duration, fn func()) {
	a.timers.Set(name, d, func() { a.enqueue(fn) })
}

func (a *Agent) dispatch(ev collab.Event) {
	switch ev.Kind {
	case collab.EventVersion:
		a.onVersion(ev.Version)
	case collab.EventVerack:
		a.onVerack(ev.Verack)
	case collab.EventAddr:
		a.onAddr(ev.Addr)
	case collab.EventGetAddr:
		a.onGetAddr(ev.GetAddr)
	case collab.EventPing:
		a.onPing(ev.Ping)
	case collab.EventPong:
		a.onPong(ev.Pong)
	case collab.EventClose:
		a.teardown("", false)
	}
}

// Handshake initiates the protocol (spec.md §4.1). Idempotent: a second
// call after the first has sent our version is a no-op.
func (a *Agent) Handshake() {
	a.post(a.handshake)
}

func (a *Agent) handshake() {
	if a.closed || a.versionSent {
		return
	}

	addr := a.net.PeerAddress()
	ok := a.channel.SendVersion(addr, a.chain.HeadHash(), a.challengeNonce)
	if !ok {
		a.versionAttempts++
		if a.versionAttempts >= VersionAttemptsMax || a.channel.Closed() {
			a.close(ReasonSendingVersionFailed)
			return
		}
		a.armTimer(timerNameVersionRetry, VersionRetryDelay, a.handshake)
		return
	}

	a.versionSent = true
	a.st = stateVersionSent

	if !a.versionReceived {
		a.armTimer(timerNameVersion, HandshakeTimeout, func() {
			a.close(ReasonVersionTimeout)
		})
	} else if a.peerAddressVerified {
		a.sendVerack()
	}

	a.armTimer(timerNameVerack, HandshakeTimeout*2, func() {
		a.close(ReasonVerackTimeout)
	})
}

func (a *Agent) onVersion(v collab.VersionMsg) {
	if a.closed || a.versionReceived {
		return
	}

	a.timers.Cancel(timerNameVersion)

	if v.ProtocolVersion < MinProtocolVersion {
		a.channel.SendReject(MsgVersion, RejectCodeObsolete, "unsupported protocol version")
		a.close(ReasonIncompatibleVersion)
		return
	}
	if v.GenesisHash != a.genesisHash {
		a.close(ReasonDifferentGenesisBlock)
		return
	}
	remoteAddr := v.PeerAddress
	if !remoteAddr.Verify(signerAdapter{a.crypto}) {
		a.close(ReasonInvalidPeerAddressInVersion)
		return
	}

	if expected, ok := a.channel.PeerAddress(); ok {
		if expected.Key() != remoteAddr.Key() {
			a.close(ReasonUnexpectedPeerAddrInVersion)
			return
		}
		a.peerAddressVerified = true
	} else {
		if remoteAddr.Locator == "" {
			if book, ok := a.book.Get(remoteAddr.ID); ok {
				remoteAddr = book
			}
		}
		a.channel.SetPeerAddress(remoteAddr)
	}

	a.peer = &Peer{
		ID:              remoteAddr.ID,
		Address:         remoteAddr,
		ProtocolVersion: v.ProtocolVersion,
		HeadHash:        v.HeadHash,
		TimeOffset:      time.Unix(v.Timestamp, 0).Sub(a.clock.Now()),
	}
	a.peerChallengeNonce = v.ChallengeNonce
	a.versionReceived = true
	a.st = stateVersionReceived

	a.observers.fireVersion(remoteAddr.ID, remoteAddr)
	if a.closed {
		return
	}

	needHandshake := !a.versionSent
	needVerack := a.peerAddressVerified && !a.verackSent

	if needHandshake {
		a.handshake()
		return
	}
	if needVerack {
		a.sendVerack()
	}
}

func (a *Agent) sendVerack() {
	assertInvariant(a.peerAddressVerified, "sendVerack called before peerAddressVerified")
	if a.verackSent || a.closed {
		return
	}

	payload := append(append([]byte{}, a.peer.ID[:]...), a.peerChallengeNonce...)
	sig, err := a.crypto.Sign(a.net.PrivateKey(), payload)
	if err != nil {
		a.log.Error("failed to sign verack payload", zap.Error(err))
		return
	}
	a.channel.SendVerack(a.net.PublicKey(), sig)
	a.verackSent = true
	a.st = stateVerackSent

	if a.verackReceived {
		a.finish()
	}
}

func (a *Agent) onVerack(v collab.VerackMsg) {
	if a.closed || !a.versionReceived || a.verackReceived {
		return
	}

	a.timers.Cancel(timerNameVerack)

	if a.crypto.PeerID(v.PublicKey) != a.peer.ID {
		a.close(ReasonInvalidPublicKeyInVerack)
		return
	}
	payload := append(append([]byte{}, selfPeerID(a)[:]...), a.challengeNonce...)
	if !a.crypto.Verify(v.PublicKey, v.Signature, payload) {
		a.close(ReasonInvalidSignatureInVerack)
		return
	}

	if !a.peerAddressVerified {
		a.peerAddressVerified = true
		a.sendVerack()
	}

	a.insertKnown(a.peer.Address)
	a.verackReceived = true
	a.st = stateVerackReceived

	if a.verackSent {
		a.finish()
	}
}

func (a *Agent) finish() {
	if a.st == stateEstablished {
		return
	}
	a.st = stateEstablished

	a.armTimer(timerNameConnectivity, ConnectivityCheckInterval, a.connectivityTick)
	a.scheduleAnnounce()
	a.addrQueue.Start(AddrQueueInterval, MaxAddrRelayPerMessage)

	assertInvariant(!a.handshakeFired, "handshake event fired twice")
	a.handshakeFired = true
	a.observers.fireHandshake(a.peer.ID)
	if a.closed {
		return
	}

	a.channel.SendGetAddr(a.net.ProtocolMask(), a.net.AcceptedServices())
}

func (a *Agent) scheduleAnnounce() {
	a.armTimer(timerNameAnnounce, AnnounceAddrInterval, func() {
		a.relayAddresses([]peeraddr.PeerAddress{a.net.PeerAddress()})
		a.scheduleAnnounce()
	})
}

// Close tears the agent down: cancels every timer, stops the relay queue,
// and closes the channel with code/reason. Idempotent (spec.md §4.6).
func (a *Agent) Close(code, reason string) {
	a.post(func() {
		a.closeWithCode(code, reason)
	})
}

func (a *Agent) close(reason CloseReason) {
	a.closeWithCode(string(reason), string(reason))
}

func (a *Agent) closeWithCode(code, reason string) {
	if a.closed {
		return
	}
	a.closed = true
	a.st = stateClosed
	a.timers.CancelAll()
	a.addrQueue.Stop()
	a.channel.Close(code, reason)
	peerID := peeraddr.PeerID{}
	if a.peer != nil {
		peerID = a.peer.ID
	}
	a.observers.fireClose(peerID, CloseReason(reason))
}

func (a *Agent) teardown(fallback CloseReason, useFallback bool) {
	if a.closed {
		return
	}
	reason := ""
	if useFallback {
		reason = string(fallback)
	}
	a.closeWithCode(reason, reason)
}

// selfPeerID derives the local peer id from configured keys; split out so
// onVerack reads as "our id, not the peer's."
func selfPeerID(a *Agent) peeraddr.PeerID {
	return a.crypto.PeerID(a.net.PublicKey())
}

func (a *Agent) insertKnown(addr peeraddr.PeerAddress) {
	a.knownAddresses[addr.Key()] = knownEntry{addr: addr, timestamp: a.clock.Now()}
}

// signerAdapter makes a collab.Crypto satisfy peeraddr.Signer without the
// two packages importing each other.
type signerAdapter struct {
	c collab.Crypto
}

func (s signerAdapter) Verify(pubKey, sig, msg []byte) bool { return s.c.Verify(pubKey, sig, msg) }
func (s signerAdapter) PeerID(pubKey []byte) peeraddr.PeerID { return s.c.PeerID(pubKey) }
func (s signerAdapter) Sign(privKey, msg []byte) ([]byte, error) { return s.c.Sign(privKey, msg) }

const (
	timerNameVersion       = "version"
	timerNameVersionRetry  = "version_retry"
	timerNameVerack        = "verack"
	timerNameConnectivity  = "connectivity"
	timerNameAnnounce      = "announce-addr"
)

func pingTimerName(nonce uint32) string {
	return fmt.Sprintf("ping_%d", nonce)
}
