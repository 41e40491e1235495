package p2p

import "time"

// Wire-visible timing and size constants (spec.md §6). These must match
// byte-for-byte with interoperating peers; do not tune them per deployment.
const (
	HandshakeTimeout          = 4000 * time.Millisecond
	PingTimeout               = 10000 * time.Millisecond
	ConnectivityCheckInterval = 60000 * time.Millisecond
	AnnounceAddrInterval      = 300000 * time.Millisecond
	RelayThrottle             = 120000 * time.Millisecond
	VersionAttemptsMax        = 10
	VersionRetryDelay         = 500 * time.Millisecond
	AddrRateLimit             = 2000
	AddrQueueInterval         = 5000 * time.Millisecond
	MaxAddrPerMessage         = 1000
	MaxAddrRelayPerMessage    = 10
)

// Deployment-local constants the wire protocol doesn't fix a value for.
// spec.md §6/§9 names these without a number; they are chosen here as
// package constants, like the ones above, and Config has no field to
// override them.
const (
	// AddrRateLimitWindow is the fixed window ADDR_RATE_LIMIT counts
	// against, both inbound (§4.4) and outbound (§4.3). Picked as a
	// generous multiple of AddrQueueInterval so a healthy peer relaying at
	// MaxAddrRelayPerMessage every AddrQueueInterval never trips it.
	AddrRateLimitWindow = 10 * time.Minute

	// AddrQueueSizeCap bounds the relay queue's FIFO depth (spec.md §4.3
	// "size-bounded FIFO"); arrivals past this cap are dropped.
	AddrQueueSizeCap = 1000

	// MaxDistance bounds WebRTC address-propagation hop count (GLOSSARY).
	MaxDistance = 4

	// ProtocolVersion is this agent's own version; MinProtocolVersion is
	// the oldest remote version still considered compatible (spec.md
	// §4.1 "remote protocol version is incompatible").
	ProtocolVersion    = 1
	MinProtocolVersion = 1
)
