package p2p

// CloseReason is one of the wire-visible close reason codes this agent
// issues (spec.md §6). It is never a Go error: protocol violations close
// the channel with the specific code, nothing propagates past the event
// surface (spec.md §7).
type CloseReason string

const (
	ReasonSendingVersionFailed         CloseReason = "SENDING_OF_VERSION_MESSAGE_FAILED"
	ReasonVersionTimeout               CloseReason = "VERSION_TIMEOUT"
	ReasonVerackTimeout                CloseReason = "VERACK_TIMEOUT"
	ReasonIncompatibleVersion          CloseReason = "INCOMPATIBLE_VERSION"
	ReasonDifferentGenesisBlock        CloseReason = "DIFFERENT_GENESIS_BLOCK"
	ReasonInvalidPeerAddressInVersion  CloseReason = "INVALID_PEER_ADDRESS_IN_VERSION_MESSAGE"
	ReasonUnexpectedPeerAddrInVersion  CloseReason = "UNEXPECTED_PEER_ADDRESS_IN_VERSION_MESSAGE"
	ReasonInvalidPublicKeyInVerack     CloseReason = "INVALID_PUBLIC_KEY_IN_VERACK_MESSAGE"
	ReasonInvalidSignatureInVerack     CloseReason = "INVALID_SIGNATURE_IN_VERACK_MESSAGE"
	ReasonAddrMessageTooLarge          CloseReason = "ADDR_MESSAGE_TOO_LARGE"
	ReasonRateLimitExceeded            CloseReason = "RATE_LIMIT_EXCEEDED"
	ReasonInvalidAddr                  CloseReason = "INVALID_ADDR"
	ReasonAddrNotGloballyReachable     CloseReason = "ADDR_NOT_GLOBALLY_REACHABLE"
	ReasonSendingPingFailed            CloseReason = "SENDING_PING_MESSAGE_FAILED"
	ReasonPingTimeout                  CloseReason = "PING_TIMEOUT"
)
