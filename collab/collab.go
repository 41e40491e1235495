// Package collab declares the external collaborators the per-peer agent
// consumes but never owns: the blockchain state provider, the peer-address
// book, local network configuration, the peer channel, and crypto
// primitives. spec.md §1/§6 treats all five as out-of-scope; this package
// is the narrow seam the agent is built against so it stays testable
// without a real chain, a real socket, or real keys.
package collab

import (
	"time"

	"rubin.dev/peeragent/peeraddr"
)

// BlockchainProvider supplies the current chain head. A higher layer owns
// sync/consensus; the agent only ever reads HeadHash.
type BlockchainProvider interface {
	HeadHash() [32]byte
}

// AddressBook stores, queries, and ages peer-address records across many
// agents concurrently; implementations must provide their own internal
// consistency (spec.md §5 "Shared resources").
type AddressBook interface {
	// Get returns the record this book holds for id, if any.
	Get(id peeraddr.PeerID) (peeraddr.PeerAddress, bool)
	// Query returns up to maxCount addresses matching protocolMask (zero =
	// any) and offering at least one bit of serviceMask (zero = any).
	Query(protocolMask []peeraddr.Protocol, serviceMask peeraddr.Services, maxCount int) []peeraddr.PeerAddress
	// Add ingests list as learned from source (a channel's remote peer id,
	// or "" for self-sourced addresses).
	Add(source string, list []peeraddr.PeerAddress) error
}

// NetworkConfig owns the local keypair, local peer address, and the masks
// this node advertises and accepts.
type NetworkConfig interface {
	PeerAddress() peeraddr.PeerAddress
	PrivateKey() []byte
	PublicKey() []byte
	ProtocolMask() []peeraddr.Protocol
	AcceptedServices() peeraddr.Services
}

// Crypto is the narrow primitive surface the agent needs: signature
// creation/verification, secure random, and peer-id derivation. A concrete
// provider (package agentcrypto) also satisfies peeraddr.Signer
// structurally, without either package importing the other.
type Crypto interface {
	Sign(privKey, msg []byte) ([]byte, error)
	Verify(pubKey, sig, msg []byte) bool
	PeerID(pubKey []byte) peeraddr.PeerID
	Random(buf []byte) error
}

// Channel frames messages on an underlying transport and surfaces them to
// the agent as an async message port. The agent never touches the
// transport directly.
type Channel interface {
	// PeerAddress is the address this channel is known to be reachable at,
	// if learned (outbound: known before connecting; inbound: empty until
	// filled in from a version message or the address book).
	PeerAddress() (peeraddr.PeerAddress, bool)
	SetPeerAddress(peeraddr.PeerAddress)

	Closed() bool
	LastMessageReceivedAt() time.Time

	// Events returns the channel's inbound event stream. Closed when the
	// channel closes.
	Events() <-chan Event

	SendVersion(addr peeraddr.PeerAddress, head [32]byte, nonce []byte) bool
	SendVerack(pubKey, sig []byte) bool
	SendAddr(list []peeraddr.PeerAddress) bool
	SendGetAddr(protocolMask []peeraddr.Protocol, serviceMask peeraddr.Services) bool
	SendPing(nonce uint32) bool
	SendPong(nonce uint32) bool
	SendReject(msgType string, code byte, reason string) bool

	Close(code, reason string)
}

// EventKind enumerates the inbound event stream's message kinds.
type EventKind int

const (
	EventVersion EventKind = iota
	EventVerack
	EventAddr
	EventGetAddr
	EventPing
	EventPong
	EventClose
)

// Event is one inbound item delivered to the agent in channel delivery
// order (spec.md §5 "Ordering guarantees").
type Event struct {
	Kind EventKind

	Version VersionMsg
	Verack  VerackMsg
	Addr    []peeraddr.PeerAddress
	GetAddr GetAddrMsg
	Ping    PingMsg
	Pong    PongMsg
}

// VersionMsg is the decoded payload of an inbound version message.
type VersionMsg struct {
	PeerAddress     peeraddr.PeerAddress
	HeadHash        [32]byte
	ChallengeNonce  []byte
	ProtocolVersion uint32
	GenesisHash     [32]byte
	Timestamp       int64
}

// VerackMsg is the decoded payload of an inbound verack message.
type VerackMsg struct {
	PublicKey []byte
	Signature []byte
}

// GetAddrMsg is the decoded payload of an inbound getAddr message.
type GetAddrMsg struct {
	ProtocolMask []peeraddr.Protocol
	ServiceMask  peeraddr.Services
}

// PingMsg is the decoded payload of an inbound ping message.
type PingMsg struct {
	Nonce uint32
}

// PongMsg is the decoded payload of an inbound pong message.
type PongMsg struct {
	Nonce uint32
}
