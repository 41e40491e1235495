// Package peeraddr defines the signed peer-address record exchanged between
// agents: protocol, network locator, services mask, timestamp, signature,
// and the peer id derived from the signer's public key.
package peeraddr

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"
)

// PeerID is the deterministic short identifier derived from a node's public
// key (GLOSSARY: "Peer id").
type PeerID [20]byte

func (id PeerID) String() string {
	return fmt.Sprintf("%x", id[:])
}

// IsZero reports whether id is the zero value (no identity derived yet).
func (id PeerID) IsZero() bool {
	return id == PeerID{}
}

// Protocol is the transport a peer address is reachable over.
type Protocol byte

const (
	ProtocolWebSocket Protocol = iota + 1
	ProtocolWebRTC
	ProtocolDumb
)

func (p Protocol) String() string {
	switch p {
	case ProtocolWebSocket:
		return "websocket"
	case ProtocolWebRTC:
		return "webrtc"
	case ProtocolDumb:
		return "dumb"
	default:
		return "unknown"
	}
}

// Services is a bitmask of services a peer offers.
type Services uint32

// Has reports whether mask names any service also named by want (treated as
// a zero-mask "accept anything" when want is zero, matching getAddr's
// serviceMask semantics).
func (s Services) Has(want Services) bool {
	if want == 0 {
		return true
	}
	return s&want != 0
}

// Signer is the narrow verification surface peeraddr needs from a crypto
// provider. A concrete provider (see package agentcrypto) satisfies this
// structurally; peeraddr never imports collab to avoid an import cycle
// between the two collaborator-facing packages.
type Signer interface {
	Verify(pubKey, sig, msg []byte) bool
	PeerID(pubKey []byte) PeerID
	Sign(privKey, msg []byte) ([]byte, error)
}

// PeerAddress is a signed record identifying a remote node.
type PeerAddress struct {
	Protocol  Protocol
	Locator   string // host:port (WebSocket/Dumb) or signaling id (WebRTC)
	Services  Services
	Timestamp int64 // unix seconds, as declared by the signer
	Distance  int   // WebRTC hop count; meaningless for other protocols
	Seed      bool  // bootstrap address, never relayed

	PublicKey []byte
	Signature []byte
	ID        PeerID
}

// SignedPayload returns the canonical bytes this address's signature covers.
// Distance and Seed are local bookkeeping, not part of the signed record.
func (a *PeerAddress) SignedPayload() []byte {
	var buf []byte
	buf = append(buf, byte(a.Protocol))
	buf = append(buf, a.Locator...)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(a.Services))
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint64(tmp[:], uint64(a.Timestamp))
	buf = append(buf, tmp[:]...)
	return buf
}

// Sign derives the peer id from pubKey and signs the canonical payload,
// filling PublicKey, Signature, and ID.
func (a *PeerAddress) Sign(signer Signer, privKey, pubKey []byte) error {
	sig, err := signer.Sign(privKey, a.SignedPayload())
	if err != nil {
		return fmt.Errorf("peeraddr: sign: %w", err)
	}
	a.PublicKey = pubKey
	a.Signature = sig
	a.ID = signer.PeerID(pubKey)
	return nil
}

// Verify reports whether a's signature is valid over its own declared
// fields and whether the declared peer id matches the public key.
func (a *PeerAddress) Verify(signer Signer) bool {
	if len(a.PublicKey) == 0 || len(a.Signature) == 0 {
		return false
	}
	if signer.PeerID(a.PublicKey) != a.ID {
		return false
	}
	return signer.Verify(a.PublicKey, a.Signature, a.SignedPayload())
}

// GloballyReachable reports whether the address's locator resolves to a
// publicly routable host:port (GLOSSARY: "Globally reachable"). Only
// meaningful for WebSocket/Dumb addresses that carry a host:port locator.
func (a *PeerAddress) GloballyReachable() bool {
	host, _, err := net.SplitHostPort(a.Locator)
	if err != nil {
		host = a.Locator
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		// Not a literal IP (e.g. a DNS name or WebRTC signaling id); treat
		// as reachable and let the caller's resolver catch bad names.
		return true
	}
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified() {
		return false
	}
	return true
}

// Key is the identity this agent groups known/seen addresses by.
func (a *PeerAddress) Key() PeerID {
	return a.ID
}
