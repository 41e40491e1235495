// Package agentcrypto is the concrete implementation of collab.Crypto (and,
// structurally, peeraddr.Signer): secp256k1 signatures, blake256 peer-id
// derivation, and crypto/rand-backed secure random fill.
//
// The teacher's own crypto.CryptoProvider (rubin.dev/node/crypto) only
// verifies post-quantum signatures behind a cgo wolfCrypt shim this sandbox
// can't build against, and has no Sign method at all — this agent signs its
// own version/verack payloads, so the signature scheme is grounded on the
// rest of the retrieval pack instead (shotasilagadze-handshake and
// nspcc-dev-neo-go both depend on github.com/decred/dcrd/dcrec/secp256k1/v4).
package agentcrypto

import (
	"crypto/rand"
	"fmt"

	"github.com/decred/dcrd/crypto/blake256"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"rubin.dev/peeragent/peeraddr"
)

// Provider is the default, pure-Go collab.Crypto implementation.
type Provider struct{}

// New returns a ready-to-use Provider. It holds no state.
func New() Provider {
	return Provider{}
}

// Sign signs msg's blake256 digest with the secp256k1 private key privKey
// (32 raw bytes) and returns a DER-encoded signature.
func (Provider) Sign(privKey, msg []byte) ([]byte, error) {
	if len(privKey) != 32 {
		return nil, fmt.Errorf("agentcrypto: sign: private key must be 32 bytes, got %d", len(privKey))
	}
	priv := secp256k1.PrivKeyFromBytes(privKey)
	defer priv.Zero()
	digest := blake256.Sum256(msg)
	sig := ecdsa.Sign(priv, digest[:])
	return sig.Serialize(), nil
}

// Verify reports whether sig is a valid secp256k1 signature by pubKey
// (33-byte compressed form) over msg's blake256 digest.
func (Provider) Verify(pubKey, sig, msg []byte) bool {
	pub, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := blake256.Sum256(msg)
	return parsed.Verify(digest[:], pub)
}

// PeerID derives a peeraddr.PeerID from a public key: the first 20 bytes of
// its blake256 hash (GLOSSARY: "Peer id").
func (Provider) PeerID(pubKey []byte) peeraddr.PeerID {
	digest := blake256.Sum256(pubKey)
	var id peeraddr.PeerID
	copy(id[:], digest[:len(id)])
	return id
}

// Random fills buf with cryptographically secure random bytes.
func (Provider) Random(buf []byte) error {
	_, err := rand.Read(buf)
	if err != nil {
		return fmt.Errorf("agentcrypto: random: %w", err)
	}
	return nil
}

// GenerateKeyPair returns a fresh secp256k1 private key (32 bytes) and its
// compressed public key (33 bytes), for demo/test wiring.
func GenerateKeyPair() (priv, pub []byte, err error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, nil, fmt.Errorf("agentcrypto: generate key pair: %w", err)
	}
	key := secp256k1.PrivKeyFromBytes(buf[:])
	defer key.Zero()
	return buf[:], key.PubKey().SerializeCompressed(), nil
}
