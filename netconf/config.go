// Package netconf is the concrete collab.NetworkConfig: the local keypair,
// local peer address, and the protocol/service masks this node advertises
// and accepts. Shape (plain struct + Default + Validate) is carried
// directly from the teacher's node/config.go.
package netconf

import (
	"errors"
	"fmt"
	"strings"

	"rubin.dev/peeragent/peeraddr"
)

// Config is the local network configuration collaborator.
type Config struct {
	PeerAddr     peeraddr.PeerAddress
	PrivKey      []byte
	PubKey       []byte
	Protocols    []peeraddr.Protocol
	Services     peeraddr.Services
}

// Default returns a Config with a WebSocket+Dumb protocol mask and no services
// required of peers; callers must still fill in PeerAddr/PrivKey/PubKey.
func Default() Config {
	return Config{
		Protocols: []peeraddr.Protocol{peeraddr.ProtocolWebSocket, peeraddr.ProtocolDumb},
		Services:  0,
	}
}

// Validate rejects configs with no signing key or empty locator.
func Validate(cfg Config) error {
	if len(cfg.PrivKey) == 0 {
		return errors.New("netconf: private key is required")
	}
	if len(cfg.PubKey) == 0 {
		return errors.New("netconf: public key is required")
	}
	if strings.TrimSpace(cfg.PeerAddr.Locator) == "" {
		return errors.New("netconf: peer address locator is required")
	}
	if len(cfg.Protocols) == 0 {
		return errors.New("netconf: at least one protocol must be accepted")
	}
	return nil
}

// PeerAddress implements collab.NetworkConfig.
func (c Config) PeerAddress() peeraddr.PeerAddress { return c.PeerAddr }

// PrivateKey implements collab.NetworkConfig.
func (c Config) PrivateKey() []byte { return c.PrivKey }

// PublicKey implements collab.NetworkConfig.
func (c Config) PublicKey() []byte { return c.PubKey }

// ProtocolMask implements collab.NetworkConfig.
func (c Config) ProtocolMask() []peeraddr.Protocol { return c.Protocols }

// AcceptedServices implements collab.NetworkConfig.
func (c Config) AcceptedServices() peeraddr.Services { return c.Services }

// String is a safe, key-material-free summary for logging.
func (c Config) String() string {
	return fmt.Sprintf("netconf{locator=%s protocols=%v services=%v}", c.PeerAddr.Locator, c.Protocols, c.Services)
}
