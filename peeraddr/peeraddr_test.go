package peeraddr_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rubin.dev/peeragent/agentcrypto"
	"rubin.dev/peeragent/peeraddr"
)

func newSigned(t *testing.T, protocol peeraddr.Protocol, locator string) peeraddr.PeerAddress {
	t.Helper()
	priv, pub, err := agentcrypto.GenerateKeyPair()
	require.NoError(t, err)

	addr := peeraddr.PeerAddress{
		Protocol:  protocol,
		Locator:   locator,
		Services:  1,
		Timestamp: time.Now().Unix(),
	}
	require.NoError(t, addr.Sign(agentcrypto.New(), priv, pub))
	return addr
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer := agentcrypto.New()
	addr := newSigned(t, peeraddr.ProtocolWebSocket, "203.0.113.5:8443")
	require.True(t, addr.Verify(signer))
}

func TestVerifyFailsOnMutatedField(t *testing.T) {
	signer := agentcrypto.New()
	addr := newSigned(t, peeraddr.ProtocolWebSocket, "203.0.113.5:8443")
	addr.Timestamp++
	require.False(t, addr.Verify(signer))
}

func TestGloballyReachable(t *testing.T) {
	cases := []struct {
		locator string
		want    bool
	}{
		{"203.0.113.5:8443", true},
		{"127.0.0.1:8443", false},
		{"10.0.0.5:8443", false},
		{"169.254.1.1:8443", false},
		{"0.0.0.0:8443", false},
		{"signaling-id-abcdef", true},
	}
	for _, c := range cases {
		addr := peeraddr.PeerAddress{Locator: c.locator}
		require.Equal(t, c.want, addr.GloballyReachable(), c.locator)
	}
}

func TestServicesHasZeroMaskAcceptsAnything(t *testing.T) {
	var s peeraddr.Services = 0
	require.True(t, s.Has(0))
	require.True(t, peeraddr.Services(4).Has(0))
	require.True(t, peeraddr.Services(0b101).Has(0b100))
	require.False(t, peeraddr.Services(0b010).Has(0b100))
}
