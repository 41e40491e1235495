package agentcrypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	p := New()
	msg := []byte("challenge-nonce-payload")
	sig, err := p.Sign(priv, msg)
	require.NoError(t, err)
	require.True(t, p.Verify(pub, sig, msg))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	p := New()
	sig, err := p.Sign(priv, []byte("original"))
	require.NoError(t, err)
	require.False(t, p.Verify(pub, sig, []byte("tampered")))
}

func TestPeerIDIsDeterministic(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	p := New()
	id1 := p.PeerID(pub)
	id2 := p.PeerID(pub)
	require.Equal(t, id1, id2)
	require.False(t, id1.IsZero())
}

func TestRandomFillsDistinctBuffers(t *testing.T) {
	p := New()
	var a, b [16]byte
	require.NoError(t, p.Random(a[:]))
	require.NoError(t, p.Random(b[:]))
	require.NotEqual(t, a, b)
}
