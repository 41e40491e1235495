package netchannel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rubin.dev/peeragent/agentcrypto"
	"rubin.dev/peeragent/collab"
	"rubin.dev/peeragent/p2p"
	"rubin.dev/peeragent/peeraddr"
)

func signedTestAddr(t *testing.T) peeraddr.PeerAddress {
	t.Helper()
	priv, pub, err := agentcrypto.GenerateKeyPair()
	require.NoError(t, err)
	addr := peeraddr.PeerAddress{Protocol: peeraddr.ProtocolWebSocket, Locator: "203.0.113.9:9000"}
	require.NoError(t, addr.Sign(agentcrypto.New(), priv, pub))
	return addr
}

func TestVersionCodecRoundTrip(t *testing.T) {
	addr := signedTestAddr(t)
	head := [32]byte{1, 2, 3}
	genesis := [32]byte{9, 9, 9}

	payload, err := encodeVersion(addr, head, []byte("nonce"), genesis, 1700000000)
	require.NoError(t, err)

	ev, err := decodeFrame(p2p.MsgVersion, payload)
	require.NoError(t, err)
	require.Equal(t, collab.EventVersion, ev.Kind)
	require.Equal(t, head, ev.Version.HeadHash)
	require.Equal(t, genesis, ev.Version.GenesisHash)
	require.Equal(t, []byte("nonce"), ev.Version.ChallengeNonce)
	require.Equal(t, addr.Locator, ev.Version.PeerAddress.Locator)
}

func TestVerackCodecRoundTrip(t *testing.T) {
	payload, err := encodeVerack([]byte("pub"), []byte("sig"))
	require.NoError(t, err)

	ev, err := decodeFrame(p2p.MsgVerack, payload)
	require.NoError(t, err)
	require.Equal(t, collab.EventVerack, ev.Kind)
	require.Equal(t, []byte("pub"), ev.Verack.PublicKey)
	require.Equal(t, []byte("sig"), ev.Verack.Signature)
}

func TestAddrCodecRoundTrip(t *testing.T) {
	list := []peeraddr.PeerAddress{signedTestAddr(t), signedTestAddr(t)}
	payload, err := encodeAddr(list)
	require.NoError(t, err)

	ev, err := decodeFrame(p2p.MsgAddr, payload)
	require.NoError(t, err)
	require.Equal(t, collab.EventAddr, ev.Kind)
	require.Len(t, ev.Addr, 2)
}

func TestGetAddrCodecRoundTrip(t *testing.T) {
	payload, err := encodeGetAddr([]peeraddr.Protocol{peeraddr.ProtocolWebSocket}, peeraddr.Services(1))
	require.NoError(t, err)

	ev, err := decodeFrame(p2p.MsgGetAddr, payload)
	require.NoError(t, err)
	require.Equal(t, collab.EventGetAddr, ev.Kind)
	require.Equal(t, []peeraddr.Protocol{peeraddr.ProtocolWebSocket}, ev.GetAddr.ProtocolMask)
}

func TestPingPongCodecRoundTrip(t *testing.T) {
	payload, err := encodePingPong(42)
	require.NoError(t, err)

	ev, err := decodeFrame(p2p.MsgPing, payload)
	require.NoError(t, err)
	require.Equal(t, collab.EventPing, ev.Kind)
	require.Equal(t, uint32(42), ev.Ping.Nonce)

	ev, err = decodeFrame(p2p.MsgPong, payload)
	require.NoError(t, err)
	require.Equal(t, collab.EventPong, ev.Kind)
	require.Equal(t, uint32(42), ev.Pong.Nonce)
}

func TestDecodeFrameUnknownCommand(t *testing.T) {
	_, err := decodeFrame("bogus", []byte("{}"))
	require.Error(t, err)
}

func TestDecodeFrameMalformedPayload(t *testing.T) {
	_, err := decodeFrame(p2p.MsgVersion, []byte("not json"))
	require.Error(t, err)
}
