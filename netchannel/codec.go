package netchannel

import (
	"encoding/json"
	"fmt"

	"rubin.dev/peeragent/collab"
	"rubin.dev/peeragent/p2p"
	"rubin.dev/peeragent/peeraddr"
)

// Wire payload shapes. JSON is the encoding (matching the teacher's own
// use of encoding/json for on-disk address records in addrbook); the
// envelope above supplies the framing, checksum, and length-prefixing a
// binary transport needs regardless of payload format.

type versionPayload struct {
	PeerAddress     peeraddr.PeerAddress `json:"peer_address"`
	HeadHash        [32]byte             `json:"head_hash"`
	ChallengeNonce  []byte               `json:"challenge_nonce"`
	ProtocolVersion uint32               `json:"protocol_version"`
	GenesisHash     [32]byte             `json:"genesis_hash"`
	Timestamp       int64                `json:"timestamp"`
}

type verackPayload struct {
	PublicKey []byte `json:"public_key"`
	Signature []byte `json:"signature"`
}

type addrPayload struct {
	Addresses []peeraddr.PeerAddress `json:"addresses"`
}

type getAddrPayload struct {
	ProtocolMask []peeraddr.Protocol `json:"protocol_mask"`
	ServiceMask  peeraddr.Services   `json:"service_mask"`
}

type pingPongPayload struct {
	Nonce uint32 `json:"nonce"`
}

type rejectPayload struct {
	MsgType string `json:"msg_type"`
	Code    byte   `json:"code"`
	Reason  string `json:"reason"`
}

// decodeFrame turns a command name and JSON payload into a collab.Event.
func decodeFrame(command string, payload []byte) (collab.Event, error) {
	switch command {
	case p2p.MsgVersion:
		var v versionPayload
		if err := json.Unmarshal(payload, &v); err != nil {
			return collab.Event{}, fmt.Errorf("netchannel: decode version: %w", err)
		}
		return collab.Event{Kind: collab.EventVersion, Version: collab.VersionMsg{
			PeerAddress: v.PeerAddress, HeadHash: v.HeadHash, ChallengeNonce: v.ChallengeNonce,
			ProtocolVersion: v.ProtocolVersion, GenesisHash: v.GenesisHash, Timestamp: v.Timestamp,
		}}, nil
	case p2p.MsgVerack:
		var v verackPayload
		if err := json.Unmarshal(payload, &v); err != nil {
			return collab.Event{}, fmt.Errorf("netchannel: decode verack: %w", err)
		}
		return collab.Event{Kind: collab.EventVerack, Verack: collab.VerackMsg{PublicKey: v.PublicKey, Signature: v.Signature}}, nil
	case p2p.MsgAddr:
		var v addrPayload
		if err := json.Unmarshal(payload, &v); err != nil {
			return collab.Event{}, fmt.Errorf("netchannel: decode addr: %w", err)
		}
		return collab.Event{Kind: collab.EventAddr, Addr: v.Addresses}, nil
	case p2p.MsgGetAddr:
		var v getAddrPayload
		if err := json.Unmarshal(payload, &v); err != nil {
			return collab.Event{}, fmt.Errorf("netchannel: decode getaddr: %w", err)
		}
		return collab.Event{Kind: collab.EventGetAddr, GetAddr: collab.GetAddrMsg{ProtocolMask: v.ProtocolMask, ServiceMask: v.ServiceMask}}, nil
	case p2p.MsgPing:
		var v pingPongPayload
		if err := json.Unmarshal(payload, &v); err != nil {
			return collab.Event{}, fmt.Errorf("netchannel: decode ping: %w", err)
		}
		return collab.Event{Kind: collab.EventPing, Ping: collab.PingMsg{Nonce: v.Nonce}}, nil
	case p2p.MsgPong:
		var v pingPongPayload
		if err := json.Unmarshal(payload, &v); err != nil {
			return collab.Event{}, fmt.Errorf("netchannel: decode pong: %w", err)
		}
		return collab.Event{Kind: collab.EventPong, Pong: collab.PongMsg{Nonce: v.Nonce}}, nil
	default:
		return collab.Event{}, fmt.Errorf("netchannel: unknown command %q", command)
	}
}

func encodeVersion(addr peeraddr.PeerAddress, head [32]byte, nonce []byte, genesis [32]byte, timestamp int64) ([]byte, error) {
	return json.Marshal(versionPayload{
		PeerAddress: addr, HeadHash: head, ChallengeNonce: nonce,
		ProtocolVersion: p2p.ProtocolVersion, GenesisHash: genesis, Timestamp: timestamp,
	})
}

func encodeVerack(pub, sig []byte) ([]byte, error) {
	return json.Marshal(verackPayload{PublicKey: pub, Signature: sig})
}

func encodeAddr(list []peeraddr.PeerAddress) ([]byte, error) {
	return json.Marshal(addrPayload{Addresses: list})
}

func encodeGetAddr(protocolMask []peeraddr.Protocol, serviceMask peeraddr.Services) ([]byte, error) {
	return json.Marshal(getAddrPayload{ProtocolMask: protocolMask, ServiceMask: serviceMask})
}

func encodePingPong(nonce uint32) ([]byte, error) {
	return json.Marshal(pingPongPayload{Nonce: nonce})
}

func encodeReject(msgType string, code byte, reason string) ([]byte, error) {
	return json.Marshal(rejectPayload{MsgType: msgType, Code: code, Reason: reason})
}
