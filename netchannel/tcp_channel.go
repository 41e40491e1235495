package netchannel

import (
	"net"
	"time"

	"go.uber.org/zap"

	"rubin.dev/peeragent/p2p"
	"rubin.dev/peeragent/peeraddr"
)

// Transport is the TCP-backed collab.Channel: it frames messages over
// net.Conn with the checksum envelope and turns inbound frames into
// collab.Event values on its own read-loop goroutine, mirroring how the
// teacher's Peer.Run loop drives a blocking net.Conn.
type Transport struct {
	base

	conn    net.Conn
	magic   uint32
	genesis [32]byte
	log     *zap.Logger
}

// Dial opens an outbound TCP channel to addr.
func Dial(network, addr string, magic uint32, genesis [32]byte, logger *zap.Logger) (*Transport, error) {
	conn, err := net.DialTimeout(network, addr, 10*time.Second)
	if err != nil {
		return nil, err
	}
	return NewTransport(conn, magic, genesis, logger), nil
}

// NewTransport wraps an already-established conn (e.g. one accepted by a
// listener) as a collab.Channel. genesis is this node's own genesis hash,
// carried on every outbound version frame — spec.md's Channel.version(addr,
// head, nonce) signature has no genesis parameter of its own, so the
// transport binding supplies it from its own construction-time config
// rather than the agent threading it through per call.
func NewTransport(conn net.Conn, magic uint32, genesis [32]byte, logger *zap.Logger) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Transport{base: newBase(), conn: conn, magic: magic, genesis: genesis, log: logger.With(zap.String("module", "netchannel.tcp"))}
	go t.readLoop()
	return t
}

func (t *Transport) readLoop() {
	defer t.markClosed()
	for {
		frame, ferr := ReadFrame(t.conn, t.magic)
		if ferr != nil {
			if ferr.Disconnect {
				return
			}
			t.log.Warn("dropping malformed frame", zap.Error(ferr.Err))
			continue
		}
		t.markReceived(time.Now())
		ev, err := decodeFrame(frame.Command, frame.Payload)
		if err != nil {
			t.log.Warn("dropping undecodable frame", zap.Error(err))
			continue
		}
		t.deliver(ev)
	}
}

func (t *Transport) send(command string, payload []byte, err error) bool {
	if err != nil {
		t.log.Error("failed to encode outbound frame", zap.String("command", command), zap.Error(err))
		return false
	}
	if writeErr := WriteFrame(t.conn, t.magic, command, payload); writeErr != nil {
		t.log.Warn("failed to write frame", zap.String("command", command), zap.Error(writeErr))
		return false
	}
	return true
}

func (t *Transport) SendVersion(addr peeraddr.PeerAddress, head [32]byte, nonce []byte) bool {
	p, err := encodeVersion(addr, head, nonce, t.genesis, time.Now().Unix())
	return t.send(p2p.MsgVersion, p, err)
}

func (t *Transport) SendVerack(pubKey, sig []byte) bool {
	p, err := encodeVerack(pubKey, sig)
	return t.send(p2p.MsgVerack, p, err)
}

func (t *Transport) SendAddr(list []peeraddr.PeerAddress) bool {
	p, err := encodeAddr(list)
	return t.send(p2p.MsgAddr, p, err)
}

func (t *Transport) SendGetAddr(protocolMask []peeraddr.Protocol, serviceMask peeraddr.Services) bool {
	p, err := encodeGetAddr(protocolMask, serviceMask)
	return t.send(p2p.MsgGetAddr, p, err)
}

func (t *Transport) SendPing(nonce uint32) bool {
	p, err := encodePingPong(nonce)
	return t.send(p2p.MsgPing, p, err)
}

func (t *Transport) SendPong(nonce uint32) bool {
	p, err := encodePingPong(nonce)
	return t.send(p2p.MsgPong, p, err)
}

func (t *Transport) SendReject(msgType string, code byte, reason string) bool {
	p, err := encodeReject(msgType, code, reason)
	return t.send(p2p.MsgReject, p, err)
}

func (t *Transport) Close(code, reason string) {
	t.log.Info("closing tcp channel", zap.String("code", code), zap.String("reason", reason))
	_ = t.conn.Close()
	t.markClosed()
}
