package netchannel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rubin.dev/peeragent/p2p"
	"rubin.dev/peeragent/peeraddr"
)

// wireMessage is the WebSocket framing: gorilla/websocket already delimits
// messages, so there is no header/checksum/length envelope here, just the
// command tag and JSON payload that envelope.go's TCP framing carries
// alongside its own length prefix.
type wireMessage struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

// WSTransport is the WebSocket-backed collab.Channel, grounded on the same
// base as Transport but framing each message as a single WS text message
// instead of a length-prefixed byte stream.
type WSTransport struct {
	base

	conn    *websocket.Conn
	genesis [32]byte
	log     *zap.Logger
}

var wsDialer = websocket.Dialer{HandshakeTimeout: 10 * time.Second}

// DialWS opens an outbound WebSocket channel to a ws:// or wss:// URL.
func DialWS(rawURL string, genesis [32]byte, logger *zap.Logger) (*WSTransport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("netchannel: parse ws url: %w", err)
	}
	conn, _, err := wsDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	return NewWSTransport(conn, genesis, logger), nil
}

// UpgradeWS promotes an already-accepted HTTP request to a WebSocket
// channel, for a listener side.
func UpgradeWS(w http.ResponseWriter, r *http.Request, genesis [32]byte, logger *zap.Logger) (*WSTransport, error) {
	upgrader := websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewWSTransport(conn, genesis, logger), nil
}

// NewWSTransport wraps an established *websocket.Conn as a collab.Channel.
// See NewTransport for why genesis is supplied here rather than
// threaded through SendVersion's call signature.
func NewWSTransport(conn *websocket.Conn, genesis [32]byte, logger *zap.Logger) *WSTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &WSTransport{base: newBase(), conn: conn, genesis: genesis, log: logger.With(zap.String("module", "netchannel.ws"))}
	go t.readLoop()
	return t
}

func (t *WSTransport) readLoop() {
	defer t.markClosed()
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		var wm wireMessage
		if err := json.Unmarshal(data, &wm); err != nil {
			t.log.Warn("dropping undecodable ws message", zap.Error(err))
			continue
		}
		t.markReceived(time.Now())
		ev, err := decodeFrame(wm.Command, wm.Payload)
		if err != nil {
			t.log.Warn("dropping undecodable ws payload", zap.Error(err))
			continue
		}
		t.deliver(ev)
	}
}

func (t *WSTransport) send(command string, payload []byte, err error) bool {
	if err != nil {
		t.log.Error("failed to encode outbound message", zap.String("command", command), zap.Error(err))
		return false
	}
	wm, err := json.Marshal(wireMessage{Command: command, Payload: payload})
	if err != nil {
		t.log.Error("failed to wrap outbound message", zap.String("command", command), zap.Error(err))
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if writeErr := t.conn.WriteMessage(websocket.TextMessage, wm); writeErr != nil {
		t.log.Warn("failed to write ws message", zap.String("command", command), zap.Error(writeErr))
		return false
	}
	return true
}

func (t *WSTransport) SendVersion(addr peeraddr.PeerAddress, head [32]byte, nonce []byte) bool {
	p, err := encodeVersion(addr, head, nonce, t.genesis, time.Now().Unix())
	return t.send(p2p.MsgVersion, p, err)
}

func (t *WSTransport) SendVerack(pubKey, sig []byte) bool {
	p, err := encodeVerack(pubKey, sig)
	return t.send(p2p.MsgVerack, p, err)
}

func (t *WSTransport) SendAddr(list []peeraddr.PeerAddress) bool {
	p, err := encodeAddr(list)
	return t.send(p2p.MsgAddr, p, err)
}

func (t *WSTransport) SendGetAddr(protocolMask []peeraddr.Protocol, serviceMask peeraddr.Services) bool {
	p, err := encodeGetAddr(protocolMask, serviceMask)
	return t.send(p2p.MsgGetAddr, p, err)
}

func (t *WSTransport) SendPing(nonce uint32) bool {
	p, err := encodePingPong(nonce)
	return t.send(p2p.MsgPing, p, err)
}

func (t *WSTransport) SendPong(nonce uint32) bool {
	p, err := encodePingPong(nonce)
	return t.send(p2p.MsgPong, p, err)
}

func (t *WSTransport) SendReject(msgType string, code byte, reason string) bool {
	p, err := encodeReject(msgType, code, reason)
	return t.send(p2p.MsgReject, p, err)
}

func (t *WSTransport) Close(code, reason string) {
	t.log.Info("closing ws channel", zap.String("code", code), zap.String("reason", reason))
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), time.Now().Add(time.Second))
	_ = t.conn.Close()
	t.markClosed()
}
