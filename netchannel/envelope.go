// Package netchannel is the concrete collab.Channel: it frames agent
// messages on top of a real transport (TCP via Transport, WebSocket via
// WSTransport) and turns them into the agent's collab.Event stream.
// Envelope framing (fixed header, checksum, length prefix) is carried
// directly from the teacher's node/p2p/envelope.go.
package netchannel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode"

	"github.com/decred/dcrd/crypto/blake256"
)

const (
	// HeaderBytes is the fixed header length for every framed message:
	// 4-byte magic, 12-byte command, 4-byte length, 4-byte checksum.
	HeaderBytes  = 24
	CommandBytes = 12

	// MaxFrameBytes bounds a single frame's payload, independent of
	// MaxAddrPerMessage — a transport-layer ceiling, not a protocol one.
	MaxFrameBytes = 4 << 20
)

// Frame is one decoded message off the wire.
type Frame struct {
	Magic   uint32
	Command string
	Payload []byte
}

// FrameError conveys how a read failure should be treated: some are fatal
// to the connection, some (a single bad frame) are not.
type FrameError struct {
	Err        error
	Disconnect bool
}

func (e *FrameError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func checksum4(payload []byte) [4]byte {
	d := blake256.Sum256(payload)
	var out [4]byte
	copy(out[:], d[:4])
	return out
}

func encodeCommand(cmd string) ([CommandBytes]byte, error) {
	var out [CommandBytes]byte
	if cmd == "" || len(cmd) > CommandBytes {
		return out, fmt.Errorf("netchannel: command %q has invalid length", cmd)
	}
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		if c >= 0x80 || c == 0x00 || !unicode.IsPrint(rune(c)) {
			return out, fmt.Errorf("netchannel: command contains non-printable ASCII")
		}
		out[i] = c
	}
	return out, nil
}

func decodeCommand(b [CommandBytes]byte) (string, error) {
	n := CommandBytes
	for i := 0; i < CommandBytes; i++ {
		if b[i] == 0x00 {
			n = i
			break
		}
	}
	for i := n; i < CommandBytes; i++ {
		if b[i] != 0x00 {
			return "", fmt.Errorf("netchannel: command not NUL-right-padded")
		}
	}
	if n == 0 {
		return "", fmt.Errorf("netchannel: empty command")
	}
	return string(b[:n]), nil
}

// WriteFrame writes one framed message to w.
func WriteFrame(w io.Writer, magic uint32, command string, payload []byte) error {
	cmd12, err := encodeCommand(command)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameBytes {
		return fmt.Errorf("netchannel: payload too large")
	}
	c4 := checksum4(payload)

	var hdr [HeaderBytes]byte
	binary.BigEndian.PutUint32(hdr[0:4], magic)
	copy(hdr[4:16], cmd12[:])
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(payload)))
	copy(hdr[20:24], c4[:])

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrame reads exactly one framed message from r.
func ReadFrame(r io.Reader, expectedMagic uint32) (*Frame, *FrameError) {
	var hdr [HeaderBytes]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, &FrameError{Err: err, Disconnect: true}
	}

	magic := binary.BigEndian.Uint32(hdr[0:4])
	if magic != expectedMagic {
		return nil, &FrameError{Err: fmt.Errorf("netchannel: magic mismatch"), Disconnect: true}
	}

	var cmdBytes [CommandBytes]byte
	copy(cmdBytes[:], hdr[4:16])
	cmd, err := decodeCommand(cmdBytes)
	if err != nil {
		return nil, &FrameError{Err: err, Disconnect: false}
	}

	payloadLen := binary.LittleEndian.Uint32(hdr[16:20])
	if payloadLen > MaxFrameBytes {
		return nil, &FrameError{Err: fmt.Errorf("netchannel: payload length exceeds MaxFrameBytes"), Disconnect: true}
	}

	var expectedC4 [4]byte
	copy(expectedC4[:], hdr[20:24])

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, &FrameError{Err: err, Disconnect: true}
		}
	}

	if computed := checksum4(payload); !bytes.Equal(expectedC4[:], computed[:]) {
		return nil, &FrameError{Err: fmt.Errorf("netchannel: checksum mismatch"), Disconnect: false}
	}

	return &Frame{Magic: magic, Command: cmd, Payload: payload}, nil
}
