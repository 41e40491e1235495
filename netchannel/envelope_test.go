package netchannel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testMagic uint32 = 0xABCD1234

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"hello":"world"}`)
	require.NoError(t, WriteFrame(&buf, testMagic, "version", payload))

	frame, ferr := ReadFrame(&buf, testMagic)
	require.Nil(t, ferr)
	require.Equal(t, testMagic, frame.Magic)
	require.Equal(t, "version", frame.Command)
	require.Equal(t, payload, frame.Payload)
}

func TestReadFrameEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, testMagic, "getaddr", nil))

	frame, ferr := ReadFrame(&buf, testMagic)
	require.Nil(t, ferr)
	require.Equal(t, "getaddr", frame.Command)
	require.Empty(t, frame.Payload)
}

func TestReadFrameMagicMismatchDisconnects(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, testMagic, "ping", []byte("x")))

	_, ferr := ReadFrame(&buf, testMagic+1)
	require.NotNil(t, ferr)
	require.True(t, ferr.Disconnect)
}

func TestReadFrameChecksumMismatchIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, testMagic, "ping", []byte("x")))

	raw := buf.Bytes()
	corrupted := append([]byte{}, raw...)
	corrupted[len(corrupted)-1] ^= 0xFF

	_, ferr := ReadFrame(bytes.NewReader(corrupted), testMagic)
	require.NotNil(t, ferr)
	require.False(t, ferr.Disconnect)
}

func TestReadFrameTruncatedHeaderDisconnects(t *testing.T) {
	_, ferr := ReadFrame(bytes.NewReader([]byte{1, 2, 3}), testMagic)
	require.NotNil(t, ferr)
	require.True(t, ferr.Disconnect)
}

func TestEncodeCommandRejectsEmpty(t *testing.T) {
	_, err := encodeCommand("")
	require.Error(t, err)
}

func TestEncodeCommandRejectsOversize(t *testing.T) {
	_, err := encodeCommand(strings.Repeat("x", CommandBytes+1))
	require.Error(t, err)
}

func TestEncodeCommandRejectsNonPrintableASCII(t *testing.T) {
	_, err := encodeCommand("ver\x01ion")
	require.Error(t, err)
}

func TestEncodeDecodeCommandRoundTrip(t *testing.T) {
	encoded, err := encodeCommand("verack")
	require.NoError(t, err)

	decoded, err := decodeCommand(encoded)
	require.NoError(t, err)
	require.Equal(t, "verack", decoded)
}

func TestDecodeCommandRejectsNonNULPadding(t *testing.T) {
	var b [CommandBytes]byte
	copy(b[:], "ab")
	b[5] = 'z' // a non-NUL byte after the NUL terminator at index 2

	_, err := decodeCommand(b)
	require.Error(t, err)
}
