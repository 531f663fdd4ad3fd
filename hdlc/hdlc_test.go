package hdlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInformationControlRoundTrip(t *testing.T) {
	ctrl := NewInformation(true, 17, 35, false)
	encoded, err := ctrl.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 1)

	back, n, err := DecodeControl(encoded, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, KindInformation, back.Kind)
	assert.Equal(t, 17%8, back.NS)
	assert.Equal(t, 35%8, back.NR)
	assert.True(t, back.PF)
}

func TestExtendedInformationControlRoundTrip(t *testing.T) {
	ctrl := NewInformation(false, 100, 90, true)
	encoded, err := ctrl.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 2)

	back, n, err := DecodeControl(encoded, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 100%128, back.NS)
	assert.Equal(t, 90%128, back.NR)
}

func TestSupervisoryControlRoundTrip(t *testing.T) {
	ctrl := NewSupervisory(false, Reject, 4, false)
	encoded, err := ctrl.Encode()
	require.NoError(t, err)

	back, _, err := DecodeControl(encoded, false)
	require.NoError(t, err)
	assert.Equal(t, KindSupervisory, back.Kind)
	assert.Equal(t, Reject, back.SType)
	assert.Equal(t, 4, back.NR)
}

func TestUnnumberedControlRoundTrip(t *testing.T) {
	ctrl := NewUnnumbered(true, SABM)
	encoded, err := ctrl.Encode()
	require.NoError(t, err)
	require.Len(t, encoded, 1)

	back, n, err := DecodeControl(encoded, true) // extended has no effect on U-frames
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, KindUnnumbered, back.Kind)
	assert.Equal(t, SABM, back.UType)
	assert.True(t, back.PF)
}

func TestUnnumberedRejectsExtended(t *testing.T) {
	ctrl := NewUnnumbered(false, DISC)
	ctrl.Extended = true
	_, err := ctrl.Encode()
	assert.ErrorIs(t, err, ErrExtendedUnnumbered)
}

// TestHDLCNormalRoundTrip is Scenario S4: address=129, information carrying
// punctuation and brace/bracket characters, I-control with ns=17, nr=35,
// P/F=1; encoding then decoding under NORMAL mode reproduces the same frame
// structurally.
func TestHDLCNormalRoundTrip(t *testing.T) {
	information := []byte("Some information~that {we} [send] in this frame!")
	ctrl := NewInformation(true, 17, 35, false)
	frame, err := NewFrame(129, ctrl, information)
	require.NoError(t, err)

	bits, err := frame.EncodeBits(NORMAL)
	require.NoError(t, err)

	back, err := DecodeBits(bits, NORMAL, false)
	require.NoError(t, err)
	assert.Equal(t, frame.Address, back.Address)
	assert.Equal(t, frame.Control, back.Control)
	assert.Equal(t, frame.Information, back.Information)
	assert.Equal(t, frame.FCS, back.FCS)
}

func TestHDLCAsyncByteRoundTrip(t *testing.T) {
	information := []byte{0x7E, 0x7D, 0x01, 0x7E, 0xFF}
	ctrl := NewUnnumbered(false, UI)
	frame, err := NewFrame(1, ctrl, information)
	require.NoError(t, err)

	encoded, err := frame.EncodeBytes(ASYNC)
	require.NoError(t, err)

	back, err := DecodeBytes(encoded, false)
	require.NoError(t, err)
	assert.Equal(t, frame.Information, back.Information)
}

func TestNormalModeRejectsByteEncoding(t *testing.T) {
	frame, err := NewFrame(1, NewUnnumbered(false, UI), nil)
	require.NoError(t, err)
	_, err = frame.EncodeBytes(NORMAL)
	assert.ErrorIs(t, err, ErrBitStuffMode)
}

func TestDecodeDetectsBadFCS(t *testing.T) {
	frame, err := NewFrame(1, NewUnnumbered(false, UI), []byte("payload"))
	require.NoError(t, err)
	encoded, err := frame.Bytes()
	require.NoError(t, err)
	encoded[len(encoded)-1] ^= 0xff

	_, err = decodeBody(encoded, false)
	assert.ErrorIs(t, err, ErrBadFCS)
}

func TestStreamRoundTripMultipleFrames(t *testing.T) {
	f1, err := NewFrame(1, NewUnnumbered(true, SABM), nil)
	require.NoError(t, err)
	f2, err := NewFrame(2, NewInformation(false, 3, 4, false), []byte("hello, world"))
	require.NoError(t, err)

	stream, err := StreamEncodeBytes([]Frame{f1, f2}, ASYNC)
	require.NoError(t, err)

	decoded := StreamDecodeBytes(stream, false)
	require.Len(t, decoded, 2)
	assert.Equal(t, f1.Address, decoded[0].Address)
	assert.Equal(t, f2.Information, decoded[1].Information)
}

func TestStreamRoundTripNormalBits(t *testing.T) {
	f1, err := NewFrame(5, NewInformation(true, 1, 1, false), []byte("abc111111def"))
	require.NoError(t, err)
	f2, err := NewFrame(6, NewSupervisory(false, ReceiveReady, 2, false), nil)
	require.NoError(t, err)

	bits, err := StreamEncodeBits([]Frame{f1, f2}, NORMAL)
	require.NoError(t, err)

	decoded := StreamDecodeBits(bits, NORMAL, false)
	require.Len(t, decoded, 2)
	assert.Equal(t, f1.Information, decoded[0].Information)
	assert.Equal(t, f2.Control, decoded[1].Control)
}

func TestStreamDecodeDropsUndecodableSection(t *testing.T) {
	good, err := NewFrame(1, NewUnnumbered(false, UI), []byte("ok"))
	require.NoError(t, err)
	goodBytes, err := good.EncodeBytes(ASYNC)
	require.NoError(t, err)

	stream := append([]byte{Flag}, goodBytes...)
	stream = append(stream, Flag)
	stream = append(stream, []byte{0x01}...) // truncated garbage section
	stream = append(stream, Flag)

	decoded := StreamDecodeBytes(stream, false)
	require.Len(t, decoded, 1)
	assert.Equal(t, good.Information, decoded[0].Information)
}
