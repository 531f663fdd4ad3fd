package ethernet

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEthernetIIOnWire(t *testing.T) {
	dst, err := ParseMAC("a1:b2:c3:d4:e5:f6")
	require.NoError(t, err)
	src, err := ParseMAC("ff:11:aa:55:cc:99")
	require.NoError(t, err)
	payload := []byte("This is some ASCII encoded text that we put into this ethernet frame")
	require.Len(t, payload, 68)

	frame, err := NewEthernetII(dst, src, TypeIPv4, payload)
	require.NoError(t, err)

	got := frame.Encode()
	want, err := hex.DecodeString(strings.ReplaceAll(
		"a1b2c3d4e5f6ff11aa55cc990800"+hex.EncodeToString(payload)+"e9d10d2b", " ", ""))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	back, err := Decode(got)
	require.NoError(t, err)
	assert.Equal(t, dst, back.Destination)
	assert.Equal(t, src, back.Source)
	assert.Equal(t, TypeIPv4, back.EtherType)
	assert.Equal(t, KindEthernetII, back.Kind)
	assert.Equal(t, payload, back.Payload)
}

func TestEthernetIIPadsShortPayload(t *testing.T) {
	dst := Broadcast
	src, _ := RandomMAC(nil)
	frame, err := NewEthernetII(dst, src, TypeARP, []byte("hi"))
	require.NoError(t, err)
	assert.Len(t, frame.Payload, MinPayloadEthernetII)

	encoded := frame.Encode()
	assert.Len(t, encoded, headerLenNoVLAN+MinPayloadEthernetII+fcsLen)
}

func TestEthernetIIRejectsOversizedPayload(t *testing.T) {
	dst := Broadcast
	src := Broadcast
	_, err := NewEthernetII(dst, src, TypeIPv4, make([]byte, MaxPayload+1))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestDecodeDetectsBadFCS(t *testing.T) {
	dst, src := Broadcast, Broadcast
	frame, err := NewEthernetII(dst, src, TypeIPv4, []byte("hello"))
	require.NoError(t, err)
	encoded := frame.Encode()
	encoded[len(encoded)-1] ^= 0xff

	_, err = Decode(encoded)
	assert.ErrorIs(t, err, ErrBadFCS)
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestVLANTaggedFrameRoundTrip(t *testing.T) {
	dst, src := Broadcast, Broadcast
	frame, err := NewEthernetII(dst, src, TypeIPv4, []byte("vlan test payload"))
	require.NoError(t, err)
	tag := NewVLANTag(5, true, 42)
	frame.SetVLAN(tag)

	encoded := frame.Encode()
	back, err := Decode(encoded)
	require.NoError(t, err)
	require.NotNil(t, back.VLAN)
	assert.Equal(t, tag, *back.VLAN)
	assert.Equal(t, uint16(42), back.VLAN.VLANIdentifier())
	assert.Equal(t, uint8(5), back.VLAN.PriorityCodePoint())
	assert.True(t, back.VLAN.DropEligibleIndicator())
}

func TestIEEE8023RoundTrip(t *testing.T) {
	dst, src := Broadcast, Broadcast
	payload := []byte("802.3 length-field payload")
	frame, err := NewIEEE8023(dst, src, payload, MinPayloadEthernetII)
	require.NoError(t, err)

	encoded := frame.Encode()
	back, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, KindIEEE8023, back.Kind)
	assert.Equal(t, uint16(len(payload)), back.Length)
}

func TestMACParseRoundTrip(t *testing.T) {
	m, err := ParseMAC("a1:b2:c3:d4:e5:f6")
	require.NoError(t, err)
	assert.Equal(t, "a1:b2:c3:d4:e5:f6", m.String())

	m2, err := ParseMAC("A1-B2-C3-D4-E5-F6")
	require.NoError(t, err)
	assert.Equal(t, m, m2)
}

func TestParseMACRejectsMalformed(t *testing.T) {
	_, err := ParseMAC("not-a-mac")
	assert.ErrorIs(t, err, ErrMalformedMAC)
}

func TestRandomMACSetsLocallyAdministeredBit(t *testing.T) {
	m, err := RandomMAC(nil)
	require.NoError(t, err)
	assert.False(t, m.IsBroadcast())
	assert.Equal(t, byte(0x02), m[0]&0x03)
}

func TestCRC32SearchFindsFCS(t *testing.T) {
	dst, src := Broadcast, Broadcast
	frame, err := NewEthernetII(dst, src, TypeIPv4, []byte("searchable"))
	require.NoError(t, err)
	encoded := frame.Encode()

	off := CRC32Search(encoded, headerLenNoVLAN)
	require.GreaterOrEqual(t, off, 0)
	assert.Equal(t, len(encoded)-fcsLen, off)
}
