package arp

import (
	"net"
	"testing"

	"github.com/mvarga/netsim/ethernet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMAC(t *testing.T, s string) ethernet.MAC {
	t.Helper()
	m, err := ethernet.ParseMAC(s)
	require.NoError(t, err)
	return m
}

func mustIPv4(t *testing.T, s string) ProtocolAddress {
	t.Helper()
	ip := net.ParseIP(s).To4()
	require.NotNil(t, ip)
	var out ProtocolAddress
	copy(out[:], ip)
	return out
}

func TestPacketEncodeDecodeRoundTrip(t *testing.T) {
	sender := mustMAC(t, "a1:b2:c3:d4:e5:f6")
	senderIP := mustIPv4(t, "54.203.125.101")
	targetIP := mustIPv4(t, "13.77.161.179")

	req := NewRequest(sender, senderIP, targetIP)
	encoded := req.Encode()
	require.Len(t, encoded, 28)

	back, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, req, back)
	assert.True(t, back.TargetHardware.IsBroadcast())
}

// TestARPExchange is Scenario S2: host A (54.203.125.101, MAC a1:...:f6)
// sends a REQUEST for 13.77.161.179; host B (MAC 1e:...:53) replies. After
// the exchange A's cache maps 13.77.161.179 -> 1e:...:53 and B's maps
// 54.203.125.101 -> a1:...:f6.
func TestARPExchange(t *testing.T) {
	macA := mustMAC(t, "a1:22:33:44:55:f6")
	macB := mustMAC(t, "1e:22:33:44:55:53")
	ipA := mustIPv4(t, "54.203.125.101")
	ipB := mustIPv4(t, "13.77.161.179")

	hostA := NewHandler(macA, ipA)
	hostB := NewHandler(macB, ipB)

	request := hostA.RequestFor(ipB)
	assert.Equal(t, OpRequest, request.Operation)
	assert.True(t, request.TargetHardware.IsBroadcast())

	reply := hostB.Receive(request)
	require.NotNil(t, reply)
	assert.Equal(t, OpReply, reply.Operation)
	assert.Equal(t, macB, reply.SenderHardware)
	assert.Equal(t, ipB, reply.SenderProtocol)
	assert.Equal(t, macA, reply.TargetHardware)
	assert.Equal(t, ipA, reply.TargetProtocol)

	noReply := hostA.Receive(*reply)
	assert.Nil(t, noReply)

	gotB, ok := hostA.Cache.Lookup(ipB)
	require.True(t, ok)
	assert.Equal(t, macB, gotB)

	gotA, ok := hostB.Cache.Lookup(ipA)
	require.True(t, ok)
	assert.Equal(t, macA, gotA)
}

func TestHandlerDropsPacketNotAddressedToIt(t *testing.T) {
	macA := mustMAC(t, "a1:22:33:44:55:f6")
	ipA := mustIPv4(t, "10.0.0.1")
	ipOther := mustIPv4(t, "10.0.0.99")

	host := NewHandler(macA, ipA)
	pkt := NewRequest(mustMAC(t, "aa:bb:cc:dd:ee:ff"), mustIPv4(t, "10.0.0.2"), ipOther)

	reply := host.Receive(pkt)
	assert.Nil(t, reply)
	assert.Equal(t, 0, host.Cache.Len())
}

func TestDecodeRejectsShortPacket(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestDecodeRejectsUnsupportedSizes(t *testing.T) {
	buf := make([]byte, packetLen)
	buf[4] = 6
	buf[5] = 16 // IPv6-length protocol address, unsupported
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrUnsupportedSizes)
}
