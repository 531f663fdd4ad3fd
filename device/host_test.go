package device

import (
	"testing"

	"github.com/mvarga/netsim/arp"
	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/ipv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHostSendReceiveDirectLink is Scenario S2: two hosts wired directly,
// sharing a network. The first send triggers ARP resolution; the payload
// and source address arrive intact.
func TestHostSendReceiveDirectLink(t *testing.T) {
	net24 := mustNetwork(t, "192.0.2.0/24")
	hostA := NewIPHost("A", mustMAC(t, "a1:00:00:00:00:01"), mustIP(t, "192.0.2.1"), net24)
	hostB := NewIPHost("B", mustMAC(t, "a1:00:00:00:00:02"), mustIP(t, "192.0.2.2"), net24)
	require.NoError(t, Connect(hostA.Eth, hostB.Eth))

	var gotSrc ipv4.Address
	var gotPayload []byte
	hostB.Deliver = func(src ipv4.Address, proto ipv4.Protocol, payload []byte) {
		gotSrc, gotPayload = src, payload
	}

	require.NoError(t, hostA.SendIPv4(hostB.Eth.IP, ipv4.ProtocolUDP, []byte("ping")))
	assert.Equal(t, hostA.Eth.IP, gotSrc)
	assert.Equal(t, "ping", string(gotPayload))

	_, cached := hostA.Eth.ARP.Cache.Lookup(arp.ProtocolAddress(hostB.Eth.IP))
	assert.True(t, cached, "resolving B's MAC must populate A's ARP cache")
}

// TestHostDropsPacketNotAddressedToIt exercises spec.md §7's silent-drop
// policy for IPv4 traffic that reaches a host but names a different
// destination.
func TestHostDropsPacketNotAddressedToIt(t *testing.T) {
	net24 := mustNetwork(t, "192.0.2.0/24")
	hostA := NewIPHost("A", mustMAC(t, "a1:00:00:00:00:01"), mustIP(t, "192.0.2.1"), net24)
	hostB := NewIPHost("B", mustMAC(t, "a1:00:00:00:00:02"), mustIP(t, "192.0.2.2"), net24)
	require.NoError(t, Connect(hostA.Eth, hostB.Eth))

	delivered := false
	hostB.Deliver = func(src ipv4.Address, proto ipv4.Protocol, payload []byte) { delivered = true }

	hdr := ipv4.Header{TTL: 64, Protocol: ipv4.ProtocolUDP, Source: hostA.Eth.IP, Destination: mustIP(t, "192.0.2.99")}
	pkt := ipv4.NewPacket(hdr, []byte("stray"))
	encoded, err := pkt.Encode()
	require.NoError(t, err)
	frame, err := ethernet.NewEthernetII(hostB.Eth.MAC, hostA.Eth.MAC, ethernet.TypeIPv4, encoded)
	require.NoError(t, err)

	require.NoError(t, hostB.Receive(frame.Encode(), 0))
	assert.False(t, delivered, "a packet addressed to a different host must be silently dropped")
}
