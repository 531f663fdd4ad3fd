package device

import (
	"testing"

	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/ipv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRouterBetweenTwoSubnets is Scenario S6: host A (192.168.178.2) sits
// on the router's eth0 (192.168.178.0/24); host B (10.99.0.2) sits on
// eth1 (10.0.0.0/8). With the router as A's default gateway, A -> B
// succeeds via the router's directly connected network.
// B -> A without a default gateway fails since B has no route off its own
// subnet; after setting B's default gateway to the router, B -> A
// succeeds and the delivered payload matches.
func TestRouterBetweenTwoSubnets(t *testing.T) {
	router := NewIPRouter("r0")
	routerEth0 := router.AddEthernetInterface(mustMAC(t, "a0:00:00:00:00:01"), mustIP(t, "192.168.178.1"), mustNetwork(t, "192.168.178.0/24"))
	routerEth1 := router.AddEthernetInterface(mustMAC(t, "a0:00:00:00:00:02"), mustIP(t, "10.0.0.1"), mustNetwork(t, "10.0.0.0/8"))

	hostA := NewIPHost("A", mustMAC(t, "a1:00:00:00:00:01"), mustIP(t, "192.168.178.2"), mustNetwork(t, "192.168.178.0/24"))
	hostB := NewIPHost("B", mustMAC(t, "b1:00:00:00:00:01"), mustIP(t, "10.99.0.2"), mustNetwork(t, "10.0.0.0/8"))

	require.NoError(t, Connect(hostA.Eth, routerEth0))
	require.NoError(t, Connect(hostB.Eth, routerEth1))

	var gotOnB []byte
	hostB.Deliver = func(src ipv4.Address, proto ipv4.Protocol, payload []byte) { gotOnB = payload }

	hostA.SetGateway(routerEth0.IP)
	require.NoError(t, hostA.SendIPv4(hostB.Eth.IP, ipv4.ProtocolUDP, []byte("hello from A")))
	assert.Equal(t, "hello from A", string(gotOnB))

	err := hostB.SendIPv4(hostA.Eth.IP, ipv4.ProtocolUDP, []byte("hello from B"))
	assert.ErrorIs(t, err, ErrNoRoute, "B has no default gateway, so it has no next hop for an address outside its own network")

	hostB.SetGateway(routerEth1.IP)

	var gotOnA []byte
	hostA.Deliver = func(src ipv4.Address, proto ipv4.Protocol, payload []byte) { gotOnA = payload }

	require.NoError(t, hostB.SendIPv4(hostA.Eth.IP, ipv4.ProtocolUDP, []byte("hello from B")))
	assert.Equal(t, "hello from B", string(gotOnA))
}

func TestRouterLongestPrefixMatchViaForwardingTable(t *testing.T) {
	router := NewIPRouter("r0")
	eth0 := router.AddEthernetInterface(mustMAC(t, "a0:00:00:00:00:01"), mustIP(t, "192.0.2.1"), mustNetwork(t, "192.0.2.0/24"))
	// eth1's own network does not contain dest, so only the forwarding
	// table can pick eth1 for it.
	eth1 := router.AddEthernetInterface(mustMAC(t, "a0:00:00:00:00:02"), mustIP(t, "203.0.113.1"), mustNetwork(t, "203.0.113.0/24"))

	dest := NewIPHost("dest", mustMAC(t, "b1:00:00:00:00:01"), mustIP(t, "198.51.100.2"), mustNetwork(t, "198.51.100.0/24"))
	require.NoError(t, Connect(dest.Eth, eth1))

	src := NewIPHost("src", mustMAC(t, "b1:00:00:00:00:02"), mustIP(t, "192.0.2.2"), mustNetwork(t, "192.0.2.0/24"))
	src.SetGateway(eth0.IP)
	require.NoError(t, Connect(src.Eth, eth0))

	router.AddRoute(mustNetwork(t, "198.51.0.0/16"), 0)
	router.AddRoute(mustNetwork(t, "198.51.100.0/24"), 1)

	var got []byte
	dest.Deliver = func(srcIP ipv4.Address, proto ipv4.Protocol, payload []byte) { got = payload }

	require.NoError(t, src.SendIPv4(dest.Eth.IP, ipv4.ProtocolUDP, []byte("routed")))
	assert.Equal(t, "routed", string(got))
}

func TestRouterNoRouteFails(t *testing.T) {
	router := NewIPRouter("r0")
	eth0 := router.AddEthernetInterface(mustMAC(t, "a0:00:00:00:00:01"), mustIP(t, "192.0.2.1"), mustNetwork(t, "192.0.2.0/24"))

	src := NewIPHost("src", mustMAC(t, "b1:00:00:00:00:02"), mustIP(t, "192.0.2.2"), mustNetwork(t, "192.0.2.0/24"))
	src.SetGateway(eth0.IP)
	require.NoError(t, Connect(src.Eth, eth0))

	unreachable := mustIP(t, "203.0.113.5")
	err := src.SendIPv4(unreachable, ipv4.ProtocolUDP, []byte("x"))
	assert.ErrorIs(t, err, ErrNoRoute, "the router has no connected network, table route or default interface for the destination")
}

func TestHostGatewayUnresponsiveFailsResolution(t *testing.T) {
	src := NewIPHost("src", mustMAC(t, "b1:00:00:00:00:02"), mustIP(t, "192.0.2.2"), mustNetwork(t, "192.0.2.0/24"))
	src.SetGateway(mustIP(t, "192.0.2.1"))

	silent := &recordingDevice{}
	require.NoError(t, Connect(src.Eth, NewInterface(silent, 0, KindEthernet)))

	err := src.SendIPv4(mustIP(t, "203.0.113.5"), ipv4.ProtocolUDP, []byte("x"))
	assert.ErrorIs(t, err, ErrResolutionFailure, "nothing answers ARP for the gateway address")
}

func TestRouterTTLExceededDropsSilently(t *testing.T) {
	router := NewIPRouter("r0")
	eth0 := router.AddEthernetInterface(mustMAC(t, "a0:00:00:00:00:01"), mustIP(t, "192.0.2.1"), mustNetwork(t, "192.0.2.0/24"))
	eth1 := router.AddEthernetInterface(mustMAC(t, "a0:00:00:00:00:02"), mustIP(t, "198.51.100.1"), mustNetwork(t, "198.51.100.0/24"))
	_ = eth1

	hdr := ipv4.Header{TTL: 1, Protocol: ipv4.ProtocolUDP, Source: mustIP(t, "192.0.2.2"), Destination: mustIP(t, "198.51.100.2")}
	pkt := ipv4.NewPacket(hdr, []byte("x"))
	encoded, err := pkt.Encode()
	require.NoError(t, err)

	frame, err := ethernet.NewEthernetII(eth0.MAC, mustMAC(t, "b1:00:00:00:00:02"), ethernet.TypeIPv4, encoded)
	require.NoError(t, err)
	assert.NoError(t, router.Receive(frame.Encode(), 0), "TTL exceeded must be logged and dropped, not returned as a fatal error")
}
