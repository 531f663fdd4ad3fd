package device

import (
	"errors"
	"log/slog"

	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/ipv4"
	"github.com/mvarga/netsim/netsimmetrics"
)

// ErrResolutionFailure is returned when an outgoing IPv4 packet cannot be
// delivered because ARP resolution failed after its single retry
// (spec.md §7).
var ErrResolutionFailure = errors.New("device: ARP resolution failed")

// IPHost is an Ethernet endpoint with ARP and IPv4 logic (spec.md §3): a
// single EthernetWithARP interface, delivering packets addressed to its
// own IP to an application-level handler and dropping everything else.
type IPHost struct {
	Name    string
	Eth     *Interface
	Metrics *netsimmetrics.Collector

	// Gateway is the next hop used for destinations outside Eth.Network.
	// Nil means the host has no default route.
	Gateway *ipv4.Address

	// Deliver is invoked with the payload and source address of every
	// IPv4 packet addressed to this host. If nil, delivered packets are
	// only logged.
	Deliver func(src ipv4.Address, protocol ipv4.Protocol, payload []byte)
}

// NewIPHost returns a host with a single EthernetWithARP interface at
// index 0.
func NewIPHost(name string, mac ethernet.MAC, ip ipv4.Address, network ipv4.Network) *IPHost {
	h := &IPHost{Name: name}
	h.Eth = NewEthernetWithARPInterface(h, 0, mac, ip, network)
	return h
}

// SetGateway installs gw as the host's default route for destinations
// outside its own network.
func (h *IPHost) SetGateway(gw ipv4.Address) {
	h.Gateway = &gw
}

// Receive implements Device for the host's single interface.
func (h *IPHost) Receive(data []byte, inIdx int) error {
	frame, err := ethernet.Decode(data)
	if err != nil {
		slog.Warn("host: dropping undecodable frame", slog.String("host", h.Name), slog.Any("err", err))
		h.Metrics.ObserveDrop(h.Name, "undecodable")
		return nil
	}
	h.Metrics.ObserveFrame(h.Name, frame.EtherType.String())
	switch frame.EtherType {
	case ethernet.TypeARP:
		return receiveARP(h.Eth, frame, h.Name)
	case ethernet.TypeIPv4:
		return h.receiveIPv4(frame)
	default:
		slog.Debug("host: dropping unsupported ethertype", slog.String("host", h.Name), slog.Any("ethertype", frame.EtherType))
		return nil
	}
}

func (h *IPHost) receiveIPv4(frame ethernet.Frame) error {
	pkt, err := ipv4.Decode(frame.Payload)
	if err != nil {
		slog.Warn("host: dropping undecodable IPv4 packet", slog.String("host", h.Name), slog.Any("err", err))
		h.Metrics.ObserveDrop(h.Name, "undecodable")
		return nil
	}
	if pkt.Header.Destination != h.Eth.IP {
		slog.Debug("host: dropping packet not addressed to us", slog.String("host", h.Name), slog.Any("dst", pkt.Header.Destination))
		h.Metrics.ObserveDrop(h.Name, "not_addressed")
		return nil
	}
	if h.Deliver != nil {
		h.Deliver(pkt.Header.Source, pkt.Header.Protocol, pkt.Payload)
	} else {
		slog.Info("host: delivered", slog.String("host", h.Name), slog.Int("bytes", len(pkt.Payload)))
	}
	return nil
}

// SendIPv4 resolves the next hop's MAC (retrying the ARP request once on
// a cache miss) and sends an IPv4 packet carrying payload, per spec.md
// §4.6's Ethernet encapsulation path. The next hop is dst itself when dst
// lies within the host's own network, otherwise the configured gateway;
// the packet's IP destination is always dst.
func (h *IPHost) SendIPv4(dst ipv4.Address, protocol ipv4.Protocol, payload []byte) error {
	nextHop := dst
	if !h.Eth.Network.Contains(dst) {
		if h.Gateway == nil {
			return ErrNoRoute
		}
		nextHop = *h.Gateway
	}
	mac, err := resolveMAC(h.Eth, nextHop, h.Metrics, h.Name)
	if err != nil {
		return err
	}
	hdr := ipv4.Header{TTL: 64, Protocol: protocol, Source: h.Eth.IP, Destination: dst}
	pkt := ipv4.NewPacket(hdr, payload)
	encoded, err := pkt.Encode()
	if err != nil {
		return err
	}
	efrm, err := ethernet.NewEthernetII(mac, h.Eth.MAC, ethernet.TypeIPv4, encoded)
	if err != nil {
		return err
	}
	return h.Eth.Send(efrm.Encode())
}
