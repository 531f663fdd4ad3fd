package device

import (
	"errors"
	"log/slog"

	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/hdlc"
	"github.com/mvarga/netsim/ipv4"
	"github.com/mvarga/netsim/netsimmetrics"
	"github.com/mvarga/netsim/ppp"
	"github.com/mvarga/netsim/trie"
)

// ErrNoRoute is returned when a destination matches no owned network, no
// forwarding table entry, and no default interface is set (spec.md §4.6).
var ErrNoRoute = errors.New("device: no route to destination")

// pointToPointAddress is the HDLC address byte used for IP packets framed
// over a router's point-to-point links; this simulator has no data-link
// control plane beyond ARP, so a single fixed station address suffices.
const pointToPointAddress = 0x01

// IPRouter is a multi-interface IPv4 router with per-interface directly
// connected networks, a longest-prefix-match forwarding table, and an
// optional default interface (spec.md §4.6). Only Ethernet interfaces
// perform ARP; HDLC and PPP interfaces have no link-layer address.
type IPRouter struct {
	Name       string
	Interfaces []*Interface
	Metrics    *netsimmetrics.Collector

	Table   *trie.RouteTable4[int]
	Default *int
}

// NewIPRouter returns a router with no interfaces and an empty forwarding
// table.
func NewIPRouter(name string) *IPRouter {
	return &IPRouter{Name: name, Table: trie.NewRouteTable4[int]()}
}

// AddEthernetInterface appends a new EthernetWithARP interface.
func (r *IPRouter) AddEthernetInterface(mac ethernet.MAC, ip ipv4.Address, network ipv4.Network) *Interface {
	idx := len(r.Interfaces)
	iface := NewEthernetWithARPInterface(r, idx, mac, ip, network)
	r.Interfaces = append(r.Interfaces, iface)
	return iface
}

// AddHDLCInterface appends a new point-to-point HDLC interface.
func (r *IPRouter) AddHDLCInterface(ip ipv4.Address, network ipv4.Network) *Interface {
	return r.addPointToPoint(KindHDLC, ip, network)
}

// AddPPPInterface appends a new point-to-point PPP interface.
func (r *IPRouter) AddPPPInterface(ip ipv4.Address, network ipv4.Network) *Interface {
	return r.addPointToPoint(KindPPP, ip, network)
}

func (r *IPRouter) addPointToPoint(kind Kind, ip ipv4.Address, network ipv4.Network) *Interface {
	idx := len(r.Interfaces)
	iface := NewInterface(r, idx, kind)
	iface.IP = ip
	iface.Network = network
	r.Interfaces = append(r.Interfaces, iface)
	return iface
}

// AddRoute installs a forwarding-table entry routing network out
// interface outIdx.
func (r *IPRouter) AddRoute(network ipv4.Network, outIdx int) {
	r.Table.Add(network, outIdx)
}

// SetDefault designates the interface used when no network or
// forwarding-table entry matches.
func (r *IPRouter) SetDefault(outIdx int) {
	r.Default = &outIdx
}

// Receive implements Device, decoding the link frame appropriate to the
// arriving interface's Kind and routing any IPv4 packet found inside.
func (r *IPRouter) Receive(data []byte, inIdx int) error {
	iface := r.Interfaces[inIdx]
	switch iface.Kind {
	case KindEthernetWithARP:
		return r.receiveEthernet(data, iface)
	case KindHDLC:
		frame, err := hdlc.DecodeBytes(data, false)
		if err != nil {
			slog.Warn("router: dropping undecodable HDLC frame", slog.String("router", r.Name), slog.Any("err", err))
			r.Metrics.ObserveDrop(r.Name, "undecodable")
			return nil
		}
		r.Metrics.ObserveFrame(r.Name, "hdlc")
		return r.decodeAndRoute(frame.Information, inIdx)
	case KindPPP:
		frame, err := ppp.DecodeBytes(data)
		if err != nil {
			slog.Warn("router: dropping undecodable PPP frame", slog.String("router", r.Name), slog.Any("err", err))
			r.Metrics.ObserveDrop(r.Name, "undecodable")
			return nil
		}
		r.Metrics.ObserveFrame(r.Name, "ppp")
		if frame.Protocol != ppp.ProtocolIPv4 {
			slog.Debug("router: dropping unsupported PPP protocol", slog.String("router", r.Name), slog.Any("protocol", frame.Protocol))
			r.Metrics.ObserveDrop(r.Name, "unsupported_protocol")
			return nil
		}
		return r.decodeAndRoute(frame.Information, inIdx)
	default:
		return ErrUnsupportedFrame
	}
}

func (r *IPRouter) receiveEthernet(data []byte, iface *Interface) error {
	frame, err := ethernet.Decode(data)
	if err != nil {
		slog.Warn("router: dropping undecodable frame", slog.String("router", r.Name), slog.Any("err", err))
		r.Metrics.ObserveDrop(r.Name, "undecodable")
		return nil
	}
	r.Metrics.ObserveFrame(r.Name, frame.EtherType.String())
	switch frame.EtherType {
	case ethernet.TypeARP:
		return receiveARP(iface, frame, r.Name)
	case ethernet.TypeIPv4:
		return r.decodeAndRoute(frame.Payload, iface.Index)
	default:
		slog.Debug("router: dropping unsupported ethertype", slog.String("router", r.Name), slog.Any("ethertype", frame.EtherType))
		r.Metrics.ObserveDrop(r.Name, "unsupported_ethertype")
		return nil
	}
}

func (r *IPRouter) decodeAndRoute(payload []byte, inIdx int) error {
	pkt, err := ipv4.Decode(payload)
	if err != nil {
		slog.Warn("router: dropping undecodable IPv4 packet", slog.String("router", r.Name), slog.Any("err", err))
		r.Metrics.ObserveDrop(r.Name, "undecodable")
		return nil
	}
	return r.route(pkt, inIdx)
}

// route implements the destination resolution order from spec.md §4.6:
// local delivery, directly connected networks, the forwarding table, then
// the default interface.
func (r *IPRouter) route(pkt ipv4.Packet, inIdx int) error {
	dst := pkt.Header.Destination
	if dst == r.Interfaces[inIdx].IP {
		slog.Info("router: delivered locally", slog.String("router", r.Name), slog.Int("bytes", len(pkt.Payload)))
		r.Metrics.ObserveRouterOutcome(r.Name, "delivered")
		return nil
	}
	for _, iface := range r.Interfaces {
		if iface.Network.PrefixLength > 0 && iface.Network.Contains(dst) {
			return r.forward(pkt, iface.Index)
		}
	}
	if outIdx, ok := r.Table.Lookup(dst); ok {
		return r.forward(pkt, outIdx)
	}
	if r.Default != nil {
		return r.forward(pkt, *r.Default)
	}
	slog.Debug("router: no route", slog.String("router", r.Name), slog.Any("dst", dst))
	r.Metrics.ObserveRouterOutcome(r.Name, "no_route")
	return ErrNoRoute
}

// forward decrements TTL, recomputes the header checksum, encapsulates
// for the outgoing interface's link kind, and sends. Per spec.md §7,
// TTL exhaustion and ARP resolution failure are logged and dropped
// rather than returned as fatal.
func (r *IPRouter) forward(pkt ipv4.Packet, outIdx int) error {
	if err := pkt.Forward(); err != nil {
		slog.Debug("router: TTL exceeded", slog.String("router", r.Name), slog.Any("err", err))
		r.Metrics.ObserveRouterOutcome(r.Name, "ttl_exceeded")
		return nil
	}
	out := r.Interfaces[outIdx]
	encoded, err := pkt.Encode()
	if err != nil {
		return err
	}
	switch out.Kind {
	case KindEthernetWithARP:
		mac, err := resolveMAC(out, pkt.Header.Destination, r.Metrics, r.Name)
		if err != nil {
			slog.Debug("router: ARP resolution failed", slog.String("router", r.Name), slog.Any("dst", pkt.Header.Destination))
			r.Metrics.ObserveRouterOutcome(r.Name, "resolution_failed")
			return nil
		}
		efrm, err := ethernet.NewEthernetII(mac, out.MAC, ethernet.TypeIPv4, encoded)
		if err != nil {
			return err
		}
		r.Metrics.ObserveRouterOutcome(r.Name, "forwarded")
		return out.Send(efrm.Encode())
	case KindHDLC:
		ctrl := hdlc.NewUnnumbered(false, hdlc.UI)
		frame, err := hdlc.NewFrame(pointToPointAddress, ctrl, encoded)
		if err != nil {
			return err
		}
		framed, err := frame.EncodeBytes(hdlc.ASYNC_BALANCED)
		if err != nil {
			return err
		}
		r.Metrics.ObserveRouterOutcome(r.Name, "forwarded")
		return out.Send(framed)
	case KindPPP:
		frame := ppp.NewFrame(ppp.ProtocolIPv4, encoded)
		r.Metrics.ObserveRouterOutcome(r.Name, "forwarded")
		return out.Send(frame.EncodeBytes())
	default:
		return ErrUnsupportedFrame
	}
}
