// Package device implements the simulator's device fabric: wired
// interfaces, a MAC-learning Ethernet switch, an IP-aware host, and an IP
// router with longest-prefix-match forwarding (spec.md §4.5, §4.6).
package device

import (
	"errors"

	"github.com/mvarga/netsim/arp"
	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/ipv4"
)

// Kind distinguishes what an Interface carries and which logic, if any, it
// embeds for address resolution.
type Kind uint8

const (
	KindRawBytes Kind = iota
	KindEthernet
	KindHDLC
	KindPPP
	KindEthernetWithARP
)

func (k Kind) String() string {
	switch k {
	case KindRawBytes:
		return "RawBytes"
	case KindEthernet:
		return "Ethernet"
	case KindHDLC:
		return "HDLC"
	case KindPPP:
		return "PPP"
	case KindEthernetWithARP:
		return "EthernetWithARP"
	default:
		return "Kind(?)"
	}
}

// Errors from interface wiring and frame delivery, per spec.md §7's
// NetworkError category.
var (
	ErrNotWired         = errors.New("device: interface not wired")
	ErrAlreadyWired     = errors.New("device: interface already wired")
	ErrSelfLoop         = errors.New("device: cannot wire an interface to itself")
	ErrUnsupportedFrame = errors.New("device: frame unsupported on this interface kind")
)

// Device is anything that owns interfaces and can accept a frame arriving
// on one of them.
type Device interface {
	Receive(data []byte, inIdx int) error
}

// Interface is a single port on a Device: a stable index, an optional
// peer it is bidirectionally wired to, and a Kind determining what it
// carries (spec.md §3).
type Interface struct {
	Owner Device
	Index int
	Kind  Kind
	Peer  *Interface

	MAC ethernet.MAC // Ethernet, EthernetWithARP

	IP      ipv4.Address // EthernetWithARP, router-owned interfaces
	Network ipv4.Network

	ARP *arp.Handler // EthernetWithARP only

	// Label is an optional human-readable name ("hostA.eth0") used by
	// Trace; it plays no role in delivery.
	Label string

	// Trace, if non-nil, is invoked with the encoded frame bytes of every
	// Send on this interface before they are delivered to the peer. Used
	// by cmd/netsim to print a decoded trace of a scripted exchange.
	Trace func(data []byte)
}

// NewInterface returns an interface owned by owner at the given index.
func NewInterface(owner Device, index int, kind Kind) *Interface {
	return &Interface{Owner: owner, Index: index, Kind: kind}
}

// NewEthernetWithARPInterface returns an EthernetWithARP interface with its
// own MAC, IPv4 address and ARP cache.
func NewEthernetWithARPInterface(owner Device, index int, mac ethernet.MAC, ip ipv4.Address, network ipv4.Network) *Interface {
	return &Interface{
		Owner:   owner,
		Index:   index,
		Kind:    KindEthernetWithARP,
		MAC:     mac,
		IP:      ip,
		Network: network,
		ARP:     arp.NewHandler(mac, arp.ProtocolAddress(ip)),
	}
}

// Connect wires a and b bidirectionally. It fails if either end is already
// wired or if a and b are the same interface.
func Connect(a, b *Interface) error {
	if a == b {
		return ErrSelfLoop
	}
	if a.Peer != nil || b.Peer != nil {
		return ErrAlreadyWired
	}
	a.Peer = b
	b.Peer = a
	return nil
}

// Disconnect atomically tears down the wire-peer relation on both ends of
// a's connection. It is a no-op if a is unwired.
func Disconnect(a *Interface) {
	if a.Peer == nil {
		return
	}
	b := a.Peer
	a.Peer = nil
	b.Peer = nil
}

// Send delivers data to whatever is wired to the far end of the
// interface, invoking the peer's owning device's Receive on the same call
// stack, per spec.md §5's synchronous recursive delivery model.
func (i *Interface) Send(data []byte) error {
	if i.Peer == nil {
		return ErrNotWired
	}
	if i.Trace != nil {
		i.Trace(data)
	}
	return i.Peer.Owner.Receive(data, i.Peer.Index)
}
