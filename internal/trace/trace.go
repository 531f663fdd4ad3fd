// Package trace prints a pcap-like decoded line for every frame sent
// across a topology's interfaces, reimplemented over this module's own
// frame types rather than imported from the teacher's bit-offset pcap
// package, since that package's Frame/FormatFrame machinery is tied to
// its own generic buffer layout (SPEC_FULL.md §4.14).
package trace

import (
	"fmt"
	"io"

	"github.com/mvarga/netsim/arp"
	"github.com/mvarga/netsim/device"
	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/hdlc"
	"github.com/mvarga/netsim/internal/topo"
	"github.com/mvarga/netsim/ipv4"
	"github.com/mvarga/netsim/ppp"
)

// Attach wires a Trace hook onto every interface in net that writes a
// one-line decoded summary of each frame sent to w.
func Attach(net *topo.Network, w io.Writer) {
	for _, sw := range net.Switches {
		for _, p := range sw.Ports {
			attach(p, w)
		}
	}
	for _, h := range net.Hosts {
		attach(h.Eth, w)
	}
	for _, r := range net.Routers {
		for _, i := range r.Interfaces {
			attach(i, w)
		}
	}
}

func attach(iface *device.Interface, w io.Writer) {
	label := iface.Label
	kind := iface.Kind
	iface.Trace = func(data []byte) {
		fmt.Fprintf(w, "%-14s %s\n", label, Format(kind, data))
	}
}

// Format decodes data according to kind and returns a one-line summary in
// the style of "ETH src=.. dst=.. type=ARP | ARP op=REQUEST ...".
func Format(kind device.Kind, data []byte) string {
	switch kind {
	case device.KindEthernet, device.KindEthernetWithARP:
		return formatEthernet(data)
	case device.KindHDLC:
		return formatHDLC(data)
	case device.KindPPP:
		return formatPPP(data)
	default:
		return fmt.Sprintf("RAW len=%d", len(data))
	}
}

func formatEthernet(data []byte) string {
	frame, err := ethernet.Decode(data)
	if err != nil {
		return fmt.Sprintf("ETH undecodable: %v", err)
	}
	line := fmt.Sprintf("ETH src=%s dst=%s type=%s", frame.Source, frame.Destination, frame.EtherType)
	switch frame.EtherType {
	case ethernet.TypeARP:
		line += " | " + formatARP(frame.Payload)
	case ethernet.TypeIPv4:
		line += " | " + formatIPv4(frame.Payload)
	}
	return line
}

func formatARP(payload []byte) string {
	pkt, err := arp.Decode(payload)
	if err != nil {
		return fmt.Sprintf("ARP undecodable: %v", err)
	}
	return fmt.Sprintf("ARP op=%s sender=%s/%s target=%s/%s",
		pkt.Operation, pkt.SenderHardware, ipv4.Address(pkt.SenderProtocol), pkt.TargetHardware, ipv4.Address(pkt.TargetProtocol))
}

func formatIPv4(payload []byte) string {
	pkt, err := ipv4.Decode(payload)
	if err != nil {
		return fmt.Sprintf("IPv4 undecodable: %v", err)
	}
	return formatIPv4Packet(pkt)
}

func formatHDLC(data []byte) string {
	frame, err := hdlc.DecodeBytes(data, false)
	if err != nil {
		return fmt.Sprintf("HDLC undecodable: %v", err)
	}
	line := fmt.Sprintf("HDLC addr=%#02x kind=%d", frame.Address, frame.Control.Kind)
	if frame.Control.Kind == hdlc.KindInformation || frame.Control.Kind == hdlc.KindUnnumbered {
		if pkt, err := ipv4.Decode(frame.Information); err == nil {
			line += " | " + formatIPv4Packet(pkt)
		}
	}
	return line
}

func formatPPP(data []byte) string {
	frame, err := ppp.DecodeBytes(data)
	if err != nil {
		return fmt.Sprintf("PPP undecodable: %v", err)
	}
	line := fmt.Sprintf("PPP proto=%s", frame.Protocol)
	if frame.Protocol == ppp.ProtocolIPv4 {
		if pkt, err := ipv4.Decode(frame.Information); err == nil {
			line += " | " + formatIPv4Packet(pkt)
		}
	}
	return line
}

func formatIPv4Packet(pkt ipv4.Packet) string {
	return fmt.Sprintf("IPv4 src=%s dst=%s proto=%s ttl=%d len=%d",
		pkt.Header.Source, pkt.Header.Destination, pkt.Header.Protocol, pkt.Header.TTL, len(pkt.Payload))
}
