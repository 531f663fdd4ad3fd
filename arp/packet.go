// Package arp implements ARP packet construction/parsing and the
// cache-populating request/reply logic of an Ethernet interface's address
// resolution layer.
package arp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mvarga/netsim/ethernet"
)

// HardwareType identifies the network link protocol carrying the ARP
// exchange. This simulator only generates and accepts Ethernet.
type HardwareType uint16

const HardwareEthernet HardwareType = 1

// Operation discriminates an ARP request from its reply.
type Operation uint16

const (
	OpRequest Operation = 1
	OpReply   Operation = 2
)

func (op Operation) String() string {
	switch op {
	case OpRequest:
		return "REQUEST"
	case OpReply:
		return "REPLY"
	default:
		return fmt.Sprintf("Operation(%d)", uint16(op))
	}
}

// ProtocolAddress is the 4-byte IPv4 address carried in sender/target
// fields. Named distinctly from ipv4.Address to keep this package free of a
// dependency on the IP codec; the two share an underlying [4]byte array and
// convert directly.
type ProtocolAddress [4]byte

const (
	packetLen     = 28 // 8-byte header + 2*(6-byte hw + 4-byte proto)
	hardwareLen   = 6
	protocolLen   = 4
)

// Errors returned while decoding an ARP packet.
var (
	ErrShortPacket      = errors.New("arp: packet too short")
	ErrUnsupportedSizes = errors.New("arp: unsupported hardware/protocol address lengths")
)

// Packet is a fully decoded ARP packet, restricted to the Ethernet/IPv4
// combination this simulator models.
type Packet struct {
	HardwareType    HardwareType
	ProtocolType    ethernet.Type
	Operation       Operation
	SenderHardware  ethernet.MAC
	SenderProtocol  ProtocolAddress
	TargetHardware  ethernet.MAC
	TargetProtocol  ProtocolAddress
}

// NewRequest builds a REQUEST packet with an unknown target hardware
// address (the broadcast MAC), per spec.md §3.
func NewRequest(senderMAC ethernet.MAC, senderIP, targetIP ProtocolAddress) Packet {
	return Packet{
		HardwareType:   HardwareEthernet,
		ProtocolType:   ethernet.TypeIPv4,
		Operation:      OpRequest,
		SenderHardware: senderMAC,
		SenderProtocol: senderIP,
		TargetHardware: ethernet.Broadcast,
		TargetProtocol: targetIP,
	}
}

// Reply derives a REPLY packet from a decoded REQUEST: the request's target
// IP becomes the reply's sender IP, the request's sender becomes the
// reply's target, and the operation flips. This transformation is built
// from p (the original request) rather than assembled from scratch, so
// every other field (hardware/protocol type) is preserved unchanged.
func (p Packet) Reply(ourMAC ethernet.MAC) Packet {
	reply := p
	reply.Operation = OpReply
	reply.SenderHardware = ourMAC
	reply.SenderProtocol = p.TargetProtocol
	reply.TargetHardware = p.SenderHardware
	reply.TargetProtocol = p.SenderProtocol
	return reply
}

// Encode produces the 28-byte on-wire ARP packet.
func (p Packet) Encode() []byte {
	buf := make([]byte, packetLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(p.HardwareType))
	binary.BigEndian.PutUint16(buf[2:4], uint16(p.ProtocolType))
	buf[4] = hardwareLen
	buf[5] = protocolLen
	binary.BigEndian.PutUint16(buf[6:8], uint16(p.Operation))
	copy(buf[8:14], p.SenderHardware[:])
	copy(buf[14:18], p.SenderProtocol[:])
	copy(buf[18:24], p.TargetHardware[:])
	copy(buf[24:28], p.TargetProtocol[:])
	return buf
}

// Decode parses a Packet from an ARP payload (the Ethernet frame's payload
// with EtherType == ethernet.TypeARP). It rejects any hardware/protocol
// address length other than 6/4, since this simulator only models Ethernet
// over IPv4.
func Decode(data []byte) (Packet, error) {
	if len(data) < packetLen {
		return Packet{}, ErrShortPacket
	}
	hlen, plen := data[4], data[5]
	if hlen != hardwareLen || plen != protocolLen {
		return Packet{}, ErrUnsupportedSizes
	}
	var p Packet
	p.HardwareType = HardwareType(binary.BigEndian.Uint16(data[0:2]))
	p.ProtocolType = ethernet.Type(binary.BigEndian.Uint16(data[2:4]))
	p.Operation = Operation(binary.BigEndian.Uint16(data[6:8]))
	copy(p.SenderHardware[:], data[8:14])
	copy(p.SenderProtocol[:], data[14:18])
	copy(p.TargetHardware[:], data[18:24])
	copy(p.TargetProtocol[:], data[24:28])
	return p, nil
}
