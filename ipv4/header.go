package ipv4

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mvarga/netsim/bitio"
)

// Protocol is the IP protocol number carried in the header's Protocol
// field, identifying the encapsulated payload.
type Protocol uint8

// Protocol numbers this simulator's device fabric dispatches on. Transport
// payloads are otherwise opaque byte strings.
const (
	ProtocolICMP Protocol = 1  // Internet Control Message [RFC792]
	ProtocolTCP  Protocol = 6  // Transmission Control [RFC793]
	ProtocolUDP  Protocol = 17 // User Datagram [RFC768]
	ProtocolIPv6 Protocol = 41 // IPv6 encapsulation [RFC2473]
)

func (p Protocol) String() string {
	switch p {
	case ProtocolICMP:
		return "ICMP"
	case ProtocolTCP:
		return "TCP"
	case ProtocolUDP:
		return "UDP"
	case ProtocolIPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Protocol(%d)", uint8(p))
	}
}

// Version is the fixed IPv4 version field value.
const Version = 4

const (
	minHeaderLen = 20
	maxOptionsLen = (0xf-5)*4
)

// Errors returned by header construction and decoding.
var (
	ErrBadVersion      = errors.New("ipv4: version field is not 4")
	ErrShortHeader     = errors.New("ipv4: buffer too short to contain a header")
	ErrBadIHL          = errors.New("ipv4: IHL inconsistent with buffer length")
	ErrOptionsNotWords  = errors.New("ipv4: options length must be a multiple of 4 bytes")
	ErrOptionsTooLong  = errors.New("ipv4: options exceed the 40-byte maximum")
	ErrReservedFlagSet = errors.New("ipv4: reserved flag bit is set")
	ErrBadChecksum     = errors.New("ipv4: header checksum mismatch")
	ErrTTLExceeded     = errors.New("ipv4: TTL exceeded")
)

// Header is an IPv4 header (spec.md §3). DSCP and ECN partition the 8-bit
// ToS field (6 bits + 2 bits); DontFragment/MoreFragments and
// FragmentOffset partition the 16-bit flags+offset field.
type Header struct {
	DSCP           uint8 // 6 bits
	ECN            uint8 // 2 bits
	TotalLength    uint16
	Identification uint16
	DontFragment   bool
	MoreFragments  bool
	FragmentOffset uint16 // 13 bits
	TTL            uint8
	Protocol       Protocol
	Checksum       uint16
	Source         Address
	Destination    Address
	Options        []byte // zero or more 32-bit words
}

// IHL returns the header length in 32-bit words, as placed on the wire.
func (h Header) IHL() uint8 { return 5 + uint8(len(h.Options)/4) }

// HeaderLen returns the header length in bytes, including options.
func (h Header) HeaderLen() int { return minHeaderLen + len(h.Options) }

// Encode produces the on-wire header bytes with the checksum field
// recomputed: the field is set to zero before the Internet checksum is
// computed over the header, then the result is installed.
func (h Header) Encode() ([]byte, error) {
	if len(h.Options)%4 != 0 {
		return nil, ErrOptionsNotWords
	}
	if len(h.Options) > maxOptionsLen {
		return nil, ErrOptionsTooLong
	}
	buf := make([]byte, h.HeaderLen())
	buf[0] = Version<<4 | h.IHL()
	buf[1] = h.DSCP<<2 | h.ECN&0b11
	binary.BigEndian.PutUint16(buf[2:4], h.TotalLength)
	binary.BigEndian.PutUint16(buf[4:6], h.Identification)
	flagsAndOffset := h.FragmentOffset & 0x1fff
	if h.DontFragment {
		flagsAndOffset |= 0x4000
	}
	if h.MoreFragments {
		flagsAndOffset |= 0x8000
	}
	binary.BigEndian.PutUint16(buf[6:8], flagsAndOffset)
	buf[8] = h.TTL
	buf[9] = byte(h.Protocol)
	// buf[10:12] checksum left zero for the computation below.
	copy(buf[12:16], h.Source[:])
	copy(buf[16:20], h.Destination[:])
	copy(buf[20:], h.Options)

	sum := bitio.InternetChecksum(buf)
	buf[10], buf[11] = sum[0], sum[1]
	return buf, nil
}

// computedChecksum computes the header's Internet checksum as it would be placed
// on the wire, without mutating h.
func (h Header) computedChecksum() (uint16, error) {
	encoded, err := h.Encode()
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(encoded[10:12]), nil
}

// DecodeHeader parses a header from the front of data, verifying the
// version, IHL/buffer consistency, the reserved flag bit, and the checksum.
// It returns the header and the number of bytes consumed.
func DecodeHeader(data []byte) (Header, int, error) {
	if len(data) < minHeaderLen {
		return Header{}, 0, ErrShortHeader
	}
	version := data[0] >> 4
	if version != Version {
		return Header{}, 0, fmt.Errorf("%w: got %d", ErrBadVersion, version)
	}
	ihl := data[0] & 0xf
	headerLen := int(ihl) * 4
	if headerLen < minHeaderLen || len(data) < headerLen {
		return Header{}, 0, ErrBadIHL
	}

	sum := bitio.InternetChecksum(data[:headerLen])
	if sum != [2]byte{0, 0} {
		return Header{}, 0, ErrBadChecksum
	}

	flagsAndOffset := binary.BigEndian.Uint16(data[6:8])
	if flagsAndOffset&0x2000 != 0 {
		return Header{}, 0, ErrReservedFlagSet
	}

	h := Header{
		DSCP:           data[1] >> 2,
		ECN:            data[1] & 0b11,
		TotalLength:    binary.BigEndian.Uint16(data[2:4]),
		Identification: binary.BigEndian.Uint16(data[4:6]),
		DontFragment:   flagsAndOffset&0x4000 != 0,
		MoreFragments:  flagsAndOffset&0x8000 != 0,
		FragmentOffset: flagsAndOffset & 0x1fff,
		TTL:            data[8],
		Protocol:       Protocol(data[9]),
		Checksum:       binary.BigEndian.Uint16(data[10:12]),
	}
	copy(h.Source[:], data[12:16])
	copy(h.Destination[:], data[16:20])
	if headerLen > minHeaderLen {
		h.Options = append([]byte(nil), data[minHeaderLen:headerLen]...)
	}
	return h, headerLen, nil
}

// DecrementTTL reduces the TTL by one, recomputing the checksum field. It
// returns ErrTTLExceeded (leaving h unchanged) if the TTL would reach zero,
// per spec.md §4.6 forward's TTL handling.
func (h *Header) DecrementTTL() error {
	if h.TTL <= 1 {
		return ErrTTLExceeded
	}
	h.TTL--
	chk, err := h.computedChecksum()
	if err != nil {
		return err
	}
	h.Checksum = chk
	return nil
}
