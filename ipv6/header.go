package ipv6

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mvarga/netsim/ipv4"
)

// Version is the fixed IPv6 version field value.
const Version = 6

const headerLen = 40

// Errors returned by header decoding.
var (
	ErrBadVersion  = errors.New("ipv6: version field is not 6")
	ErrShortHeader = errors.New("ipv6: buffer too short to contain a header")
	ErrHopExceeded = errors.New("ipv6: hop limit exceeded")
)

// Header is an IPv6 header (RFC 8200), reusing ipv4.Protocol for the Next
// Header field since this simulator's device fabric dispatches on the same
// protocol numbers regardless of IP version.
type Header struct {
	DSCP        uint8 // 6 bits
	ECN         uint8 // 2 bits
	FlowLabel   uint32 // 20 bits
	PayloadLen  uint16
	NextHeader  ipv4.Protocol
	HopLimit    uint8
	Source      Address
	Destination Address
}

// Encode produces the on-wire 40-byte header.
func (h Header) Encode() []byte {
	buf := make([]byte, headerLen)
	v := uint32(Version)<<28 | uint32(h.DSCP)<<22 | uint32(h.ECN&0b11)<<20 | h.FlowLabel&0xfffff
	binary.BigEndian.PutUint32(buf[0:4], v)
	binary.BigEndian.PutUint16(buf[4:6], h.PayloadLen)
	buf[6] = byte(h.NextHeader)
	buf[7] = h.HopLimit
	copy(buf[8:24], h.Source[:])
	copy(buf[24:40], h.Destination[:])
	return buf
}

// DecodeHeader parses a header from the front of data.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < headerLen {
		return Header{}, ErrShortHeader
	}
	v := binary.BigEndian.Uint32(data[0:4])
	version := uint8(v >> 28)
	if version != Version {
		return Header{}, fmt.Errorf("%w: got %d", ErrBadVersion, version)
	}
	h := Header{
		DSCP:       uint8(v>>22) & 0x3f,
		ECN:        uint8(v>>20) & 0b11,
		FlowLabel:  v & 0xfffff,
		PayloadLen: binary.BigEndian.Uint16(data[4:6]),
		NextHeader: ipv4.Protocol(data[6]),
		HopLimit:   data[7],
	}
	copy(h.Source[:], data[8:24])
	copy(h.Destination[:], data[24:40])
	return h, nil
}

// DecrementHopLimit reduces the hop limit by one, per spec.md §4.6's
// forwarding step applied to IPv6 traffic. It returns ErrHopExceeded
// (leaving h unchanged) if the hop limit would reach zero.
func (h *Header) DecrementHopLimit() error {
	if h.HopLimit <= 1 {
		return ErrHopExceeded
	}
	h.HopLimit--
	return nil
}
