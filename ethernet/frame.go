package ethernet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mvarga/netsim/bitio"
)

// Errors returned by Frame construction and decoding, grouped per the
// project's error taxonomy (malformed input, integrity failure, policy
// violation).
var (
	ErrPayloadTooLarge  = errors.New("ethernet: payload exceeds maximum size")
	ErrShortFrame       = errors.New("ethernet: frame too short to contain a header and FCS")
	ErrBadFCS           = errors.New("ethernet: frame check sequence mismatch")
	ErrUnknownEtherType = errors.New("ethernet: unrecognized EtherType")
)

// Frame is an on-wire Ethernet frame, without the physical-layer preamble or
// SFD. Kind discriminates Ethernet II (EtherType-carrying) from 802.3
// (length-carrying).
type Frame struct {
	Destination MAC
	Source      MAC
	VLAN        *VLANTag // non-nil when an IEEE 802.1Q tag is present
	EtherType   Type     // meaningful only when Kind == KindEthernetII
	Length      uint16   // meaningful only when Kind == KindIEEE8023
	Payload     []byte
	Kind        Kind
}

// Kind discriminates the two Ethernet frame families sharing one wire
// layout, distinguished only by how the post-source 2-byte field is
// interpreted.
type Kind uint8

const (
	KindEthernetII Kind = iota
	KindIEEE8023
)

// NewEthernetII builds an Ethernet II frame, padding payload on the right
// with zeros up to MinPayloadEthernetII when it is shorter. It returns
// ErrPayloadTooLarge if payload exceeds MaxPayload.
func NewEthernetII(dst, src MAC, etherType Type, payload []byte) (Frame, error) {
	if len(payload) > MaxPayload {
		return Frame{}, ErrPayloadTooLarge
	}
	return Frame{
		Destination: dst,
		Source:      src,
		EtherType:   etherType,
		Payload:     padRight(payload, MinPayloadEthernetII),
		Kind:        KindEthernetII,
	}, nil
}

// NewIEEE8023 builds an 802.3 frame carrying payload of the given length
// field. minPayload should be MinPayload8023 when an 802.1Q tag is set, or
// MinPayloadEthernetII otherwise (spec.md §3).
func NewIEEE8023(dst, src MAC, payload []byte, minPayload int) (Frame, error) {
	if len(payload) > MaxPayload {
		return Frame{}, ErrPayloadTooLarge
	}
	padded := padRight(payload, minPayload)
	return Frame{
		Destination: dst,
		Source:      src,
		Length:      uint16(len(payload)),
		Payload:     padded,
		Kind:        KindIEEE8023,
	}, nil
}

func padRight(payload []byte, minLen int) []byte {
	if len(payload) >= minLen {
		out := make([]byte, len(payload))
		copy(out, payload)
		return out
	}
	out := make([]byte, minLen)
	copy(out, payload)
	return out
}

// SetVLAN attaches an 802.1Q tag to the frame, inserted between the source
// address and the type/length field.
func (f *Frame) SetVLAN(tag VLANTag) { f.VLAN = &tag }

// headerLen returns the byte length of dst+src+[vlan]+type-or-length.
func (f Frame) headerLen() int {
	n := headerLenNoVLAN
	if f.VLAN != nil {
		n += vlanTagLen
	}
	return n
}

// Encode produces the on-wire byte sequence of the frame: no preamble/SFD,
// ending in the little-endian CRC-32 FCS computed over every preceding
// byte.
func (f Frame) Encode() []byte {
	hl := f.headerLen()
	buf := make([]byte, hl+len(f.Payload)+fcsLen)
	copy(buf[0:6], f.Destination[:])
	copy(buf[6:12], f.Source[:])
	off := 12
	if f.VLAN != nil {
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(TypeVLAN))
		binary.BigEndian.PutUint16(buf[off+2:off+4], uint16(*f.VLAN))
		off += 4
	}
	switch f.Kind {
	case KindEthernetII:
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(f.EtherType))
	case KindIEEE8023:
		binary.BigEndian.PutUint16(buf[off:off+2], f.Length)
	}
	off += 2
	copy(buf[off:], f.Payload)
	fcs := bitio.CRC32(buf[:off+len(f.Payload)])
	copy(buf[off+len(f.Payload):], fcs[:])
	return buf
}

// Decode parses a byte sequence produced by Encode. It verifies the FCS and
// returns ErrBadFCS on mismatch, ErrShortFrame if data is too small to hold
// even an untagged header and FCS.
func Decode(data []byte) (Frame, error) {
	if len(data) < headerLenNoVLAN+fcsLen {
		return Frame{}, ErrShortFrame
	}
	var f Frame
	copy(f.Destination[:], data[0:6])
	copy(f.Source[:], data[6:12])
	off := 12
	typeOrLen := Type(binary.BigEndian.Uint16(data[off : off+2]))
	if typeOrLen == TypeVLAN {
		if len(data) < headerLenNoVLAN+vlanTagLen+fcsLen {
			return Frame{}, ErrShortFrame
		}
		tag := VLANTag(binary.BigEndian.Uint16(data[off+2 : off+4]))
		f.VLAN = &tag
		off += vlanTagLen
		typeOrLen = Type(binary.BigEndian.Uint16(data[off : off+2]))
	}
	off += 2
	if len(data) < off+fcsLen {
		return Frame{}, ErrShortFrame
	}
	payload := data[off : len(data)-fcsLen]
	gotFCS := data[len(data)-fcsLen:]
	wantFCS := bitio.CRC32(data[:len(data)-fcsLen])
	if !fcsEqual(gotFCS, wantFCS) {
		return Frame{}, fmt.Errorf("%w: got %x want %x", ErrBadFCS, gotFCS, wantFCS)
	}
	f.Payload = append([]byte(nil), payload...)
	if typeOrLen.IsSize() {
		f.Kind = KindIEEE8023
		f.Length = uint16(typeOrLen)
	} else {
		f.Kind = KindEthernetII
		f.EtherType = typeOrLen
	}
	return f, nil
}

func fcsEqual(a []byte, b [4]byte) bool {
	return len(a) == 4 && a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}
