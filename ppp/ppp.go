// Package ppp implements Point-to-Point Protocol framing: a fixed address
// and control byte, a 2-byte protocol selector, and HDLC-style byte-escaped
// (never bit-stuffed) framing.
package ppp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mvarga/netsim/bitio"
	"github.com/mvarga/netsim/escape"
)

// Address and Control are fixed for every PPP frame; there is no address or
// control-field variability as in the general HDLC family.
const (
	Address uint8 = 0xFF
	Control uint8 = 0x03

	// Flag is the single-byte delimiter bounding every frame on the wire,
	// shared with the HDLC family.
	Flag = 0x7E
	// EscapeByte precedes a replaced byte.
	EscapeByte = 0x7D
)

var byteEscape = mustEscapeSchema()

func mustEscapeSchema() *escape.Schema {
	s, err := escape.NewSchema(EscapeByte, map[byte]byte{
		EscapeByte: 0x5D,
		Flag:       0x5E,
	})
	if err != nil {
		panic(err)
	}
	return s
}

// Protocol is the 2-byte, big-endian PPP protocol field. The named values
// are common network and control protocols; of these, the IP layer uses
// only ProtocolIPv4 and ProtocolIPv6.
type Protocol uint16

const (
	ProtocolIPv4      Protocol = 0x0021
	ProtocolIPv6      Protocol = 0x0057
	ProtocolAppleTalk Protocol = 0x0029
	ProtocolIPX       Protocol = 0x002B
	ProtocolMultilink Protocol = 0x003D
	ProtocolNetBIOS   Protocol = 0x003F
	ProtocolIPCP      Protocol = 0x8021
	ProtocolIPv6CP    Protocol = 0x8057
	ProtocolLCP       Protocol = 0xC021
)

func (p Protocol) String() string {
	switch p {
	case ProtocolIPv4:
		return "IPv4"
	case ProtocolIPv6:
		return "IPv6"
	case ProtocolAppleTalk:
		return "AppleTalk"
	case ProtocolIPX:
		return "IPX"
	case ProtocolMultilink:
		return "Multilink"
	case ProtocolNetBIOS:
		return "NetBIOS"
	case ProtocolIPCP:
		return "IPCP"
	case ProtocolIPv6CP:
		return "IPv6CP"
	case ProtocolLCP:
		return "LCP"
	default:
		return fmt.Sprintf("Protocol(0x%04x)", uint16(p))
	}
}

// ProtocolForIPVersion returns the PPP network-layer protocol carrying an IP
// packet of the given version (4 or 6).
func ProtocolForIPVersion(version uint8) (Protocol, error) {
	switch version {
	case 4:
		return ProtocolIPv4, nil
	case 6:
		return ProtocolIPv6, nil
	default:
		return 0, fmt.Errorf("%w: IP version %d", ErrUnknownProto, version)
	}
}

// Errors returned by frame decoding.
var (
	ErrShortFrame    = errors.New("ppp: frame too short to contain address, control, protocol and FCS")
	ErrBadAddress    = errors.New("ppp: address byte is not 0xFF")
	ErrBadControl    = errors.New("ppp: control byte is not 0x03")
	ErrBadFCS        = errors.New("ppp: frame check sequence mismatch")
	ErrUnknownProto  = errors.New("ppp: unrecognized protocol field")
)

// Frame is a PPP frame: fixed address/control, a protocol selector,
// information, and a trailing 4-byte FCS.
type Frame struct {
	Protocol    Protocol
	Information []byte
	FCS         [4]byte
}

// NewFrame builds a Frame, computing its FCS over
// address+control+protocol+information.
func NewFrame(protocol Protocol, information []byte) Frame {
	f := Frame{Protocol: protocol, Information: information}
	f.FCS = bitio.CRC32(f.bodyBytes())
	return f
}

func (f Frame) bodyBytes() []byte {
	out := make([]byte, 4, 4+len(f.Information))
	out[0] = Address
	out[1] = Control
	binary.BigEndian.PutUint16(out[2:4], uint16(f.Protocol))
	out = append(out, f.Information...)
	return out
}

// Bytes returns the frame's full on-wire representation (before escaping):
// address, control, protocol, information, FCS.
func (f Frame) Bytes() []byte {
	return append(f.bodyBytes(), f.FCS[:]...)
}

// EncodeBytes returns the byte-escaped on-wire form, ready to be interleaved
// with Flag delimiters by the caller.
func (f Frame) EncodeBytes() []byte {
	return byteEscape.Escape(f.Bytes())
}

// DecodeBytes parses the byte-escaped on-wire form produced by EncodeBytes.
func DecodeBytes(encoded []byte) (Frame, error) {
	data := byteEscape.Unescape(encoded)
	if len(data) < 4+4 {
		return Frame{}, ErrShortFrame
	}
	if data[0] != Address {
		return Frame{}, fmt.Errorf("%w: got 0x%02x", ErrBadAddress, data[0])
	}
	if data[1] != Control {
		return Frame{}, fmt.Errorf("%w: got 0x%02x", ErrBadControl, data[1])
	}
	gotFCS := data[len(data)-4:]
	wantFCS := bitio.CRC32(data[:len(data)-4])
	if !fcsEqual(gotFCS, wantFCS) {
		return Frame{}, fmt.Errorf("%w: got %x want %x", ErrBadFCS, gotFCS, wantFCS)
	}
	protocol := Protocol(binary.BigEndian.Uint16(data[2:4]))
	information := append([]byte(nil), data[4:len(data)-4]...)
	return Frame{Protocol: protocol, Information: information, FCS: wantFCS}, nil
}

func fcsEqual(a []byte, b [4]byte) bool {
	return len(a) == 4 && a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}

// StreamEncode interleaves the escaped encodings of frames with the flag
// delimiter.
func StreamEncode(frames []Frame) []byte {
	elts := make([][]byte, 0, len(frames))
	for _, f := range frames {
		elts = append(elts, f.EncodeBytes())
	}
	return bitio.Interleave(elts, []byte{Flag})
}

// StreamDecode splits data on the flag delimiter and decodes each section as
// a Frame, dropping (without propagating) any section that fails to decode.
func StreamDecode(data []byte) []Frame {
	sections := bitio.Separate(data, []byte{Flag}, nil)
	frames := make([]Frame, 0, len(sections))
	for _, section := range sections {
		f, err := DecodeBytes(section)
		if err != nil {
			slog.Warn("ppp: dropping undecodable frame", slog.Any("error", err))
			continue
		}
		frames = append(frames, f)
	}
	return frames
}
