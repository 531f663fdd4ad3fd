// Package hdlc implements the HDLC-like frame family: Information,
// Supervisory and Unnumbered control fields, NORMAL bit-stuffed and
// ASYNC/ASYNC_BALANCED byte-escaped transmission modes, and delimiter-based
// stream framing.
package hdlc

import (
	"errors"
	"fmt"
)

// Mode selects how a stream of frames is encoded between flag delimiters.
type Mode uint8

const (
	// NORMAL bit-stuffs the frame bits: a 0 is inserted after every run of
	// five consecutive 1 bits, and is not byte-escape compatible.
	NORMAL Mode = iota
	// ASYNC byte-escapes 0x7E and 0x7D occurrences within the frame.
	ASYNC
	// ASYNC_BALANCED is identical to ASYNC for framing purposes; the
	// distinction is a data-link-layer response-mode detail this simulator
	// does not model.
	ASYNC_BALANCED
)

// Kind discriminates the three HDLC control field families by their two
// high-order bits.
type Kind uint8

const (
	KindInformation Kind = iota
	KindSupervisory
	KindUnnumbered
)

// SupervisoryType is the 2-bit type code of a Supervisory control field.
type SupervisoryType uint8

const (
	ReceiveReady     SupervisoryType = 0b00
	Reject           SupervisoryType = 0b01
	ReceiveNotReady  SupervisoryType = 0b10
	SelectiveReject  SupervisoryType = 0b11
)

func (t SupervisoryType) String() string {
	switch t {
	case ReceiveReady:
		return "RR"
	case Reject:
		return "REJ"
	case ReceiveNotReady:
		return "RNR"
	case SelectiveReject:
		return "SREJ"
	default:
		return "S?"
	}
}

// UnnumberedType is the 5-bit (m1,m2) type code of an Unnumbered control
// field. Only the types named below are encoded and decoded; any other
// m1/m2 code is rejected with ErrUnknownUnnumbered.
type UnnumberedType uint8

const (
	SNRM UnnumberedType = iota // Set normal response mode
	SABM                       // Set asynchronous balanced mode
	DISC                       // Disconnect
	UA                         // Unnumbered acknowledgment
	DM                         // Disconnect mode
	FRMR                       // Frame reject
	UI                         // Unnumbered information
)

var unnumberedCodes = map[UnnumberedType][2]uint8{
	SNRM: {0b00, 0b001},
	SABM: {0b11, 0b100},
	DISC: {0b00, 0b010},
	UA:   {0b00, 0b110},
	DM:   {0b11, 0b000},
	FRMR: {0b10, 0b001},
	UI:   {0b00, 0b000},
}

var unnumberedNames = map[UnnumberedType]string{
	SNRM: "SNRM", SABM: "SABM", DISC: "DISC", UA: "UA", DM: "DM", FRMR: "FRMR", UI: "UI",
}

func (t UnnumberedType) String() string {
	if s, ok := unnumberedNames[t]; ok {
		return s
	}
	return "U?"
}

// Errors returned while constructing or decoding a control field.
var (
	ErrSeqOutOfRange      = errors.New("hdlc: sequence number out of range")
	ErrExtendedUnnumbered = errors.New("hdlc: unnumbered frames are never extended")
	ErrShortControl       = errors.New("hdlc: control field truncated")
	ErrUnknownControlKind = errors.New("hdlc: leading control bits match no known kind")
	ErrUnknownUnnumbered  = errors.New("hdlc: unrecognized unnumbered type code")
)

// Control is the 1- or 2-byte HDLC control field. Which of NS/NR, SType or
// UType is meaningful depends on Kind.
type Control struct {
	Kind     Kind
	Extended bool
	PF       bool
	NS, NR   int
	SType    SupervisoryType
	UType    UnnumberedType
}

func seqBits(extended bool) int {
	if extended {
		return 7
	}
	return 3
}

// NewInformation builds an I-frame control field. ns and nr are reduced
// modulo the sequence space (3 bits normally, 7 bits when extended).
func NewInformation(pf bool, ns, nr int, extended bool) Control {
	bits := seqBits(extended)
	mod := 1 << uint(bits)
	return Control{
		Kind:     KindInformation,
		Extended: extended,
		PF:       pf,
		NS:       ns % mod,
		NR:       nr % mod,
	}
}

// NewSupervisory builds an S-frame control field.
func NewSupervisory(pf bool, sType SupervisoryType, nr int, extended bool) Control {
	bits := seqBits(extended)
	mod := 1 << uint(bits)
	return Control{
		Kind:     KindSupervisory,
		Extended: extended,
		PF:       pf,
		SType:    sType,
		NR:       nr % mod,
	}
}

// NewUnnumbered builds a U-frame control field. Unnumbered control fields
// are always a single byte; extended mode has no effect on them.
func NewUnnumbered(pf bool, uType UnnumberedType) Control {
	return Control{Kind: KindUnnumbered, PF: pf, UType: uType}
}

// Encode produces the on-wire control field bytes.
func (c Control) Encode() ([]byte, error) {
	switch c.Kind {
	case KindInformation:
		return c.encodeInformation(), nil
	case KindSupervisory:
		return c.encodeSupervisory(), nil
	case KindUnnumbered:
		if c.Extended {
			return nil, ErrExtendedUnnumbered
		}
		return c.encodeUnnumbered()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownControlKind, c.Kind)
	}
}

func (c Control) encodeInformation() []byte {
	if !c.Extended {
		b := uint8(c.NS&0b111) << 4
		if c.PF {
			b |= 0b1000
		}
		b |= uint8(c.NR & 0b111)
		return []byte{b}
	}
	b0 := uint8(c.NS & 0b1111111)
	b1 := uint8(c.NR & 0b1111111)
	if c.PF {
		b1 |= 0x80
	}
	return []byte{b0, b1}
}

func (c Control) encodeSupervisory() []byte {
	if !c.Extended {
		b := uint8(0b10)<<6 | (uint8(c.SType)&0b11)<<4
		if c.PF {
			b |= 0b1000
		}
		b |= uint8(c.NR & 0b111)
		return []byte{b}
	}
	b0 := uint8(0b10)<<6 | (uint8(c.SType) & 0b111111)
	b1 := uint8(c.NR & 0b1111111)
	if c.PF {
		b1 |= 0x80
	}
	return []byte{b0, b1}
}

func (c Control) encodeUnnumbered() ([]byte, error) {
	codes, ok := unnumberedCodes[c.UType]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownUnnumbered, c.UType)
	}
	b := uint8(0b11)<<6 | (codes[0]&0b11)<<4
	if c.PF {
		b |= 0b1000
	}
	b |= codes[1] & 0b111
	return []byte{b}, nil
}

// DecodeControl parses a control field from the front of data. extended
// selects whether I/S fields are decoded as 1 or 2 bytes; U-frames always
// consume exactly one byte regardless. It returns the decoded Control and
// the number of bytes consumed.
func DecodeControl(data []byte, extended bool) (Control, int, error) {
	if len(data) == 0 {
		return Control{}, 0, ErrShortControl
	}
	lead := data[0] >> 6
	switch {
	case lead&0b10 == 0: // high bit 0: Information
		n := 1
		if extended {
			n = 2
		}
		if len(data) < n {
			return Control{}, 0, ErrShortControl
		}
		if !extended {
			b := data[0]
			return Control{
				Kind: KindInformation,
				NS:   int(b>>4) & 0b111,
				PF:   b&0b1000 != 0,
				NR:   int(b & 0b111),
			}, 1, nil
		}
		b0, b1 := data[0], data[1]
		return Control{
			Kind:     KindInformation,
			Extended: true,
			NS:       int(b0 & 0b1111111),
			PF:       b1&0x80 != 0,
			NR:       int(b1 & 0b1111111),
		}, 2, nil
	case lead == 0b10: // Supervisory
		n := 1
		if extended {
			n = 2
		}
		if len(data) < n {
			return Control{}, 0, ErrShortControl
		}
		if !extended {
			b := data[0]
			return Control{
				Kind:  KindSupervisory,
				SType: SupervisoryType((b >> 4) & 0b11),
				PF:    b&0b1000 != 0,
				NR:    int(b & 0b111),
			}, 1, nil
		}
		b0, b1 := data[0], data[1]
		return Control{
			Kind:     KindSupervisory,
			Extended: true,
			SType:    SupervisoryType(b0 & 0b111111 & 0b11),
			PF:       b1&0x80 != 0,
			NR:       int(b1 & 0b1111111),
		}, 2, nil
	case lead == 0b11: // Unnumbered
		b := data[0]
		m1 := (b >> 4) & 0b11
		pf := b&0b1000 != 0
		m2 := b & 0b111
		uType, ok := lookupUnnumbered(m1, m2)
		if !ok {
			return Control{}, 0, fmt.Errorf("%w: m1=%02b m2=%03b", ErrUnknownUnnumbered, m1, m2)
		}
		return Control{Kind: KindUnnumbered, PF: pf, UType: uType}, 1, nil
	default:
		return Control{}, 0, ErrUnknownControlKind
	}
}

func lookupUnnumbered(m1, m2 uint8) (UnnumberedType, bool) {
	for t, codes := range unnumberedCodes {
		if codes[0] == m1 && codes[1] == m2 {
			return t, true
		}
	}
	return 0, false
}
