package hdlc

import (
	"errors"
	"fmt"

	"github.com/mvarga/netsim/bitio"
	"github.com/mvarga/netsim/escape"
)

// Flag is the single-byte delimiter bounding every frame on the wire.
const Flag = 0x7E

// EscapeByte precedes a replaced byte in ASYNC/ASYNC_BALANCED mode.
const EscapeByte = 0x7D

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

// bitsToStuff is the five-1s run that triggers NORMAL-mode bit stuffing.
var bitsToStuff = []bool{true, true, true, true, true}

// Errors returned by frame construction and decoding.
var (
	ErrAddressRange = errors.New("hdlc: address must fit in one byte")
	ErrShortFrame   = errors.New("hdlc: frame too short to contain address, control and FCS")
	ErrBadFCS       = errors.New("hdlc: frame check sequence mismatch")
	ErrBitStuffMode = errors.New("hdlc: byte-encoding not supported in NORMAL mode")
	ErrBadBitLength = errors.New("hdlc: destuffed bit count not a multiple of 8")
)

// Frame is an HDLC-like link-layer frame: an address byte, a control field,
// optional information, and a trailing 4-byte FCS.
type Frame struct {
	Address     uint8
	Control     Control
	Information []byte
	FCS         [4]byte
}

// NewFrame builds a Frame from an address and control field, computing its
// FCS over address+control+information.
func NewFrame(address uint8, control Control, information []byte) (Frame, error) {
	f := Frame{Address: address, Control: control, Information: information}
	body, err := f.bodyBytes()
	if err != nil {
		return Frame{}, err
	}
	f.FCS = bitio.CRC32(body)
	return f, nil
}

func (f Frame) bodyBytes() ([]byte, error) {
	ctrl, err := f.Control.Encode()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(ctrl)+len(f.Information))
	out = append(out, f.Address)
	out = append(out, ctrl...)
	out = append(out, f.Information...)
	return out, nil
}

// Bytes returns address+control+information+FCS: the frame's full on-wire
// representation before any bit-stuffing or byte-escaping is applied.
func (f Frame) Bytes() ([]byte, error) {
	body, err := f.bodyBytes()
	if err != nil {
		return nil, err
	}
	return append(body, f.FCS[:]...), nil
}

// EncodeBytes produces the byte-escaped on-wire form for ASYNC and
// ASYNC_BALANCED modes. It returns ErrBitStuffMode for NORMAL, since
// bit-stuffing is not byte-aligned; see EncodeBits.
func (f Frame) EncodeBytes(mode Mode) ([]byte, error) {
	if mode == NORMAL {
		return nil, ErrBitStuffMode
	}
	body, err := f.Bytes()
	if err != nil {
		return nil, err
	}
	return byteEscape.Escape(body), nil
}

// EncodeBits produces the bit sequence for mode. NORMAL inserts a stuffing
// bit after every run of five 1s; ASYNC/ASYNC_BALANCED byte-escape first and
// then expand to bits.
func (f Frame) EncodeBits(mode Mode) ([]bool, error) {
	if mode == NORMAL {
		body, err := f.Bytes()
		if err != nil {
			return nil, err
		}
		return bitio.StuffBits(bitio.BytesToBits(body), bitsToStuff, false), nil
	}
	escaped, err := f.EncodeBytes(mode)
	if err != nil {
		return nil, err
	}
	return bitio.BytesToBits(escaped), nil
}

// DecodeBytes parses the byte-escaped on-wire form produced by EncodeBytes.
// extended must match the mode the sender used for I/S control fields.
func DecodeBytes(encoded []byte, extended bool) (Frame, error) {
	return decodeBody(byteEscape.Unescape(encoded), extended)
}

// DecodeBits parses the bit-stuffed (NORMAL mode) or byte-escaped
// (ASYNC/ASYNC_BALANCED, expanded to bits) on-wire form.
func DecodeBits(bits []bool, mode Mode, extended bool) (Frame, error) {
	if mode == NORMAL {
		destuffed := bitio.DestuffBits(bits, bitsToStuff, false)
		if len(destuffed)%8 != 0 {
			return Frame{}, fmt.Errorf("%w: got %d bits", ErrBadBitLength, len(destuffed))
		}
		return decodeBody(bitio.BitsToBytes(destuffed), extended)
	}
	return DecodeBytes(bitio.BitsToBytes(bits), extended)
}

func decodeBody(data []byte, extended bool) (Frame, error) {
	if len(data) < 1+4 {
		return Frame{}, ErrShortFrame
	}
	address := data[0]
	ctrl, n, err := DecodeControl(data[1:], extended)
	if err != nil {
		return Frame{}, err
	}
	off := 1 + n
	if len(data) < off+4 {
		return Frame{}, ErrShortFrame
	}
	information := data[off : len(data)-4]
	gotFCS := data[len(data)-4:]
	wantFCS := bitio.CRC32(data[:len(data)-4])
	if !fcsEqual(gotFCS, wantFCS) {
		return Frame{}, fmt.Errorf("%w: got %x want %x", ErrBadFCS, gotFCS, wantFCS)
	}
	f := Frame{
		Address:     address,
		Control:     ctrl,
		Information: append([]byte(nil), information...),
		FCS:         wantFCS,
	}
	return f, nil
}

func fcsEqual(a []byte, b [4]byte) bool {
	return len(a) == 4 && a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}
