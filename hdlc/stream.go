package hdlc

import (
	"log/slog"

	"github.com/mvarga/netsim/bitio"
)

var flagBits = bitio.BytesToBits([]byte{Flag})

// StreamEncodeBytes interleaves the byte-escaped encoding of frames with the
// flag delimiter: flag, frame, flag, frame, ..., flag. NORMAL mode is not
// byte-aligned and returns ErrBitStuffMode.
func StreamEncodeBytes(frames []Frame, mode Mode) ([]byte, error) {
	elts := make([][]byte, 0, len(frames))
	for _, f := range frames {
		b, err := f.EncodeBytes(mode)
		if err != nil {
			return nil, err
		}
		elts = append(elts, b)
	}
	return bitio.Interleave(elts, []byte{Flag}), nil
}

// StreamEncodeBits interleaves the bit-level encoding of frames (NORMAL
// bit-stuffed or ASYNC/ASYNC_BALANCED byte-escaped then expanded) with the
// flag delimiter.
func StreamEncodeBits(frames []Frame, mode Mode) ([]bool, error) {
	var out []bool
	out = append(out, flagBits...)
	for _, f := range frames {
		bits, err := f.EncodeBits(mode)
		if err != nil {
			return nil, err
		}
		out = append(out, bits...)
		out = append(out, flagBits...)
	}
	return out, nil
}

// StreamDecodeBytes splits data on the flag delimiter, unescapes each
// section, and decodes it as a Frame. Sections that fail to decode
// (truncated, bad FCS, unrecognized control field) are dropped with a
// logged diagnostic rather than propagated, matching the rest of the frame
// codecs' drop-and-log policy for stream decoding.
func StreamDecodeBytes(data []byte, extended bool) []Frame {
	sections := bitio.Separate(data, []byte{Flag}, nil)
	frames := make([]Frame, 0, len(sections))
	for _, section := range sections {
		f, err := DecodeBytes(section, extended)
		if err != nil {
			slog.Warn("hdlc: dropping undecodable frame", slog.Any("error", err))
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// StreamDecodeBits splits a bit sequence on the flag delimiter, destuffs or
// unescapes each section per mode, and decodes it as a Frame. Invalid
// sections are dropped with a logged diagnostic.
func StreamDecodeBits(bits []bool, mode Mode, extended bool) []Frame {
	// NORMAL mode's stuffed bit sequence is not byte-aligned between
	// flags, so sections are located directly on the bit sequence rather
	// than via the byte-wise Separate used for ASYNC modes.
	var sections [][]byte
	if mode == NORMAL {
		sections = separateBits(bits)
	} else {
		sections = bitio.Separate(bitio.BitsToBytes(bits), []byte{Flag}, nil)
	}
	frames := make([]Frame, 0, len(sections))
	for _, section := range sections {
		var (
			f   Frame
			err error
		)
		if mode == NORMAL {
			f, err = DecodeBits(bitio.BytesToBits(section), mode, extended)
		} else {
			f, err = DecodeBytes(section, extended)
		}
		if err != nil {
			slog.Warn("hdlc: dropping undecodable frame", slog.Any("error", err))
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// separateBits finds maximal flag...flag infixes directly on a bit sequence
// and returns each infix repacked into bytes (MSB-first, zero-padded) for
// DecodeBits to destuff.
func separateBits(bits []bool) [][]byte {
	var out [][]byte
	start := -1
	for i := 0; i+8 <= len(bits); i++ {
		if !bitsEqual(bits[i:i+8], flagBits) {
			continue
		}
		if start < 0 {
			start = i + 8
			continue
		}
		if i > start {
			out = append(out, bitio.BitsToBytes(bits[start:i]))
		}
		start = i + 8
	}
	return out
}

func bitsEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
