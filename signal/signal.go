// Package signal composes the Manchester line code with the link-layer
// stream codecs (Ethernet, HDLC, PPP) so a list of frames can be turned
// into a single real-valued signal and back (spec.md §4.9).
package signal

import (
	"log/slog"

	"github.com/mvarga/netsim/bitio"
	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/hdlc"
	"github.com/mvarga/netsim/manchester"
	"github.com/mvarga/netsim/ppp"
)

// minSearchOffset is the shortest possible distance from the start of an
// Ethernet frame's bytes to its FCS (the untagged 14-byte header; actual
// frames are always longer once the 46-byte minimum payload is added).
const minSearchOffset = 14

// preambleLen is the byte length of the physical-layer preamble+SFD
// prepended to every frame on the Ethernet signal (spec.md §3).
const preambleLen = ethernet.PreambleLen + 1

func preambleBytes() []byte {
	b := make([]byte, preambleLen)
	for i := 0; i < ethernet.PreambleLen; i++ {
		b[i] = ethernet.PreambleByte
	}
	b[ethernet.PreambleLen] = ethernet.SFDByte
	return b
}

// EncodeEthernet composes frames, each preceded by a preamble+SFD and
// separated by IPGBits of silence, into a single Manchester signal.
func EncodeEthernet(frames []ethernet.Frame) manchester.Signal {
	type segment struct {
		offset float64
		sig    manchester.Signal
		n      int
	}
	segments := make([]segment, 0, len(frames))
	offset := 0.0
	for _, f := range frames {
		data := append(preambleBytes(), f.Encode()...)
		bits := bitio.BytesToBits(data)
		segments = append(segments, segment{offset: offset, sig: manchester.Encode(bits), n: len(bits)})
		offset += float64(len(bits) + ethernet.IPGBits)
	}
	return func(t float64) float64 {
		for _, s := range segments {
			if t >= s.offset-0.5 && t < s.offset+float64(s.n)-0.5 {
				return s.sig(t - s.offset)
			}
		}
		return 0
	}
}

// DecodeEthernet recovers the frames encoded by EncodeEthernet, splitting
// on IPG-length silence runs and dropping (with a log) any segment whose
// preamble, FCS, or frame structure doesn't check out.
func DecodeEthernet(sig manchester.Signal) []ethernet.Frame {
	dec := manchester.NewDecoder(sig, ethernet.IPGBits+1)
	var frames []ethernet.Frame
	var bits []bool
	flush := func() {
		if len(bits) == 0 {
			return
		}
		if f, ok := decodeEthernetSegment(bits); ok {
			frames = append(frames, f)
		}
		bits = nil
	}
	for {
		sample, ok := dec.Next()
		if !ok {
			break
		}
		if sample.Silence {
			flush()
			continue
		}
		bits = append(bits, sample.Bit)
	}
	flush()
	return frames
}

func decodeEthernetSegment(bits []bool) (ethernet.Frame, bool) {
	data := bitio.BitsToBytes(bits)
	if len(data) < preambleLen {
		slog.Warn("signal: dropping short segment, no room for preamble")
		return ethernet.Frame{}, false
	}
	for i, b := range preambleBytes() {
		if data[i] != b {
			slog.Warn("signal: dropping segment with malformed preamble")
			return ethernet.Frame{}, false
		}
	}
	body := data[preambleLen:]
	off := ethernet.CRC32Search(body, minSearchOffset)
	if off < 0 {
		slog.Warn("signal: dropping segment, no valid FCS found")
		return ethernet.Frame{}, false
	}
	f, err := ethernet.Decode(body[:off+4])
	if err != nil {
		slog.Warn("signal: dropping undecodable ethernet frame", slog.Any("err", err))
		return ethernet.Frame{}, false
	}
	return f, true
}

// EncodeHDLC composes frames into a single continuous Manchester signal
// with no inter-frame silence, per spec.md §4.9's "silences stripped" HDLC
// variant.
func EncodeHDLC(frames []hdlc.Frame, mode hdlc.Mode) (manchester.Signal, error) {
	bits, err := hdlc.StreamEncodeBits(frames, mode)
	if err != nil {
		return nil, err
	}
	return manchester.Encode(bits), nil
}

// DecodeHDLC recovers the frames encoded by EncodeHDLC. The continuous bit
// stream terminates naturally in silence once the signal's finite domain
// ends.
func DecodeHDLC(sig manchester.Signal, mode hdlc.Mode, extended bool) []hdlc.Frame {
	bits := manchester.DecodeBits(manchester.NewDecoder(sig, manchester.DefaultDeadSignalSamples))
	return hdlc.StreamDecodeBits(bits, mode, extended)
}

// EncodePPP composes frames into a single continuous Manchester signal, PPP
// being always byte-escaped rather than bit-stuffed.
func EncodePPP(frames []ppp.Frame) manchester.Signal {
	return manchester.Encode(bitio.BytesToBits(ppp.StreamEncode(frames)))
}

// DecodePPP recovers the frames encoded by EncodePPP.
func DecodePPP(sig manchester.Signal) []ppp.Frame {
	bits := manchester.DecodeBits(manchester.NewDecoder(sig, manchester.DefaultDeadSignalSamples))
	return ppp.StreamDecode(bitio.BitsToBytes(bits))
}
