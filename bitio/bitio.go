// Package bitio provides the bit/byte-level primitives shared by the frame
// and line codecs: CRC-32 and Internet checksum, sublist search/replace with
// escape awareness, delimiter interleaving and separation, and bit stuffing.
package bitio

import (
	"encoding/binary"
	"hash/crc32"
)

// crcTable is the IEEE CRC-32 table used for Ethernet/HDLC FCS calculation.
var crcTable = crc32.MakeTable(crc32.IEEE)

// CRC32 computes the IEEE CRC-32 of data and returns it little-endian, which
// is the byte order Ethernet and HDLC place the FCS on the wire.
func CRC32(data []byte) [4]byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], crc32.Checksum(data, crcTable))
	return out
}

// InternetChecksum computes the RFC 1071 16-bit one's-complement checksum
// over data, treated as a sequence of big-endian 16-bit words (an odd final
// byte is padded with a zero byte). The result is returned big-endian, the
// same order the words were summed in, so installing it verbatim at its
// on-wire position and re-summing yields 0xFFFF.
func InternetChecksum(data []byte) [2]byte {
	var sum uint32
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if n%2 == 1 {
		sum += uint32(data[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	chk := ^uint16(sum)
	var out [2]byte
	out[0] = byte(chk >> 8)
	out[1] = byte(chk)
	return out
}

// FindMatch returns the least index i >= start such that data[i:i+len(pattern)]
// equals pattern, and (when escape is non-empty) the len(escape) bytes
// immediately preceding that position are not equal to escape. It returns -1
// if no such index exists.
func FindMatch(data, pattern []byte, start int, escape []byte) int {
	plen := len(pattern)
	if plen == 0 || start+plen > len(data) {
		return -1
	}
	elen := len(escape)
	for i := start; i+plen <= len(data); i++ {
		if !bytesEqual(data[i:i+plen], pattern) {
			continue
		}
		if elen == 0 {
			return i
		}
		if i-elen < 0 || !bytesEqual(data[i-elen:i], escape) {
			return i
		}
	}
	return -1
}

func bytesEqual(a, b []byte) bool {
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

// ReplaceAllMatches performs a non-overlapping, left-to-right replacement of
// every occurrence of pattern in data with replacement, skipping occurrences
// preceded by escape (see FindMatch). Scanning resumes immediately after the
// inserted replacement, so idempotence is not implied: re-running the
// replacement on its own output is not guaranteed to be a no-op, only that
// stuffing followed by destuffing round-trips.
func ReplaceAllMatches(data, pattern, replacement, escape []byte) []byte {
	out := append([]byte(nil), data...)
	i := 0
	for {
		idx := FindMatch(out, pattern, i, escape)
		if idx < 0 {
			break
		}
		tail := append([]byte(nil), out[idx+len(pattern):]...)
		out = append(out[:idx], append(append([]byte(nil), replacement...), tail...)...)
		i = idx + len(replacement)
	}
	return out
}

// Interleave returns [sep, elts[0], sep, elts[1], sep, ..., elts[n-1], sep]:
// every element of elts flanked by sep, including a leading and trailing
// separator.
func Interleave(elts [][]byte, sep []byte) []byte {
	var out []byte
	out = append(out, sep...)
	for _, e := range elts {
		out = append(out, e...)
		out = append(out, sep...)
	}
	return out
}

// Separate returns every maximal non-overlapping startFlag...endFlag infix of
// data. If endFlag is nil it is treated as equal to startFlag. The endFlag of
// one returned block may coincide with the startFlag of the next.
func Separate(data, startFlag, endFlag []byte) [][]byte {
	if len(endFlag) == 0 {
		endFlag = startFlag
	}
	var blocks [][]byte
	remaining := data
	consumed := 0
	for {
		startIdx := FindMatch(remaining, startFlag, 0, nil)
		if startIdx < 0 {
			break
		}
		endIdx := FindMatch(remaining, endFlag, startIdx+len(startFlag), nil)
		if endIdx < 0 {
			break
		}
		blocks = append(blocks, append([]byte(nil), remaining[startIdx+len(startFlag):endIdx]...))
		remaining = remaining[endIdx:]
		consumed += endIdx
	}
	return blocks
}

// StuffBits inserts bit immediately after every non-overlapping occurrence of
// pattern in data.
func StuffBits(data []bool, pattern []bool, bit bool) []bool {
	return replaceAllBitMatches(data, pattern, append(append([]bool(nil), pattern...), bit))
}

// DestuffBits removes the stuffing bit inserted by StuffBits: it replaces
// every occurrence of pattern+bit with pattern. The caller is expected to
// validate that len(result) is a multiple of 8 when the destuffed stream is
// meant to be byte-aligned.
func DestuffBits(data []bool, pattern []bool, bit bool) []bool {
	stuffedPattern := append(append([]bool(nil), pattern...), bit)
	return replaceAllBitMatches(data, stuffedPattern, pattern)
}

func replaceAllBitMatches(data, pattern, replacement []bool) []bool {
	out := append([]bool(nil), data...)
	i := 0
	for {
		idx := findBitMatch(out, pattern, i)
		if idx < 0 {
			break
		}
		tail := append([]bool(nil), out[idx+len(pattern):]...)
		out = append(out[:idx], append(append([]bool(nil), replacement...), tail...)...)
		i = idx + len(replacement)
	}
	return out
}

func findBitMatch(data, pattern []bool, start int) int {
	plen := len(pattern)
	if plen == 0 || start+plen > len(data) {
		return -1
	}
	for i := start; i+plen <= len(data); i++ {
		match := true
		for j := 0; j < plen; j++ {
			if data[i+j] != pattern[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// BitsToBytes packs a bit sequence into bytes, most significant bit first
// within each byte. If len(bits) is not a multiple of 8 the final byte is
// padded on the right with zero bits.
func BitsToBytes(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return out
}

// BytesToBits unpacks a byte slice into a bit sequence, most significant bit
// first within each byte.
func BytesToBits(data []byte) []bool {
	out := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			out = append(out, b&(1<<uint(i)) != 0)
		}
	}
	return out
}
