package bitio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32(t *testing.T) {
	// Known-good vector: the standard CRC-32 check input.
	data := []byte("123456789")
	got := CRC32(data)
	// CRC-32/ISO-HDLC of "123456789" is 0xCBF43926 (big-endian form);
	// here it is returned little-endian.
	want := [4]byte{0x26, 0x39, 0xF4, 0xCB}
	assert.Equal(t, want, got)
}

func TestInternetChecksumSelfComplements(t *testing.T) {
	data := []byte{0x45, 0x00, 0x00, 0x3c, 0x1c, 0x46, 0x40, 0x00, 0x40, 0x06,
		0x00, 0x00, 0xac, 0x10, 0x0a, 0x63, 0xac, 0x10, 0x0a, 0x0c}
	chk := InternetChecksum(data)
	data[10], data[11] = chk[0], chk[1]
	verify := InternetChecksum(data)
	assert.Equal(t, [2]byte{0, 0}, verify)
}

func TestFindMatch(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 3, 4}
	idx := FindMatch(data, []byte{3, 4}, 0, nil)
	assert.Equal(t, 2, idx)
	idx = FindMatch(data, []byte{3, 4}, 3, nil)
	assert.Equal(t, 5, idx)
	idx = FindMatch(data, []byte{9}, 0, nil)
	assert.Equal(t, -1, idx)
}

func TestFindMatchWithEscape(t *testing.T) {
	// escape byte 0x7D immediately preceding the pattern hides the match.
	data := []byte{0x7E, 0x01, 0x7D, 0x7E, 0x02}
	idx := FindMatch(data, []byte{0x7E}, 1, []byte{0x7D})
	assert.Equal(t, -1, idx, "escaped flag at index 3 must not match")
}

func TestReplaceAllMatches(t *testing.T) {
	data := []byte{0x7E, 1, 2, 0x7E, 3}
	out := ReplaceAllMatches(data, []byte{0x7E}, []byte{0x7D, 0x5E}, nil)
	assert.Equal(t, []byte{0x7D, 0x5E, 1, 2, 0x7D, 0x5E, 3}, out)
}

func TestInterleaveSeparate(t *testing.T) {
	elts := [][]byte{{1, 2}, {3, 4}, {5}}
	sep := []byte{0x7E}
	out := Interleave(elts, sep)
	assert.Equal(t, []byte{0x7E, 1, 2, 0x7E, 3, 4, 0x7E, 5, 0x7E}, out)

	blocks := Separate(out, sep, nil)
	assert.Equal(t, elts, blocks)
}

func TestSeparateSharedBoundary(t *testing.T) {
	// end flag of one block coincides with start flag of the next.
	data := []byte{0x7E, 1, 2, 0x7E, 3, 4, 0x7E}
	blocks := Separate(data, []byte{0x7E}, nil)
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, blocks)
}

func boolSlice(s string) []bool {
	out := make([]bool, len(s))
	for i, c := range s {
		out[i] = c == '1'
	}
	return out
}

func TestStuffDestuffBitsRoundTrip(t *testing.T) {
	cases := []string{
		"0111110",
		"011111011111000",
		"00000000",
		"1111111111111",
	}
	pattern := boolSlice("11111")
	for _, c := range cases {
		bits := boolSlice(c)
		stuffed := StuffBits(bits, pattern, false)
		destuffed := DestuffBits(stuffed, pattern, false)
		assert.Equal(t, bits, destuffed, "round trip failed for %s", c)
	}
}

func TestBitsBytesRoundTrip(t *testing.T) {
	data := []byte{0xAB, 0xCD, 0x01}
	bits := BytesToBits(data)
	assert.Equal(t, 24, len(bits))
	back := BitsToBytes(bits)
	assert.Equal(t, data, back)
}
