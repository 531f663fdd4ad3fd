package escape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, escapeByte byte, m map[byte]byte) *Schema {
	t.Helper()
	s, err := NewSchema(escapeByte, m)
	require.NoError(t, err)
	return s
}

func TestNewSchemaRejectsDuplicateReplacements(t *testing.T) {
	_, err := NewSchema(0x00, map[byte]byte{0x00: 0xF0, 0x01: 0xF0})
	assert.ErrorIs(t, err, ErrDuplicateReplacement)
}

func TestEscapeDoesNotMutateInput(t *testing.T) {
	s := mustSchema(t, 0x00, map[byte]byte{0x00: 0xF0, 0x01: 0xF1})
	data := []byte{0x00}
	escaped := s.Escape(data)
	assert.Equal(t, []byte{0x00, 0xF0}, escaped)
	assert.Equal(t, []byte{0x00}, data)
}

func TestEscapeMixedBytes(t *testing.T) {
	s := mustSchema(t, 0x00, map[byte]byte{0x00: 0xF0, 0x01: 0xF1})
	data := []byte{0x00, 0xAA, 0x01, 0xF0, 0xF1, 0x00, 0x01}
	want := []byte{0x00, 0xF0, 0xAA, 0x00, 0xF1, 0xF0, 0xF1, 0x00, 0xF0, 0x00, 0xF1}
	assert.Equal(t, want, s.Escape(data))
}

func TestHDLCEscapeRoundTrip(t *testing.T) {
	s := mustSchema(t, 0x7D, map[byte]byte{0x7D: 0x5D, 0x7E: 0x5E})
	information := append([]byte("Some information that"), 0x7E)
	information = append(information, []byte(" we send in this frame!")...)
	escaped := s.Escape(information)
	back := s.Unescape(escaped)
	assert.Equal(t, information, back)
}

func TestUnescapeTolerantOfMistakes(t *testing.T) {
	s, err := FromChar('a', 'Z')
	require.NoError(t, err)
	escapedData := []byte("These chZarZacters Z Zand a Zare not properly escZaped!")
	want := []byte("These characters  and a are not properly escaped!")
	assert.Equal(t, want, s.Unescape(escapedData))
}

func TestFromCharReadableASCII(t *testing.T) {
	s, err := FromChar('a', 'Z')
	require.NoError(t, err)
	data := []byte("a sentence with a great many of aaaaaa and a Z or two Z")
	want := []byte("Za sentence with Za greZat mZany of ZaZaZaZaZaZa Zand Za ZZ or two ZZ")
	escaped := s.Escape(data)
	assert.Equal(t, want, escaped)
	assert.Equal(t, data, s.Unescape(escaped))
}
