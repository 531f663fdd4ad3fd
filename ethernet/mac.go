// Package ethernet implements Ethernet II and IEEE 802.3 frame encoding and
// decoding: MAC addressing, EtherType dispatch, payload padding, and the
// frame check sequence.
package ethernet

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

// MAC is a six-byte hardware address. Its zero value is the all-zero
// address, distinct from Broadcast.
type MAC [6]byte

// Broadcast is the all-ones MAC address used for ARP requests with an
// unknown target and for link-layer flooding.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// IsBroadcast reports whether m is the broadcast address.
func (m MAC) IsBroadcast() bool { return m == Broadcast }

// String returns the canonical lowercase colon-separated hex form, e.g.
// "a1:b2:c3:d4:e5:f6".
func (m MAC) String() string {
	var b strings.Builder
	b.Grow(17)
	for i := range m {
		if i != 0 {
			b.WriteByte(':')
		}
		b.WriteString(hex.EncodeToString(m[i : i+1]))
	}
	return b.String()
}

// ErrMalformedMAC is returned by ParseMAC when the text is not six hex
// octets joined by ':' or '-'.
var ErrMalformedMAC = errors.New("ethernet: malformed MAC address")

// ParseMAC parses six colon- or hyphen-separated hex octets in either case.
func ParseMAC(s string) (MAC, error) {
	var m MAC
	sep := ":"
	if strings.Contains(s, "-") {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 6 {
		return m, ErrMalformedMAC
	}
	for i, p := range parts {
		if len(p) != 2 {
			return m, ErrMalformedMAC
		}
		b, err := hex.DecodeString(p)
		if err != nil {
			return m, ErrMalformedMAC
		}
		m[i] = b[0]
	}
	return m, nil
}

// RandomMAC generates a pseudo-random MAC address, used when a device's
// configuration leaves a hardware address unspecified. The locally
// administered bit is set and the multicast bit cleared so it never
// collides with Broadcast or a vendor-assigned address.
func RandomMAC(rnd io.Reader) (MAC, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	var m MAC
	if _, err := io.ReadFull(rnd, m[:]); err != nil {
		return m, err
	}
	m[0] = (m[0] &^ 0x01) | 0x02
	return m, nil
}
