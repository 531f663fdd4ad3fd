// Package ipv6 implements IPv6 header encode/decode and hop-limit
// management, mirroring the ipv4 package's shape for the fields IPv6
// shares with it.
package ipv6

import (
	"errors"
	"fmt"
	"net/netip"
)

// Address is a 16-byte IPv6 address.
type Address [16]byte

// ErrMalformedAddress is returned by ParseAddress for input that is not a
// valid IPv6 textual address.
var ErrMalformedAddress = errors.New("ipv6: malformed address")

// ParseAddress parses the standard textual form, e.g. "2001:db8::1".
func ParseAddress(s string) (Address, error) {
	var a Address
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() {
		return a, ErrMalformedAddress
	}
	a = addr.As16()
	return a, nil
}

func (a Address) String() string {
	return netip.AddrFrom16(a).String()
}

// Bits returns the address's 128 bits, most significant first, for use as
// a trie symbol path.
func (a Address) Bits() []bool {
	out := make([]bool, 128)
	for i := 0; i < 128; i++ {
		byteIdx := i / 8
		bitIdx := 7 - uint(i%8)
		out[i] = a[byteIdx]&(1<<bitIdx) != 0
	}
	return out
}

// Network is an IPv6 CIDR network: an address and a prefix length in
// [0, 128].
type Network struct {
	Address      Address
	PrefixLength uint8
}

// ErrMalformedNetwork is returned by ParseNetwork for input that is not
// "address/prefix-length".
var ErrMalformedNetwork = errors.New("ipv6: malformed network")

// ParseNetwork parses CIDR notation, e.g. "2001:db8::/32".
func ParseNetwork(s string) (Network, error) {
	prefix, err := netip.ParsePrefix(s)
	if err != nil || !prefix.Addr().Is6() {
		return Network{}, ErrMalformedNetwork
	}
	return Network{Address: prefix.Addr().As16(), PrefixLength: uint8(prefix.Bits())}, nil
}

func (n Network) String() string {
	return fmt.Sprintf("%s/%d", n.Address, n.PrefixLength)
}

// Contains reports whether addr falls within n.
func (n Network) Contains(addr Address) bool {
	nb, ab := n.Bits(), addr.Bits()
	for i := 0; i < int(n.PrefixLength); i++ {
		if nb[i] != ab[i] {
			return false
		}
	}
	return true
}

// Bits returns the top PrefixLength bits of the network's address.
func (n Network) Bits() []bool {
	return n.Address.Bits()[:n.PrefixLength]
}
