// Package ipv4 implements IPv4 header and packet encode/decode, the
// Internet checksum, TTL management, and address/network parsing for
// longest-prefix-match lookups.
package ipv4

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Address is a 4-byte IPv4 address.
type Address [4]byte

// ErrMalformedAddress is returned by ParseAddress for input that is not
// four dot-separated decimal octets.
var ErrMalformedAddress = errors.New("ipv4: malformed address")

// ParseAddress parses the dotted-decimal form, e.g. "192.0.2.1".
func ParseAddress(s string) (Address, error) {
	var a Address
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return a, ErrMalformedAddress
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return a, ErrMalformedAddress
		}
		a[i] = byte(n)
	}
	return a, nil
}

func (a Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// bits returns the address's 32 bits, most significant first, for use as a
// trie symbol path.
func (a Address) bits() [32]bool {
	var out [32]bool
	for i := 0; i < 32; i++ {
		byteIdx := i / 8
		bitIdx := 7 - uint(i%8)
		out[i] = a[byteIdx]&(1<<bitIdx) != 0
	}
	return out
}

// Bits returns the address's 32 bits, most significant first.
func (a Address) Bits() []bool {
	b := a.bits()
	return b[:]
}

// Network is an IPv4 CIDR network: an address and a prefix length in
// [0, 32].
type Network struct {
	Address      Address
	PrefixLength uint8
}

// ErrMalformedNetwork is returned by ParseNetwork for input that is not
// "address/prefix-length".
var ErrMalformedNetwork = errors.New("ipv4: malformed network")

// ParseNetwork parses CIDR notation, e.g. "192.0.2.0/24".
func ParseNetwork(s string) (Network, error) {
	addrPart, lenPart, ok := strings.Cut(s, "/")
	if !ok {
		return Network{}, ErrMalformedNetwork
	}
	addr, err := ParseAddress(addrPart)
	if err != nil {
		return Network{}, ErrMalformedNetwork
	}
	n, err := strconv.Atoi(lenPart)
	if err != nil || n < 0 || n > 32 {
		return Network{}, ErrMalformedNetwork
	}
	return Network{Address: addr, PrefixLength: uint8(n)}, nil
}

func (n Network) String() string {
	return fmt.Sprintf("%s/%d", n.Address, n.PrefixLength)
}

// Contains reports whether addr falls within n.
func (n Network) Contains(addr Address) bool {
	nb, ab := n.Address.bits(), addr.bits()
	for i := 0; i < int(n.PrefixLength); i++ {
		if nb[i] != ab[i] {
			return false
		}
	}
	return true
}

// Bits returns the top PrefixLength bits of the network's address, the
// symbol path used to key a longest-prefix-match trie.
func (n Network) Bits() []bool {
	b := n.Address.bits()
	return b[:n.PrefixLength]
}
