package trie

import "github.com/mvarga/netsim/ipv6"

// RouteTable6 is a longest-prefix-match routing table keyed by IPv6
// networks, the IPv6 analogue of RouteTable4.
type RouteTable6[V any] struct {
	t *Trie[V]
}

// NewRouteTable6 returns an empty IPv6 routing table.
func NewRouteTable6[V any]() *RouteTable6[V] {
	return &RouteTable6[V]{t: New[V]()}
}

// Add installs a route for network, overwriting any existing route for the
// same exact network.
func (r *RouteTable6[V]) Add(network ipv6.Network, route V) {
	r.t.Set(network.Bits(), route)
}

// Remove deletes the route for the exact network, if any.
func (r *RouteTable6[V]) Remove(network ipv6.Network) {
	r.t.Delete(network.Bits())
}

// Lookup returns the route for the longest network prefix matching addr.
func (r *RouteTable6[V]) Lookup(addr ipv6.Address) (route V, ok bool) {
	return r.t.LongestPrefixMatch(addr.Bits())
}
