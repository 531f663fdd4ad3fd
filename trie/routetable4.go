package trie

import "github.com/mvarga/netsim/ipv4"

// RouteTable4 is a longest-prefix-match routing table keyed by IPv4
// networks, mapping each to an arbitrary route value (e.g. a next-hop
// interface).
type RouteTable4[V any] struct {
	t *Trie[V]
}

// NewRouteTable4 returns an empty IPv4 routing table.
func NewRouteTable4[V any]() *RouteTable4[V] {
	return &RouteTable4[V]{t: New[V]()}
}

// Add installs a route for network, overwriting any existing route for the
// same exact network.
func (r *RouteTable4[V]) Add(network ipv4.Network, route V) {
	r.t.Set(network.Bits(), route)
}

// Remove deletes the route for the exact network, if any.
func (r *RouteTable4[V]) Remove(network ipv4.Network) {
	r.t.Delete(network.Bits())
}

// Lookup returns the route for the longest network prefix matching addr,
// per spec.md §4.7. ok is false if no installed network contains addr.
func (r *RouteTable4[V]) Lookup(addr ipv4.Address) (route V, ok bool) {
	return r.t.LongestPrefixMatch(addr.Bits())
}
