package arp

import (
	"log/slog"

	"github.com/mvarga/netsim/ethernet"
	"github.com/mvarga/netsim/internal/lrucache"
)

// defaultCacheSize bounds how many resolved addresses a single interface
// remembers before the oldest entry is overwritten. A simulated host never
// needs an unbounded table.
const defaultCacheSize = 256

// Cache maps resolved IPv4 addresses to their hardware address, as learned
// through ARP exchanges. Its lifetime matches the owning interface's.
type Cache struct {
	lru lrucache.Cache[ProtocolAddress, ethernet.MAC]
}

// NewCache returns an empty, bounded address resolution cache.
func NewCache() *Cache {
	return &Cache{lru: lrucache.New[ProtocolAddress, ethernet.MAC](defaultCacheSize)}
}

// Store records ip -> mac, overwriting any prior mapping.
func (c *Cache) Store(ip ProtocolAddress, mac ethernet.MAC) {
	c.lru.Push(ip, mac)
}

// Lookup returns the cached hardware address for ip, if any.
func (c *Cache) Lookup(ip ProtocolAddress) (mac ethernet.MAC, ok bool) {
	return c.lru.Get(ip)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int { return c.lru.Len() }

// Handler is the ARP request/reply logic embedded in an Ethernet interface
// with an IPv4 address, per spec.md §4.4.
type Handler struct {
	MAC   ethernet.MAC
	IP    ProtocolAddress
	Cache *Cache
}

// NewHandler returns a Handler with a freshly allocated cache.
func NewHandler(mac ethernet.MAC, ip ProtocolAddress) *Handler {
	return &Handler{MAC: mac, IP: ip, Cache: NewCache()}
}

// Receive processes a decoded ARP packet arriving on the owning interface.
// If the packet targets this handler's IP it learns the sender's address
// and, for a REQUEST, returns the REPLY to send back over the same
// interface. A packet addressed to a different target is dropped with a
// logged diagnostic and never reaches the owning device, matching
// spec.md §4.4's "do not propagate" rule for every ARP packet regardless of
// whether it was ours.
func (h *Handler) Receive(pkt Packet) (reply *Packet) {
	if pkt.TargetProtocol != h.IP {
		slog.Debug("arp: packet not addressed to us, dropping", slog.Any("target", pkt.TargetProtocol))
		return nil
	}
	h.Cache.Store(pkt.SenderProtocol, pkt.SenderHardware)
	if pkt.Operation != OpRequest {
		return nil
	}
	r := pkt.Reply(h.MAC)
	return &r
}

// RequestFor builds a REQUEST packet resolving target, to be sent over the
// owning interface with the broadcast MAC as its Ethernet destination.
func (h *Handler) RequestFor(target ProtocolAddress) Packet {
	return NewRequest(h.MAC, h.IP, target)
}
