// Package lrucache provides a fixed-capacity, generically-keyed cache for
// bounding the size of per-interface state that would otherwise grow
// unboundedly over a long-running simulation, such as an ARP resolution
// table.
package lrucache

// entry is one key/value slot in a Cache's ring.
type entry[K, V comparable] struct {
	k K
	v V
}

// Cache holds at most maxSize key/value entries. Once full, Push overwrites
// the oldest entry rather than growing, so callers never need to evict
// manually. It is not safe for concurrent use.
type Cache[K, V comparable] struct {
	entries []entry[K, V]
	index   uint // slot most recently written by Push
}

// New returns an empty Cache bounded at maxSize entries.
func New[K, V comparable](maxSize int) Cache[K, V] {
	if maxSize <= 0 {
		panic("lrucache: max size must be > 0")
	}
	return Cache[K, V]{
		entries: make([]entry[K, V], 0, maxSize),
	}
}

// Len reports the number of entries currently held.
func (c *Cache[K, V]) Len() int { return len(c.entries) }

// Get looks up k, searching from the most recently written entry backwards
// so a duplicate key's newest value always wins over a stale one still
// occupying an older slot.
func (c *Cache[K, V]) Get(k K) (v V, ok bool) {
	i := c.index
	for range len(c.entries) {
		e := &c.entries[i]
		if e.k == k {
			return e.v, true
		}
		if i == 0 {
			i = uint(len(c.entries))
		}
		i--
	}
	return v, ok
}

// Push records k -> v. Below capacity it appends; once full it overwrites
// the slot following the last write, wrapping to the start.
func (c *Cache[K, V]) Push(k K, v V) {
	if len(c.entries) < cap(c.entries) {
		c.entries = append(c.entries, entry[K, V]{k, v})
		c.index = uint(len(c.entries) - 1)
	} else {
		c.index++
		if c.index >= uint(len(c.entries)) {
			c.index = 0
		}
		c.entries[c.index] = entry[K, V]{k, v}
	}
}
