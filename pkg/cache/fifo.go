// Package cache provides a bounded in-process key→value store with
// FIFO eviction: when full, the oldest-inserted entry is dropped (not
// LRU — reads never reorder). Insertion order is tracked explicitly in
// a key queue rather than relying on map iteration order.
package cache

import "sync"

// FIFO is a mutex-guarded bounded cache. Concurrent callers may race
// on "check, compute, insert"; duplicate computation is benign and the
// last writer wins.
type FIFO[K comparable, V any] struct {
	mu      sync.Mutex
	max     int
	entries map[K]V
	order   []K // insertion order, oldest first
}

// NewFIFO returns a cache holding at most max entries. A non-positive
// max is treated as 1.
func NewFIFO[K comparable, V any](max int) *FIFO[K, V] {
	if max <= 0 {
		max = 1
	}
	return &FIFO[K, V]{
		max:     max,
		entries: make(map[K]V, max),
	}
}

// Get returns the cached value for key, if present.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put inserts or replaces the value for key, evicting the oldest entry
// when the cache is full. Replacing an existing key keeps its original
// queue position.
func (c *FIFO[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = value
		return
	}
	if len(c.entries) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = value
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
