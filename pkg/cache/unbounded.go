// This module implements the simplest cache strategy: a mutex-guarded map with no eviction and no
// expiration. It backs the memoizer's default mode, where a deterministic function's results are
// valid forever and the key space is known to be small. Like the bounded LRU cache, GetOrCompute
// holds the mutex across the compute closure, so a given key is computed at most once per miss.

package cache

import (
	"maps"
	"slices"
	"sync"
)

// Unbounded is a thread-safe cache that grows without limit.
type Unbounded[K comparable, V any] struct { // Implements Cache.
	items map[K]V
	mux   sync.Mutex
}

var _ Cache[int, int] = (*Unbounded[int, int])(nil)

// NewUnbounded constructs an empty Unbounded cache.
func NewUnbounded[K comparable, V any]() *Unbounded[K, V] {
	return &Unbounded[K, V]{items: make(map[K]V)}
}

// Len returns the number of entries.
func (c *Unbounded[K, V]) Len() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return len(c.items)
}

// Contains reports whether the key is cached.
func (c *Unbounded[K, V]) Contains(key K) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	_, found := c.items[key]
	return found
}

// Get returns the value stored for the key, if any.
func (c *Unbounded[K, V]) Get(key K) (V, bool /*found*/) {
	c.mux.Lock()
	defer c.mux.Unlock()
	value, found := c.items[key]
	recordLookup(KindUnbounded, found)
	return value, found
}

// Put inserts or replaces the value for the key.
func (c *Unbounded[K, V]) Put(key K, value V) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.items[key] = value
}

// GetOrCompute returns the cached value for the key, or runs compute, caches its result and
// returns it. The mutex is held across compute, giving the same at-most-one-computation guarantee
// (and the same head-of-line blocking) as the bounded LRU cache.
func (c *Unbounded[K, V]) GetOrCompute(key K, compute func() V) V {
	c.mux.Lock()
	defer c.mux.Unlock()
	value, found := c.items[key]
	recordLookup(KindUnbounded, found)
	if found {
		return value
	}
	value = compute()
	c.items[key] = value
	return value
}

// Remove deletes the key and returns the value it held, if any.
func (c *Unbounded[K, V]) Remove(key K) (V, bool /*found*/) {
	c.mux.Lock()
	defer c.mux.Unlock()
	value, found := c.items[key]
	if found {
		delete(c.items, key)
	}
	return value, found
}

// Keys returns the cached keys in no particular order.
func (c *Unbounded[K, V]) Keys() []K {
	c.mux.Lock()
	defer c.mux.Unlock()
	return slices.Collect(maps.Keys(c.items))
}

// Clear removes all entries.
func (c *Unbounded[K, V]) Clear() {
	c.mux.Lock()
	defer c.mux.Unlock()
	clear(c.items)
}
