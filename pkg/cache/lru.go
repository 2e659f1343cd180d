// This module implements a bounded cache with least-recently-used eviction. A map provides O(1)
// key lookup and a doubly linked list keeps recency order, with the head as the most recently used
// entry and the tail as the next eviction victim. Reads and writes both count as a use.
//
// Every public operation runs under one mutex, including the compute closure passed to
// GetOrCompute. That makes GetOrCompute linearizable: across all goroutines sharing the cache, the
// closure for a given key runs at most once per miss. The flip side is head-of-line blocking; a
// slow computation stalls every other operation on the same instance. Callers that cannot afford
// that should shard the cache (see Sharded) so only one shard stalls.

package cache

import (
	"maps"
	"slices"
	"sync"

	"github.com/calque/recall/pkg/utils"
)

// lruEntry is the payload kept in the recency list. The key is duplicated here because eviction
// starts from the list tail and must delete the map index entry too.
type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// BoundedLRU is a thread-safe cache holding at most maxSize entries. Inserting a new key into a
// full cache evicts exactly the least recently used one.
type BoundedLRU[K comparable, V any] struct { // Implements Cache.
	maxSize int
	index   map[K]*linkedListNode[lruEntry[K, V]] // Key lookup into the recency list.
	recency *linkedList[lruEntry[K, V]]           // Front = most recently used.
	// evictionCallback, if set, runs for every entry removed to make room. It runs while the cache
	// mutex is held, so it must not call back into the cache.
	evictionCallback func(K, V)
	// doorkeeper, if set, filters which brand-new keys may displace a resident entry once the
	// cache is full. See admission.go.
	doorkeeper *Doorkeeper[K]
	mux        sync.Mutex // Serializes every public operation.
}

var _ Cache[int, int] = (*BoundedLRU[int, int])(nil)

// LRUOption configures a BoundedLRU at construction time.
type LRUOption[K comparable, V any] func(*BoundedLRU[K, V])

// WithEvictionCallback runs the given function for every entry evicted to satisfy the capacity
// bound. The callback runs under the cache mutex and must not call any cache method.
func WithEvictionCallback[K comparable, V any](callback func(K, V)) LRUOption[K, V] {
	return func(c *BoundedLRU[K, V]) { c.evictionCallback = callback }
}

// WithDoorkeeper installs an admission doorkeeper: once the cache is full, a key never seen before
// is recorded but not cached, so one-hit wonders don't displace resident entries. The default is
// to admit every key.
func WithDoorkeeper[K comparable, V any](d *Doorkeeper[K]) LRUOption[K, V] {
	return func(c *BoundedLRU[K, V]) { c.doorkeeper = d }
}

// NewBoundedLRU constructs a BoundedLRU with the given capacity.
func NewBoundedLRU[K comparable, V any](maxSize int, opts ...LRUOption[K, V]) *BoundedLRU[K, V] {
	if maxSize <= 0 {
		utils.RaiseInvariant("lru", "non_positive_capacity",
			"Invalid capacity has been given to bounded LRU cache.", "maxSize", maxSize)
		maxSize = 1
	}
	c := &BoundedLRU[K, V]{
		maxSize: maxSize,
		index:   make(map[K]*linkedListNode[lruEntry[K, V]], maxSize),
		recency: new(linkedList[lruEntry[K, V]]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxSize returns the capacity bound of the cache.
func (c *BoundedLRU[K, V]) MaxSize() int { return c.maxSize }

// Len returns the number of entries currently held. It never exceeds MaxSize.
func (c *BoundedLRU[K, V]) Len() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return len(c.index)
}

// Contains reports whether the key is cached. Unlike Get, it does not refresh the key's recency.
func (c *BoundedLRU[K, V]) Contains(key K) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	_, found := c.index[key]
	return found
}

// Get returns the cached value for the key, marking it as the most recently used.
func (c *BoundedLRU[K, V]) Get(key K) (V, bool /*found*/) {
	c.mux.Lock()
	defer c.mux.Unlock()

	node, found := c.index[key]
	recordLookup(KindLRU, found)
	if !found {
		return *new(V), false
	}
	c.recency.MoveToFront(node)
	return node.Value.value, true
}

// Put inserts or replaces the value for the key and marks it as the most recently used. If the key
// is new and the cache is full, the least recently used entry is evicted first.
func (c *BoundedLRU[K, V]) Put(key K, value V) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.putLocked(key, value)
}

// putLocked is the insertion path shared by Put and GetOrCompute. Callers must hold the mutex.
func (c *BoundedLRU[K, V]) putLocked(key K, value V) {
	if node, found := c.index[key]; found { // Replace in place; a write counts as a use.
		node.Value.value = value
		c.recency.MoveToFront(node)
		return
	}
	if len(c.index) >= c.maxSize {
		if c.doorkeeper != nil && !c.doorkeeper.Admit(key) {
			// First sighting of the key while full: remember it, keep the resident entries.
			cacheRejectedKeys.WithLabelValues(KindLRU).Inc()
			return
		}
		c.evictOldestLocked()
	}
	c.index[key] = c.recency.PushFront(lruEntry[K, V]{key: key, value: value})
}

// evictOldestLocked removes the entry at the recency tail. Callers must hold the mutex and have
// checked that the cache is non-empty.
func (c *BoundedLRU[K, V]) evictOldestLocked() {
	victim := c.recency.Back()
	if victim == nil {
		return
	}
	c.recency.Remove(victim)
	delete(c.index, victim.Value.key)
	cacheEvictions.WithLabelValues(KindLRU).Inc()
	if c.evictionCallback != nil {
		c.evictionCallback(victim.Value.key, victim.Value.value)
	}
}

// GetOrCompute returns the cached value for the key, or runs compute, caches its result and
// returns it. The mutex is held for the entire call, compute included, so concurrent callers
// missing on the same key trigger exactly one computation; the cost is that a slow compute blocks
// every other operation on this instance. A panic inside compute propagates and caches nothing.
func (c *BoundedLRU[K, V]) GetOrCompute(key K, compute func() V) V {
	c.mux.Lock()
	defer c.mux.Unlock()

	node, found := c.index[key]
	recordLookup(KindLRU, found)
	if found {
		c.recency.MoveToFront(node)
		return node.Value.value
	}
	value := compute()
	c.putLocked(key, value)
	return value
}

// Remove deletes the key and returns the value it held, if any.
func (c *BoundedLRU[K, V]) Remove(key K) (V, bool /*found*/) {
	c.mux.Lock()
	defer c.mux.Unlock()

	node, found := c.index[key]
	if !found {
		return *new(V), false
	}
	c.recency.Remove(node)
	delete(c.index, key)
	return node.Value.value, true
}

// Keys returns the cached keys in no particular order.
func (c *BoundedLRU[K, V]) Keys() []K {
	c.mux.Lock()
	defer c.mux.Unlock()
	return slices.Collect(maps.Keys(c.index))
}

// Clear removes all entries. The eviction callback is not invoked; Clear is an explicit caller
// decision, not capacity pressure.
func (c *BoundedLRU[K, V]) Clear() {
	c.mux.Lock()
	defer c.mux.Unlock()
	clear(c.index)
	c.recency = new(linkedList[lruEntry[K, V]])
}
