// This module implements cache sharding, which distributes keys uniformly across sub-caches. The
// strategies in this package serialize work per instance (the bounded LRU cache even holds its
// lock across the compute closure), so sharding spreads that contention: goroutines working on
// different keys usually land on different shards and don't block each other. Note that with LRU
// shards the capacity bound and the at-most-one-computation guarantee both become per-shard.

package cache

import "github.com/calque/recall/pkg/utils"

// Sharded distributes keys across multiple underlying caches by key hash. It satisfies the same
// contract as its shards, whatever strategy they implement.
type Sharded[K comparable, V any] struct { // Implements Cache.
	shards []Cache[K, V]
	hash   func(key K) uint64 // Picks the shard index.
}

var _ Cache[int, int] = (*Sharded[int, int])(nil)

// NewSharded constructs a Sharded cache with shardCount shards, each built by the generator
// function. The generator typically closes over per-shard capacity, e.g. maxSize/shardCount.
func NewSharded[K comparable, V any](generator func() Cache[K, V], shardCount int) *Sharded[K, V] {
	if shardCount <= 0 {
		utils.RaiseInvariant("sharded", "non_positive_shard_count",
			"Invalid shard count has been given to sharded cache.", "shardCount", shardCount)
		shardCount = 1
	}
	sharded := &Sharded[K, V]{shards: make([]Cache[K, V], shardCount), hash: keyHasher[K]()}
	for i := range shardCount {
		sharded.shards[i] = generator()
	}
	return sharded
}

// getShard maps the key to its owning shard.
func (c *Sharded[K, V]) getShard(key K) Cache[K, V] {
	return c.shards[c.hash(key)%uint64(len(c.shards))]
}

// Len sums the entry counts of all shards.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, shard := range c.shards {
		total += shard.Len()
	}
	return total
}

// Contains asks the owning shard whether the key is cached.
func (c *Sharded[K, V]) Contains(key K) bool {
	return c.getShard(key).Contains(key)
}

// Get retrieves the value from the owning shard.
func (c *Sharded[K, V]) Get(key K) (V, bool /*found*/) {
	return c.getShard(key).Get(key)
}

// Put stores the pair in the owning shard.
func (c *Sharded[K, V]) Put(key K, value V) {
	c.getShard(key).Put(key, value)
}

// GetOrCompute delegates to the owning shard, so whatever compute-atomicity the shard strategy
// offers applies per shard: a slow compute stalls only the keys hashing to the same shard.
func (c *Sharded[K, V]) GetOrCompute(key K, compute func() V) V {
	return c.getShard(key).GetOrCompute(key, compute)
}

// Remove deletes the key from the owning shard.
func (c *Sharded[K, V]) Remove(key K) (V, bool /*found*/) {
	return c.getShard(key).Remove(key)
}

// Keys aggregates the keys of all shards. This walks every shard and can be expensive.
func (c *Sharded[K, V]) Keys() []K {
	keys := make([]K, 0)
	for _, shard := range c.shards {
		keys = append(keys, shard.Keys()...)
	}
	return keys
}

// Clear empties every shard.
func (c *Sharded[K, V]) Clear() {
	for _, shard := range c.shards {
		shard.Clear()
	}
}
