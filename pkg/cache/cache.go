// Recall keeps the results of expensive computations in memory so they don't have to be redone.
// This module defines the contract every cache strategy satisfies, making bounded, expiring,
// unbounded and sharded caches interchangeable behind the same API.

package cache

import "github.com/calque/recall/pkg/utils"

// Cache is the capability contract for a generic key-value cache. A missing key is reported through
// the boolean return of Get / Remove, never through an error. Thread-safety and the atomicity of
// GetOrCompute are per-implementation guarantees; see the concrete types for what each one promises.
type Cache[K comparable, V any] interface {
	// Len returns the current number of entries. Whether entries that are logically dead (e.g.
	// expired but not yet purged) are counted is implementation-defined and documented per type.
	Len() int
	// Contains reports whether the key is currently visible in the cache.
	Contains(key K) bool
	// Get returns the value stored for the key and a boolean indicating whether it was found.
	Get(key K) (V, bool)
	// Put inserts the key-value pair, replacing any value already stored for the key.
	Put(key K, value V)
	// GetOrCompute returns the stored value for the key if present; otherwise it runs compute,
	// stores the result under the key, and returns it.
	GetOrCompute(key K, compute func() V) V
	// Remove deletes the key and returns the value that was stored for it, if any.
	Remove(key K) (V, bool)
	Keys() []K // Returns a slice of all keys currently visible in the cache.
	Clear()    // Removes all entries.
}

// ContainsPair reports whether the key is present and currently maps to exactly the given value.
func ContainsPair[K, V comparable](c Cache[K, V], key K, value V) bool {
	return ContainsPairFunc(c, key, value, func(x, y V) bool { return x == y })
}

// ContainsPairFunc is ContainsPair for value types that are not comparable; equality is delegated
// to the given function.
func ContainsPairFunc[K comparable, V any](c Cache[K, V], key K, value V, eq utils.EqualFn[V]) bool {
	got, found := c.Get(key)
	return found && eq(got, value)
}

// Entries snapshots the cache into key-value pairs. Keys and Get are separate operations, so under
// concurrent writers a pair may vanish between the two; such keys are skipped.
func Entries[K comparable, V any](c Cache[K, V]) []utils.Pair[K, V] {
	keys := c.Keys()
	pairs := make([]utils.Pair[K, V], 0, len(keys))
	for _, key := range keys {
		if value, found := c.Get(key); found {
			pairs = append(pairs, utils.Pair[K, V]{Key: key, Value: value})
		}
	}
	return pairs
}

// NoOp is a cache that stores nothing. It is used when caching is disabled; a memoizer backed by it
// recomputes on every call.
type NoOp[K comparable, V any] struct{} // Implements Cache.

var _ Cache[int, int] = (*NoOp[int, int])(nil)

// NewNoOp returns a no-operation cache.
func NewNoOp[K comparable, V any]() *NoOp[K, V] {
	return &NoOp[K, V]{}
}

// Len always returns 0.
func (n *NoOp[K, V]) Len() int { return 0 }

// Contains always reports false.
func (n *NoOp[K, V]) Contains(key K) bool { return false }

// Get always reports a miss.
func (n *NoOp[K, V]) Get(key K) (V, bool) {
	var zero V
	return zero, false
}

// Put drops the pair.
func (n *NoOp[K, V]) Put(key K, value V) {}

// GetOrCompute runs compute every time and stores nothing.
func (n *NoOp[K, V]) GetOrCompute(key K, compute func() V) V {
	return compute()
}

// Remove always reports a miss.
func (n *NoOp[K, V]) Remove(key K) (V, bool) {
	var zero V
	return zero, false
}

// Keys always returns nil.
func (n *NoOp[K, V]) Keys() []K { return nil }

// Clear does nothing.
func (n *NoOp[K, V]) Clear() {}
