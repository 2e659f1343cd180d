// This module implements a cache whose entries expire after a time-to-live. Every entry carries an
// absolute deadline stamped at write time; an entry whose deadline has been reached is invisible
// to readers whether or not it still occupies memory. Stale entries leave memory two ways: a Get
// that trips over one deletes it (lazy purge), and Cleanup sweeps all of them at once. Nothing
// here schedules Cleanup; pair the cache with StartSweeper or the caller's own ticker, or entries
// written once and never read again stay resident forever.
//
// The backing store is a sync.Map, so individual operations are atomic without a cache-wide lock,
// but GetOrCompute is get-then-compute-then-store rather than a single atomic step: concurrent
// callers missing on the same key may each run compute, and the last store wins. That trades the
// bounded LRU cache's exactly-once computation for never stalling unrelated keys. Callers needing
// both TTL semantics and single-flight computation should serialize computes themselves.

package cache

import (
	"sync"
	"time"

	"github.com/calque/recall/pkg/utils"
)

// DefaultTTL is the time-to-live applied when a caller doesn't pick one.
const DefaultTTL = 5 * time.Minute

// ttlEntry pairs a cached value with its expiration deadline. Entries are stored by pointer so the
// sync.Map compare-and-delete operations below have comparable values to work with.
type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// expired reports whether the entry's deadline has been reached. The deadline itself counts as
// expired, so a zero TTL produces an entry that is never visible.
func (e *ttlEntry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Expiring is a thread-safe cache with per-entry time-to-live and no capacity bound. Writes never
// evict; memory is reclaimed only through expiration (see the module comment).
type Expiring[K comparable, V any] struct { // Implements Cache.
	defaultTTL time.Duration
	entries    sync.Map // map[K]*ttlEntry[V]
}

var _ Cache[int, int] = (*Expiring[int, int])(nil)

// NewExpiring constructs an Expiring cache whose Put and GetOrCompute stamp entries with the given
// default time-to-live. A zero TTL is legal and makes entries expire on arrival, which is useful
// for tests and for effectively disabling caching per call site.
func NewExpiring[K comparable, V any](defaultTTL time.Duration) *Expiring[K, V] {
	if defaultTTL < 0 {
		utils.RaiseInvariant("ttl", "negative_default_ttl",
			"Negative default TTL has been given to expiring cache.", "defaultTTL", defaultTTL)
		defaultTTL = 0
	}
	return &Expiring[K, V]{defaultTTL: defaultTTL}
}

// DefaultTTL returns the time-to-live used when no per-call override is given.
func (c *Expiring[K, V]) DefaultTTL() time.Duration { return c.defaultTTL }

// Len returns the raw entry count, including entries that have expired but haven't been purged
// yet. Counting only live entries would need a full scan per call; callers that want the live
// count can run Cleanup first.
func (c *Expiring[K, V]) Len() int {
	count := 0
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Contains reports whether the key holds an unexpired entry. It never deletes; purging is left to
// Get and Cleanup.
func (c *Expiring[K, V]) Contains(key K) bool {
	loaded, found := c.entries.Load(key)
	return found && !loaded.(*ttlEntry[V]).expired(time.Now())
}

// Get returns the value for the key if its entry hasn't expired. Discovering an expired entry
// deletes it as a side effect, so memory for read-again keys is reclaimed without a sweep.
func (c *Expiring[K, V]) Get(key K) (V, bool /*found*/) {
	loaded, found := c.entries.Load(key)
	if !found {
		recordLookup(KindTTL, false)
		return *new(V), false
	}
	entry := loaded.(*ttlEntry[V])
	if entry.expired(time.Now()) {
		// Lazy purge. CompareAndDelete leaves the slot alone if a writer has already replaced the
		// stale entry with a fresh one.
		if c.entries.CompareAndDelete(key, loaded) {
			cacheExpirations.WithLabelValues(KindTTL).Inc()
		}
		recordLookup(KindTTL, false)
		return *new(V), false
	}
	recordLookup(KindTTL, true)
	return entry.value, true
}

// PutValue stores the value under the key with the default time-to-live and returns the value
// just stored. Note the return is the new value, not any previous one.
func (c *Expiring[K, V]) PutValue(key K, value V) V {
	return c.PutTTL(key, value, c.defaultTTL)
}

// Put stores the value under the key with the default time-to-live.
func (c *Expiring[K, V]) Put(key K, value V) {
	c.PutTTL(key, value, c.defaultTTL)
}

// PutTTL stores the value with an explicit time-to-live override and returns the value just
// stored. The deadline is stamped now; it is not refreshed by later reads.
func (c *Expiring[K, V]) PutTTL(key K, value V, ttl time.Duration) V {
	c.entries.Store(key, &ttlEntry[V]{value: value, expiresAt: time.Now().Add(ttl)})
	return value
}

// GetOrCompute returns the unexpired value for the key, or runs compute, stores its result with
// the default time-to-live and returns it. The check and the store are two separate steps:
// concurrent misses on the same key may each run compute, and the last store wins. A panic inside
// compute propagates and stores nothing.
func (c *Expiring[K, V]) GetOrCompute(key K, compute func() V) V {
	return c.GetOrComputeTTL(key, c.defaultTTL, compute)
}

// GetOrComputeTTL is GetOrCompute with an explicit time-to-live for the computed value.
func (c *Expiring[K, V]) GetOrComputeTTL(key K, ttl time.Duration, compute func() V) V {
	if value, found := c.Get(key); found {
		return value
	}
	return c.PutTTL(key, compute(), ttl)
}

// Remove deletes the key. An entry that had already expired is deleted too, but reported as
// absent; expiration made it unobservable before Remove arrived.
func (c *Expiring[K, V]) Remove(key K) (V, bool /*found*/) {
	loaded, found := c.entries.LoadAndDelete(key)
	if !found {
		return *new(V), false
	}
	entry := loaded.(*ttlEntry[V])
	if entry.expired(time.Now()) {
		cacheExpirations.WithLabelValues(KindTTL).Inc()
		return *new(V), false
	}
	return entry.value, true
}

// Keys returns the keys of all unexpired entries in no particular order.
func (c *Expiring[K, V]) Keys() []K {
	now := time.Now()
	var keys []K
	c.entries.Range(func(key, loaded any) bool {
		if !loaded.(*ttlEntry[V]).expired(now) {
			keys = append(keys, key.(K))
		}
		return true
	})
	return keys
}

// Clear removes all entries, expired or not.
func (c *Expiring[K, V]) Clear() {
	c.entries.Clear()
}

// Cleanup scans the cache and deletes every entry whose deadline has been reached, returning how
// many were removed. Unexpired entries are untouched. This is the only path that reclaims memory
// for expired entries that are never read again, so it should run periodically (see StartSweeper).
func (c *Expiring[K, V]) Cleanup() int {
	now := time.Now()
	removed := 0
	c.entries.Range(func(key, loaded any) bool {
		if loaded.(*ttlEntry[V]).expired(now) && c.entries.CompareAndDelete(key, loaded) {
			cacheExpirations.WithLabelValues(KindTTL).Inc()
			removed++
		}
		return true
	})
	return removed
}
