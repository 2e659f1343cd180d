// Memoizer construction picks exactly one caching strategy through functional options. The
// strategy is fixed for the memoizer's lifetime; there is no switching after construction.

package memo

import "time"

// strategy enumerates the cache strategies a memoizer can be built with.
type strategy int

const (
	unboundedStrategy strategy = iota // Default: cache every result forever.
	lruStrategy                       // Bounded capacity with least-recently-used eviction.
	ttlStrategy                       // Entries expire after a time-to-live.
	disabledStrategy                  // No caching; every call recomputes.
)

// settings collects the construction choices before the cache is built.
type settings struct {
	strategy strategy
	maxSize  int
	ttl      time.Duration
	shards   int
}

// Option configures a memoizer at construction time.
type Option func(*settings)

// WithLRU caches at most maxSize results, evicting the least recently used one when a new result
// would exceed the bound. Lookups under this strategy are fully serialized, computation included,
// so concurrent calls for the same input compute it exactly once.
func WithLRU(maxSize int) Option {
	return func(s *settings) {
		s.strategy = lruStrategy
		s.maxSize = maxSize
	}
}

// WithTTL caches results for the given time-to-live. This strategy favors throughput over strict
// deduplication: concurrent calls that miss on the same input may each run the function, with the
// last result cached.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.strategy = ttlStrategy
		s.ttl = ttl
	}
}

// Disabled turns caching off entirely; every call invokes the function. Useful to take a memoizer
// out of the equation without changing call sites.
func Disabled() Option {
	return func(s *settings) { s.strategy = disabledStrategy }
}

// WithShards splits the chosen strategy across n shards keyed by input hash. Sharding relieves
// lock contention; for the LRU strategy it also makes the capacity bound and the exactly-once
// computation guarantee per-shard rather than global.
func WithShards(n int) Option {
	return func(s *settings) { s.shards = n }
}
