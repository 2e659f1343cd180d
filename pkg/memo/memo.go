// This module implements memoization: wrapping a single-argument function so repeated calls with
// the same input reuse the previously computed result. The wrapped function must be deterministic
// and side-effect free, since a caller can't tell a cached result from a fresh one. How long
// results live is decided once at construction by picking a cache strategy (see option.go); after
// that every call goes through the shared cache contract, and the memoizer neither knows nor cares
// which concrete cache it holds.

package memo

import (
	"github.com/calque/recall/pkg/cache"
	"github.com/calque/recall/pkg/utils"
)

// Memoizer wraps a pure function with a result cache. It is safe for concurrent use; the
// atomicity of "compute on miss" is whatever the underlying cache strategy provides (see the
// options). A panic inside the wrapped function propagates to the caller and nothing is cached
// for that input.
type Memoizer[T comparable, R any] struct {
	fn    func(T) R
	cache cache.Cache[T, R]
}

// New constructs a memoizer around fn. With no options, results are cached forever in an
// unbounded map; WithLRU, WithTTL and Disabled select the other strategies, and WithShards
// spreads whichever strategy was picked across multiple shards. A nil fn is a programming defect;
// it is reported as an invariant violation and the returned memoizer will panic when called.
func New[T comparable, R any](fn func(T) R, opts ...Option) *Memoizer[T, R] {
	if fn == nil {
		utils.RaiseInvariant("memo", "nil_function", "Memoizer has been constructed around a nil function.")
	}
	s := settings{strategy: unboundedStrategy}
	for _, opt := range opts {
		opt(&s)
	}
	return &Memoizer[T, R]{fn: fn, cache: buildCache[T, R](s)}
}

// NewWithCache constructs a memoizer around fn backed by a caller-supplied cache. The memoizer
// assumes exclusive ownership; the caller must not keep using the cache directly.
func NewWithCache[T comparable, R any](fn func(T) R, c cache.Cache[T, R]) *Memoizer[T, R] {
	if fn == nil {
		utils.RaiseInvariant("memo", "nil_function", "Memoizer has been constructed around a nil function.")
	}
	if c == nil {
		utils.RaiseInvariant("memo", "nil_cache", "Memoizer has been constructed around a nil cache.")
		c = cache.NewUnbounded[T, R]()
	}
	return &Memoizer[T, R]{fn: fn, cache: c}
}

// buildCache turns the construction settings into the one concrete cache the memoizer will hold.
// This is the only place aware of concrete cache types; all later calls go through the contract.
func buildCache[T comparable, R any](s settings) cache.Cache[T, R] {
	shards := s.shards
	if shards <= 0 {
		shards = 1
	}

	var generator func() cache.Cache[T, R]
	switch s.strategy {
	case unboundedStrategy:
		generator = func() cache.Cache[T, R] { return cache.NewUnbounded[T, R]() }
	case lruStrategy:
		// Split the capacity across shards, rounding up so the total bound is never below the
		// requested one.
		perShard := (s.maxSize + shards - 1) / shards
		generator = func() cache.Cache[T, R] { return cache.NewBoundedLRU[T, R](perShard) }
	case ttlStrategy:
		generator = func() cache.Cache[T, R] { return cache.NewExpiring[T, R](s.ttl) }
	case disabledStrategy:
		return cache.NewNoOp[T, R]() // Sharding a cache that stores nothing is pointless.
	default:
		// Unreachable with the options in option.go; a new strategy constant without a case here
		// is a bug.
		utils.RaiseInvariant("memo", "unknown_strategy",
			"Memoizer has been constructed with an unknown strategy.", "strategy", int(s.strategy))
		generator = func() cache.Cache[T, R] { return cache.NewUnbounded[T, R]() }
	}

	if shards > 1 {
		return cache.NewSharded(generator, shards)
	}
	return generator()
}

// Call returns the memoized result for the input, computing and caching it on a miss.
func (m *Memoizer[T, R]) Call(input T) R {
	return m.cache.GetOrCompute(input, func() R { return m.fn(input) })
}

// Invalidate drops the cached result for the input, if any; the next Call recomputes it.
func (m *Memoizer[T, R]) Invalidate(input T) {
	m.cache.Remove(input)
}

// Clear drops every cached result.
func (m *Memoizer[T, R]) Clear() {
	m.cache.Clear()
}

// Len returns how many results are currently cached, with the counting semantics of the
// underlying strategy (the TTL strategy counts entries that expired but haven't been purged yet).
func (m *Memoizer[T, R]) Len() int {
	return m.cache.Len()
}
