package memo

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calque/recall/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFn returns a deterministic function along with a counter of how many times it ran.
func countingFn() (func(int) int, *atomic.Int64) {
	var calls atomic.Int64
	return func(x int) int {
		calls.Add(1)
		return x * x
	}, &calls
}

func TestMemoizer_Default(t *testing.T) {
	fn, calls := countingFn()
	memoized := New(fn)

	assert.Equal(t, 9, memoized.Call(3))
	assert.Equal(t, 9, memoized.Call(3))
	assert.Equal(t, int64(1), calls.Load(), "The second call must reuse the cached result")

	assert.Equal(t, 16, memoized.Call(4))
	assert.Equal(t, int64(2), calls.Load(), "A new input must be computed")
	assert.Equal(t, 2, memoized.Len())
}

func TestMemoizer_Invalidate(t *testing.T) {
	fn, calls := countingFn()
	memoized := New(fn)

	memoized.Call(3)
	memoized.Invalidate(3)
	assert.Equal(t, 9, memoized.Call(3))
	assert.Equal(t, int64(2), calls.Load(), "Invalidation must force a recomputation")

	// Invalidating an input that was never computed is a no-op.
	memoized.Invalidate(42)
	assert.Equal(t, 1, memoized.Len())
}

func TestMemoizer_Clear(t *testing.T) {
	fn, calls := countingFn()
	memoized := New(fn)

	memoized.Call(1)
	memoized.Call(2)
	memoized.Clear()
	assert.Equal(t, 0, memoized.Len())

	memoized.Call(1)
	assert.Equal(t, int64(3), calls.Load(), "Cleared results must be recomputed")
}

func TestMemoizer_LRUStrategy(t *testing.T) {
	fn, calls := countingFn()
	memoized := New(fn, WithLRU(2))

	memoized.Call(1)
	memoized.Call(2)
	memoized.Call(3) // Evicts the result for 1.
	assert.Equal(t, 2, memoized.Len())

	memoized.Call(3)
	memoized.Call(2)
	assert.Equal(t, int64(3), calls.Load(), "Recent inputs must still be cached")

	memoized.Call(1)
	assert.Equal(t, int64(4), calls.Load(), "The evicted input must be recomputed")
}

func TestMemoizer_TTLStrategy(t *testing.T) {
	fn, calls := countingFn()
	memoized := New(fn, WithTTL(20*time.Millisecond))

	assert.Equal(t, 9, memoized.Call(3))
	assert.Equal(t, 9, memoized.Call(3))
	assert.Equal(t, int64(1), calls.Load())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 9, memoized.Call(3))
	assert.Equal(t, int64(2), calls.Load(), "An expired result must be recomputed")
}

func TestMemoizer_Disabled(t *testing.T) {
	fn, calls := countingFn()
	memoized := New(fn, Disabled())

	assert.Equal(t, 9, memoized.Call(3))
	assert.Equal(t, 9, memoized.Call(3))
	assert.Equal(t, int64(2), calls.Load(), "A disabled memoizer recomputes every call")
	assert.Equal(t, 0, memoized.Len())
}

func TestMemoizer_Sharded(t *testing.T) {
	fn, calls := countingFn()
	memoized := New(fn, WithLRU(256), WithShards(4))

	for i := range 32 {
		assert.Equal(t, i*i, memoized.Call(i))
	}
	before := calls.Load()
	for i := range 32 {
		assert.Equal(t, i*i, memoized.Call(i))
	}
	assert.Equal(t, before, calls.Load(), "All 32 results fit; the second pass must be all hits")
}

func TestMemoizer_WithCustomCache(t *testing.T) {
	fn, calls := countingFn()
	memoized := NewWithCache(fn, cache.NewBoundedLRU[int, int](1))

	memoized.Call(1)
	memoized.Call(2) // Evicts the result for 1.
	memoized.Call(1)
	assert.Equal(t, int64(3), calls.Load())
	assert.Equal(t, 1, memoized.Len())
}

func TestMemoizer_PanicPropagatesAndCachesNothing(t *testing.T) {
	attempts := 0
	memoized := New(func(x int) int {
		attempts++
		if attempts == 1 {
			panic("flaky dependency")
		}
		return x
	})

	assert.Panics(t, func() { memoized.Call(7) })
	assert.Equal(t, 0, memoized.Len(), "A failed attempt must not be cached")

	// The next call retries the computation.
	assert.Equal(t, 7, memoized.Call(7))
	assert.Equal(t, 2, attempts)
}

func TestMemoizer_SingleFlightPerInput(t *testing.T) {
	fn, calls := countingFn()
	memoized := New(fn, WithLRU(8))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 25, memoized.Call(5))
		}()
	}
	wg.Wait()
	require.Equal(t, int64(1), calls.Load(),
		"Under the LRU strategy, concurrent calls for one input compute exactly once")
}

func TestMemoizer_ConcurrentDistinctInputs(t *testing.T) {
	fn, _ := countingFn()
	memoized := New(fn, WithShards(8))

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, i*i, memoized.Call(i))
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, memoized.Len())
}
