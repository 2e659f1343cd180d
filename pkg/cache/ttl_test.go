package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiring_PutAndGet(t *testing.T) {
	ttl := NewExpiring[string, int](time.Minute)
	ttl.Put("key", 5)

	got, found := ttl.Get("key")
	assert.True(t, found, "A freshly written entry must be readable")
	assert.Equal(t, 5, got)

	_, found = ttl.Get("missing")
	assert.False(t, found)
}

func TestExpiring_EntriesExpire(t *testing.T) {
	ttl := NewExpiring[string, int](20 * time.Millisecond)
	ttl.Put("key", 1)

	got, found := ttl.Get("key")
	require.True(t, found)
	require.Equal(t, 1, got)

	time.Sleep(30 * time.Millisecond)
	_, found = ttl.Get("key")
	assert.False(t, found, "The entry's deadline has passed")
	assert.False(t, ttl.Contains("key"), "Contains must agree with Get after expiry")
}

func TestExpiring_ZeroTTLExpiresImmediately(t *testing.T) {
	ttl := NewExpiring[string, int](0)
	ttl.Put("x", 5)
	_, found := ttl.Get("x")
	assert.False(t, found, "A zero TTL entry is born expired")
	assert.False(t, ttl.Contains("x"))
}

func TestExpiring_LazyPurgeOnGet(t *testing.T) {
	ttl := NewExpiring[string, int](0)
	ttl.Put("x", 5)
	assert.Equal(t, 1, ttl.Len(), "Len counts raw entries, the expired one included")

	_, found := ttl.Get("x")
	assert.False(t, found)
	assert.Equal(t, 0, ttl.Len(), "The failed read must have purged the stale entry")
}

func TestExpiring_PerCallTTLOverride(t *testing.T) {
	ttl := NewExpiring[string, int](10 * time.Millisecond)
	stored := ttl.PutTTL("long", 1, time.Minute)
	assert.Equal(t, 1, stored, "PutTTL returns the value just stored")
	assert.Equal(t, 2, ttl.PutValue("short", 2), "PutValue returns the value just stored")

	time.Sleep(20 * time.Millisecond)
	_, found := ttl.Get("short")
	assert.False(t, found, "The default TTL entry has expired")
	got, found := ttl.Get("long")
	assert.True(t, found, "The overridden entry outlives the default TTL")
	assert.Equal(t, 1, got)
}

func TestExpiring_Cleanup(t *testing.T) {
	ttl := NewExpiring[string, int](10 * time.Millisecond)
	ttl.Put("dead1", 1)
	ttl.Put("dead2", 2)
	ttl.PutTTL("alive", 3, time.Minute)

	time.Sleep(20 * time.Millisecond)
	removed := ttl.Cleanup()
	assert.Equal(t, 2, removed, "Exactly the expired entries are swept")
	assert.Equal(t, 1, ttl.Len(), "The unexpired entry is untouched")
	got, found := ttl.Get("alive")
	assert.True(t, found)
	assert.Equal(t, 3, got)

	assert.Equal(t, 0, ttl.Cleanup(), "Nothing left to sweep")
}

func TestExpiring_Remove(t *testing.T) {
	ttl := NewExpiring[string, int](time.Minute)
	ttl.Put("key", 9)

	got, found := ttl.Remove("key")
	assert.True(t, found)
	assert.Equal(t, 9, got, "Remove must return the stored value")
	assert.False(t, ttl.Contains("key"))

	_, found = ttl.Remove("key")
	assert.False(t, found)

	// An expired entry is deleted by Remove but reported absent.
	ttl.PutTTL("stale", 1, 0)
	_, found = ttl.Remove("stale")
	assert.False(t, found, "Expiration made the entry unobservable before Remove")
	assert.Equal(t, 0, ttl.Len())
}

func TestExpiring_GetOrCompute(t *testing.T) {
	ttl := NewExpiring[string, int](30 * time.Millisecond)
	calls := 0
	compute := func() int {
		calls++
		return 42
	}

	assert.Equal(t, 42, ttl.GetOrCompute("key", compute))
	assert.Equal(t, 42, ttl.GetOrCompute("key", compute))
	assert.Equal(t, 1, calls, "Second call must be served from the cache")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 42, ttl.GetOrCompute("key", compute))
	assert.Equal(t, 2, calls, "Expiry must trigger recomputation")
}

func TestExpiring_KeysSkipExpired(t *testing.T) {
	ttl := NewExpiring[string, int](time.Minute)
	ttl.Put("alive", 1)
	ttl.PutTTL("dead", 2, 0)
	assert.ElementsMatch(t, []string{"alive"}, ttl.Keys())
}

func TestExpiring_Clear(t *testing.T) {
	ttl := NewExpiring[string, int](time.Minute)
	ttl.Put("a", 1)
	ttl.Put("b", 2)
	ttl.Clear()
	assert.Equal(t, 0, ttl.Len())
	assert.False(t, ttl.Contains("a"))
}

func TestExpiring_NegativeDefaultTTLClampsToZero(t *testing.T) {
	ttl := NewExpiring[string, int](-time.Second)
	assert.Equal(t, time.Duration(0), ttl.DefaultTTL())
}

func TestStartSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ttl := NewExpiring[string, int](5 * time.Millisecond)
	StartSweeper(ctx, ttl, 10*time.Millisecond)

	// These entries are never read again; only the sweeper can reclaim them.
	for i := range 10 {
		ttl.Put(fmt.Sprintf("key-%d", i), i)
	}
	assert.Eventually(t, func() bool { return ttl.Len() == 0 }, time.Second, 10*time.Millisecond,
		"The sweeper must reclaim expired entries that are never read")
}

func TestExpiring_Concurrency(t *testing.T) {
	const goroutines, itemsPerGoroutine = 20, 100
	ttl := NewExpiring[string, int](time.Minute)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range itemsPerGoroutine {
				ttl.Put(fmt.Sprintf("key-%d-%d", i, j), i*1000+j)
			}
		}()
	}
	wg.Wait()

	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range itemsPerGoroutine {
				got, found := ttl.Get(fmt.Sprintf("key-%d-%d", i, j))
				assert.True(t, found, "Nothing evicts and nothing has expired yet")
				assert.Equal(t, i*1000+j, got)
			}
		}()
	}
	wg.Wait()
}
