// This module implements an admission doorkeeper for the bounded LRU cache. A full cache paired
// with a scan-heavy workload degrades badly: every one-hit-wonder key evicts an entry that was
// actually being reused. The doorkeeper remembers which keys have been seen before in a Bloom
// filter; a brand-new key knocking on a full cache is recorded but turned away, and only admitted
// (displacing the LRU victim) on its second appearance. False positives in the filter merely admit
// the occasional one-hit wonder, which is the pre-doorkeeper behavior anyway.
//
// The filter saturates as sightings accumulate, so it resets itself after recording roughly one
// full cache's worth of first sightings. A reset forgets history; keys seen long ago knock twice
// again.

package cache

import (
	"encoding/binary"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/calque/recall/pkg/utils"
)

// Doorkeeper tracks first sightings of keys in a Bloom filter. It is safe for concurrent use and
// is consulted by BoundedLRU under the cache mutex, so it must never call back into the cache.
type Doorkeeper[K comparable] struct {
	filter     *bloom.BloomFilter
	hash       func(key K) uint64
	recorded   int // First sightings recorded since the last reset.
	resetAfter int
	mux        sync.Mutex
}

// NewDoorkeeper constructs a Doorkeeper sized for roughly expectedKeys distinct keys at the given
// false positive rate. Sensible starting points are the cache's capacity and 0.01.
func NewDoorkeeper[K comparable](expectedKeys int, falsePositiveRate float64) *Doorkeeper[K] {
	if expectedKeys <= 0 {
		utils.RaiseInvariant("doorkeeper", "non_positive_expected_keys",
			"Invalid expected key count has been given to doorkeeper.", "expectedKeys", expectedKeys)
		expectedKeys = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		utils.RaiseInvariant("doorkeeper", "false_positive_rate_out_of_range",
			"Doorkeeper false positive rate must be inside (0, 1).", "falsePositiveRate", falsePositiveRate)
		falsePositiveRate = 0.01
	}
	return &Doorkeeper[K]{
		filter:     bloom.NewWithEstimates(uint(expectedKeys), falsePositiveRate),
		hash:       keyHasher[K](),
		resetAfter: expectedKeys,
	}
}

// Admit reports whether the key has been seen before. A first sighting is recorded and refused;
// the next sighting of the same key is admitted.
func (d *Doorkeeper[K]) Admit(key K) bool {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], d.hash(key))

	d.mux.Lock()
	defer d.mux.Unlock()
	if d.filter.Test(b[:]) {
		return true
	}
	d.filter.Add(b[:])
	d.recorded++
	if d.recorded >= d.resetAfter {
		// The filter is near its sizing estimate; keep admitting rather than drown in false
		// positives.
		d.filter.ClearAll()
		d.recorded = 0
	}
	return false
}
