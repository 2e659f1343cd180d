// Cache usage is observed through Prometheus counters so hit ratios and eviction pressure can be
// monitored (and asserted on in tests) without the caches exposing bookkeeping of their own.

package cache

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promclient "github.com/prometheus/client_model/go"
)

// Cache kind labels used on the metrics below.
const (
	KindLRU       = "lru"
	KindTTL       = "ttl"
	KindUnbounded = "unbounded"
)

const (
	statusHit  = "hit"
	statusMiss = "miss"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Total number of cache lookups.",
	}, []string{
		"cache",  // The cache kind the lookup hit: lru / ttl / unbounded.
		"status", // hit / miss.
	})
	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_evictions_total",
		Help: "Total number of entries evicted to satisfy a capacity bound.",
	}, []string{"cache"})
	cacheExpirations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_expired_entries_total",
		Help: "Total number of entries dropped because their TTL elapsed.",
	}, []string{"cache"})
	cacheRejectedKeys = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_rejected_keys_total",
		Help: "Total number of first-seen keys the admission doorkeeper refused to cache.",
	}, []string{"cache"})
)

// recordLookup increments the lookup counter for the given cache kind.
func recordLookup(kind string, found bool) {
	status := statusMiss
	if found {
		status = statusHit
	}
	cacheLookups.WithLabelValues(kind, status).Inc()
}

// LookupCount returns the current number of recorded lookups for a cache kind and hit status.
// It reads the live Prometheus counter, so it is meant for tests and debugging output.
func LookupCount(kind string, hit bool) int {
	status := statusMiss
	if hit {
		status = statusHit
	}
	var metric = &promclient.Metric{}
	if err := cacheLookups.WithLabelValues(kind, status).Write(metric); err != nil {
		slog.Error(err.Error())
		return 0
	}
	return int(metric.Counter.GetValue())
}
