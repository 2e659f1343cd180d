// This module handles conditions that signal a bug rather than a runtime failure. An invariant is
// something the code guarantees about itself: a capacity is positive, a strategy constant is one
// of the known ones. Violations are programming defects, so instead of returning an error to a
// caller who can't do anything about it, RaiseInvariant records an error log and bumps a
// monitoring counter; under test builds it panics so the defect can't hide. The caller is still
// responsible for degrading sanely afterwards (clamping the value, falling back to a default).
//
// Don't use invariants for conditions driven by the outside world; a missing cache key is a normal
// absent result, never an invariant.

package utils

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	promclient "github.com/prometheus/client_model/go"
)

var invariantsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "invariants_total",
	Help: "The total number of invariant violations",
}, []string{
	"module", // The module in which this invariant occurred.
	"type",   // The type of the invariant that occurred.
})

// RaiseInvariant reports an invariant violation in the given module. In test mode it panics.
func RaiseInvariant(module, invariantType, msg string, args ...any) {
	invariantsMetric.WithLabelValues(module, invariantType).Inc()
	slog.With("invariant", invariantType, "module", module).Error(msg, args...)
	if IsTestMode {
		panic("invariant violated: " + invariantType)
	}
}

// GetMetricValue returns how many times the invariant identified by module and invariantType has
// been raised.
func GetMetricValue(module, invariantType string) int {
	var metric = &promclient.Metric{}
	if err := invariantsMetric.WithLabelValues(module, invariantType).Write(metric); err != nil {
		slog.Error(err.Error())
		return 0
	}
	return int(metric.Counter.GetValue())
}
