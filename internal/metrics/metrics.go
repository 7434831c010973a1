// Package metrics exposes Prometheus collectors for probe, cycle and
// restart outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbeResults counts classified probe outcomes per service
	ProbeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodestack",
		Subsystem: "health",
		Name:      "probe_results_total",
		Help:      "Classified probe outcomes per service and status.",
	}, []string{"service", "status"})

	// ProbeAttempts counts raw probe attempts, including retries
	ProbeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodestack",
		Subsystem: "health",
		Name:      "probe_attempts_total",
		Help:      "Raw probe attempts per service, retries included.",
	}, []string{"service"})

	// CycleDuration observes how long a full health pass takes
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nodestack",
		Subsystem: "health",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a full health check cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	// RestartResults counts restart outcomes per service
	RestartResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nodestack",
		Subsystem: "restart",
		Name:      "results_total",
		Help:      "Restart outcomes per service.",
	}, []string{"service", "outcome"})
)
