// Package metrics exposes Prometheus counters for the engine. All metrics
// are registered on the default registry and served at /metrics in serve
// mode.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobRuns counts scheduled job executions by job name and terminal
	// status.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footprint",
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Scheduled job executions by job and terminal status.",
	}, []string{"job", "status"})

	// FindingsDiscovered counts findings recorded by source.
	FindingsDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footprint",
		Name:      "findings_discovered_total",
		Help:      "Findings recorded, by scanner source.",
	}, []string{"source"})

	// RemovalsSubmitted counts removal submissions by method and outcome
	// status.
	RemovalsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footprint",
		Name:      "removals_submitted_total",
		Help:      "Removal submissions by method and outcome status.",
	}, []string{"method", "status"})

	// ScanErrors counts scanner failures by scanner name.
	ScanErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footprint",
		Name:      "scan_errors_total",
		Help:      "Scanner failures by scanner.",
	}, []string{"scanner"})

	// AlertsSent counts alert emails actually delivered.
	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "footprint",
		Name:      "alerts_sent_total",
		Help:      "Alert emails delivered.",
	})
)
