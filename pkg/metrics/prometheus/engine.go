package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lodestone-io/lodestone/pkg/engine"
	"github.com/lodestone-io/lodestone/pkg/metrics"
)

// engineMetrics is the Prometheus implementation for engine lifecycle
// and lock-maintenance metrics.
type engineMetrics struct {
	constructions        prometheus.Counter
	constructionFailures *prometheus.CounterVec
	repositoriesLive     prometheus.Gauge
	sweepCycles          prometheus.Counter
	sweepFailures        *prometheus.CounterVec
	locksReclaimed       *prometheus.CounterVec
}

// NewEngineMetrics creates a new Prometheus-backed engine metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). The
// engine treats a nil Metrics as disabled, so the result can be passed
// straight to engine.New either way.
func NewEngineMetrics() engine.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newEngineMetrics()
}

func newEngineMetrics() *engineMetrics {
	reg := metrics.GetRegistry()

	return &engineMetrics{
		constructions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "lodestone_repository_constructions_total",
				Help: "Total number of repository instances constructed",
			},
		),
		constructionFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lodestone_repository_construction_failures_total",
				Help: "Total number of failed repository constructions by reason",
			},
			[]string{"reason"}, // "configuration", "construction", "not_found"
		),
		repositoriesLive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "lodestone_repositories_live",
				Help: "Number of live repository instances held by the engine",
			},
		),
		sweepCycles: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "lodestone_lock_sweep_cycles_total",
				Help: "Total number of lock maintenance cycles run",
			},
		),
		sweepFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lodestone_lock_sweep_failures_total",
				Help: "Total number of per-repository lock sweep failures",
			},
			[]string{"repository"},
		),
		locksReclaimed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lodestone_locks_reclaimed_total",
				Help: "Total number of expired or abandoned locks reclaimed",
			},
			[]string{"repository"},
		),
	}
}

// RecordConstruction records one successful repository construction.
func (m *engineMetrics) RecordConstruction() {
	if m == nil {
		return
	}
	m.constructions.Inc()
}

// RecordConstructionFailure records a failed construction attempt.
func (m *engineMetrics) RecordConstructionFailure(reason string) {
	if m == nil {
		return
	}
	m.constructionFailures.WithLabelValues(reason).Inc()
}

// SetLiveRepositories records the current registry size.
func (m *engineMetrics) SetLiveRepositories(n int) {
	if m == nil {
		return
	}
	m.repositoriesLive.Set(float64(n))
}

// RecordSweepCycle records one completed maintenance cycle.
func (m *engineMetrics) RecordSweepCycle() {
	if m == nil {
		return
	}
	m.sweepCycles.Inc()
}

// RecordSweepFailure records a per-repository sweep failure.
func (m *engineMetrics) RecordSweepFailure(repository string) {
	if m == nil {
		return
	}
	m.sweepFailures.WithLabelValues(repository).Inc()
}

// RecordLocksReclaimed records locks reclaimed during one sweep.
func (m *engineMetrics) RecordLocksReclaimed(repository string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.locksReclaimed.WithLabelValues(repository).Add(float64(n))
}
