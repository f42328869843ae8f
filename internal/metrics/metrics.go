// Package metrics holds the Prometheus collectors for fetches, cache lookups
// and batches. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidmeta"

// Metrics groups the collectors used by the pipeline.
type Metrics struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	cacheWarnings *prometheus.CounterVec
	batchesTotal  prometheus.Counter
	batchDuration prometheus.Histogram
	batchItems    *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetcher",
				Name:      "fetches_total",
				Help:      "Total number of watch page fetches by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetcher",
				Name:      "fetch_duration_seconds",
				Help:      "Watch page fetch duration in seconds, pacing delay included",
				Buckets:   []float64{0.25, 0.5, 1, 1.5, 2, 3, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Cache lookups by result",
			},
			[]string{"result"},
		),
		cacheWarnings: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "warnings_total",
				Help:      "Non-fatal cache load/save problems",
			},
			[]string{"op"},
		),
		batchesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "runs_total",
				Help:      "Total number of batches run",
			},
		),
		batchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "duration_seconds",
				Help:      "Batch duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		batchItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "items_total",
				Help:      "Batch output records by status",
			},
			[]string{"status"},
		),
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveFetch records one fetch.
func (m *Metrics) ObserveFetch(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(outcome(ok)).Inc()
	m.fetchDuration.WithLabelValues(outcome(ok)).Observe(d.Seconds())
}

// CacheLookups records hit and miss counts for one batch.
func (m *Metrics) CacheLookups(hits, misses int) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Add(float64(hits))
	m.cacheLookups.WithLabelValues("miss").Add(float64(misses))
}

// CacheWarning records a non-fatal cache problem for op ("load" or "save").
func (m *Metrics) CacheWarning(op string) {
	if m == nil {
		return
	}
	m.cacheWarnings.WithLabelValues(op).Inc()
}

// ObserveBatch records a finished batch.
func (m *Metrics) ObserveBatch(d time.Duration, succeeded, failed int) {
	if m == nil {
		return
	}
	m.batchesTotal.Inc()
	m.batchDuration.Observe(d.Seconds())
	m.batchItems.WithLabelValues("success").Add(float64(succeeded))
	m.batchItems.WithLabelValues("failure").Add(float64(failed))
}
