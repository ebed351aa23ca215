// Package metrics exposes Prometheus instrumentation for the indexer core
// using promauto's direct-constructor pattern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/codeindex/pkg/index/model"
)

// RunKindFull and RunKindIncremental label the "kind" dimension shared by
// IndexRunsTotal and IndexDurationSeconds.
const (
	RunKindFull        = "full"
	RunKindIncremental = "incremental"
)

// Metrics holds every counter/gauge the indexer reports. A nil *Metrics is
// valid: every method is a no-op on a nil receiver, so callers that don't
// want metrics can wire nil through with zero overhead.
type Metrics struct {
	indexRunsTotal       *prometheus.CounterVec
	indexDurationSeconds *prometheus.HistogramVec
	filesIndexedTotal    prometheus.Counter
	filesFailedTotal     prometheus.Counter
	filesRemovedTotal    prometheus.Counter
	graphCacheHitsTotal  prometheus.Counter
	graphCacheMissTotal  prometheus.Counter
	pendingEventsGauge   prometheus.Gauge
}

// New registers every metric against reg and returns the holder. Pass
// prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		indexRunsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "codeindex_index_runs_total",
			Help: "Total number of completed index runs, by kind.",
		}, []string{"kind"}),
		indexDurationSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codeindex_index_duration_seconds",
			Help:    "Duration of completed index runs, by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		filesIndexedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "codeindex_files_indexed_total",
			Help: "Total number of files successfully (re)indexed.",
		}),
		filesFailedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "codeindex_files_failed_total",
			Help: "Total number of files that failed to parse or process during a run.",
		}),
		filesRemovedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "codeindex_files_removed_total",
			Help: "Total number of files removed from the index.",
		}),
		graphCacheHitsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "codeindex_graph_cache_hits_total",
			Help: "Total number of dependency-graph cache hits.",
		}),
		graphCacheMissTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "codeindex_graph_cache_misses_total",
			Help: "Total number of dependency-graph cache misses.",
		}),
		pendingEventsGauge: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "codeindex_coordinator_pending_events",
			Help: "Number of watcher events buffered waiting for the next debounced run.",
		}),
	}
}

// ObserveRun records one completed run's kind, duration, and file counts.
// Intended to be wired as an IndexCoordinator onIndexed subscriber.
func (m *Metrics) ObserveRun(kind string, result *model.IndexResult) {
	if m == nil || result == nil {
		return
	}
	m.indexRunsTotal.WithLabelValues(kind).Inc()
	m.indexDurationSeconds.WithLabelValues(kind).Observe(float64(result.DurationMs) / 1000)
	m.filesIndexedTotal.Add(float64(result.IndexedFiles))
	m.filesFailedTotal.Add(float64(len(result.FailedFiles)))
	m.filesRemovedTotal.Add(float64(result.RemovedFiles))
}

// ObserveGraphCacheHit records a GraphCache hit.
func (m *Metrics) ObserveGraphCacheHit() {
	if m == nil {
		return
	}
	m.graphCacheHitsTotal.Inc()
}

// ObserveGraphCacheMiss records a GraphCache miss.
func (m *Metrics) ObserveGraphCacheMiss() {
	if m == nil {
		return
	}
	m.graphCacheMissTotal.Inc()
}

// SetPendingEvents reports the coordinator's current buffered-event count.
func (m *Metrics) SetPendingEvents(n int) {
	if m == nil {
		return
	}
	m.pendingEventsGauge.Set(float64(n))
}
