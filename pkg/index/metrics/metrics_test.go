package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/metrics"
	"github.com/marmos91/codeindex/pkg/index/model"
)

func TestObserveRunIncrementsCountersByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRun(metrics.RunKindFull, &model.IndexResult{
		IndexedFiles: 3,
		RemovedFiles: 1,
		FailedFiles:  []string{"a.ts"},
		DurationMs:   1500,
	})

	count, err := testutil.GatherAndCount(reg, "codeindex_index_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestObserveRunOnNilResultIsNoop(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	assert.NotPanics(t, func() { m.ObserveRun(metrics.RunKindIncremental, nil) })
}

func TestNilMetricsMethodsAreNoops(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveRun(metrics.RunKindFull, &model.IndexResult{})
		m.ObserveGraphCacheHit()
		m.ObserveGraphCacheMiss()
		m.SetPendingEvents(4)
	})
}

func TestGraphCacheCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveGraphCacheHit()
	m.ObserveGraphCacheHit()
	m.ObserveGraphCacheMiss()

	count, err := testutil.GatherAndCount(reg, "codeindex_graph_cache_hits_total", "codeindex_graph_cache_misses_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSetPendingEventsUpdatesGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.SetPendingEvents(7)

	count, err := testutil.GatherAndCount(reg, "codeindex_coordinator_pending_events")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
