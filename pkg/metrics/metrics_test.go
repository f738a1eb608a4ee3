package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecording(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.SetRunning(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.running))
	m.SetRunning(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.running))

	m.RecordRun("completed", 2*time.Second)
	m.RecordRun("completed", time.Second)
	m.RecordRejected()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("rejected")))

	m.RecordStage("fuse", "skipped")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageOutcomes.WithLabelValues("fuse", "skipped")))

	m.RecordFetch("paris_budget", false)
	m.RecordFetch("paris_budget", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchesTotal.WithLabelValues("paris_budget", "error")))

	m.RecordProcessed("paris_budget", 6, 94.5)
	m.RecordProcessed("paris_budget", 6, 90)
	assert.Equal(t, 12.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues("paris_budget")))
	assert.Equal(t, 90.0, testutil.ToFloat64(m.qualityScore.WithLabelValues("paris_budget")))

	m.SetFusionCoverage(45.45)
	assert.Equal(t, 45.45, testutil.ToFloat64(m.fusionCoverage))

	count, err := testutil.GatherAndCount(m.Registry(), "agoraflux_pipeline_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err, "registering twice reuses existing collectors")

	second.RecordStage("persist", "ok")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.stageOutcomes.WithLabelValues("persist", "ok")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetRunning(true)
		m.RecordRun("error", time.Second)
		m.RecordRejected()
		m.RecordStage("process", "ok")
		m.RecordFetch("x", true)
		m.RecordProcessed("x", 1, 1)
		m.SetFusionCoverage(1)
	})
	assert.Nil(t, m.Registry())
}
