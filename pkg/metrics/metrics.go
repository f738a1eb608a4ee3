// Package metrics exposes Prometheus collectors for pipeline runs.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agoraflux"

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec // by status: completed, error, rejected
	runDuration    prometheus.Histogram
	running        prometheus.Gauge
	stageOutcomes  *prometheus.CounterVec // by stage and status: ok, skipped, failed
	fetchesTotal   *prometheus.CounterVec // by source and status: success, error
	recordsTotal   *prometheus.CounterVec // by source
	qualityScore   *prometheus.GaugeVec   // by source
	fusionCoverage prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg gets a
// fresh registry, available from Registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by final status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "running",
			Help:      "1 while a pipeline run is in progress",
		}),
		stageOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_outcomes_total",
			Help:      "Stage outcomes by stage and status",
		}, []string{"stage", "status"}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sources",
			Name:      "fetches_total",
			Help:      "Source acquisitions by source and status",
		}, []string{"source", "status"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "records_total",
			Help:      "Records kept after processing, by source",
		}, []string{"source"}),
		qualityScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "quality_score",
			Help:      "Overall quality score of the last processed dataset, by source",
		}, []string{"source"}),
		fusionCoverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fusion",
			Name:      "coverage_percent",
			Help:      "Fusion coverage of the last run",
		}),
	}

	var err error
	if m.runsTotal, err = register(reg, m.runsTotal); err != nil {
		return nil, err
	}
	if m.runDuration, err = register(reg, m.runDuration); err != nil {
		return nil, err
	}
	if m.running, err = register(reg, m.running); err != nil {
		return nil, err
	}
	if m.stageOutcomes, err = register(reg, m.stageOutcomes); err != nil {
		return nil, err
	}
	if m.fetchesTotal, err = register(reg, m.fetchesTotal); err != nil {
		return nil, err
	}
	if m.recordsTotal, err = register(reg, m.recordsTotal); err != nil {
		return nil, err
	}
	if m.qualityScore, err = register(reg, m.qualityScore); err != nil {
		return nil, err
	}
	if m.fusionCoverage, err = register(reg, m.fusionCoverage); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, or returns the collector already registered
// under the same descriptor.
func register[T prometheus.Collector](reg *prometheus.Registry, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if stderrors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
}

// RecordRejected records a run refused because another was in progress.
func (m *Metrics) RecordRejected() {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues("rejected").Inc()
}

// SetRunning flags whether a run is in progress.
func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.running.Set(1)
		return
	}
	m.running.Set(0)
}

// RecordStage records a stage outcome.
func (m *Metrics) RecordStage(stage, status string) {
	if m == nil {
		return
	}
	m.stageOutcomes.WithLabelValues(stage, status).Inc()
}

// RecordFetch records one source acquisition.
func (m *Metrics) RecordFetch(source string, failed bool) {
	if m == nil {
		return
	}
	status := "success"
	if failed {
		status = "error"
	}
	m.fetchesTotal.WithLabelValues(source, status).Inc()
}

// RecordProcessed records the records kept and the quality score of a source.
func (m *Metrics) RecordProcessed(source string, records int, score float64) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(source).Add(float64(records))
	m.qualityScore.WithLabelValues(source).Set(score)
}

// SetFusionCoverage records the coverage of the last fusion.
func (m *Metrics) SetFusionCoverage(coverage float64) {
	if m == nil {
		return
	}
	m.fusionCoverage.Set(coverage)
}
