package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/metricguard/pkg/audit/recorder"
	"mercator-hq/metricguard/pkg/config"
)

// AuditMetrics tracks the audit archive, retention and the catalog.
//
// Metrics:
//   - metricguard_audit_prune_runs_total: pruning runs by result
//   - metricguard_audit_pruned_records_total: archive records deleted by retention
//   - metricguard_audit_recorder_*: archive recorder counters, read on scrape
//   - metricguard_catalog_reloads_total: catalog file reloads by result
//   - metricguard_catalog_metrics: metrics defined by the last good reload
type AuditMetrics struct {
	pruneRuns      *prometheus.CounterVec
	prunedRecords  prometheus.Counter
	catalogReloads *prometheus.CounterVec
	catalogMetrics prometheus.Gauge

	recorderOnce sync.Once
}

// NewAuditMetrics creates and registers audit metrics with the provided registry.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		pruneRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      "prune_runs_total",
				Help:      "Total number of retention pruning runs",
			},
			[]string{"result"},
		),

		prunedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      "pruned_records_total",
				Help:      "Total number of archived records deleted by retention",
			},
		),

		catalogReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "reloads_total",
				Help:      "Total number of catalog file reloads",
			},
			[]string{"result"},
		),

		catalogMetrics: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "catalog",
				Name:      "metrics",
				Help:      "Number of metric definitions in the active catalog",
			},
		),
	}

	registry.MustRegister(am.pruneRuns, am.prunedRecords, am.catalogReloads, am.catalogMetrics)

	return am
}

// RecordPrune records one pruning run.
func (am *AuditMetrics) RecordPrune(deleted int64, err error) {
	if err != nil {
		am.pruneRuns.WithLabelValues("error").Inc()
	} else {
		am.pruneRuns.WithLabelValues("success").Inc()
	}
	if deleted > 0 {
		am.prunedRecords.Add(float64(deleted))
	}
}

// RecordCatalogReload records one catalog reload. A failed reload leaves
// the definitions gauge unchanged.
func (am *AuditMetrics) RecordCatalogReload(count int, err error) {
	if err != nil {
		am.catalogReloads.WithLabelValues("error").Inc()
		return
	}
	am.catalogReloads.WithLabelValues("success").Inc()
	am.catalogMetrics.Set(float64(count))
}

// SetCatalogSize sets the definitions gauge directly, for the initial load.
func (am *AuditMetrics) SetCatalogSize(count int) {
	am.catalogMetrics.Set(float64(count))
}

// RegisterRecorder registers scrape-time recorder metrics. Only the first
// call has any effect.
func (am *AuditMetrics) RegisterRecorder(cfg *config.MetricsConfig, registry *prometheus.Registry, stats func() recorder.Stats) {
	am.recorderOnce.Do(func() {
		opts := func(name, help string) prometheus.CounterOpts {
			return prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      name,
				Help:      help,
			}
		}
		registry.MustRegister(
			prometheus.NewCounterFunc(opts("recorder_written_total", "Records written to the archive"), func() float64 {
				return float64(stats().Written)
			}),
			prometheus.NewCounterFunc(opts("recorder_failed_total", "Archive writes that failed"), func() float64 {
				return float64(stats().Failed)
			}),
			prometheus.NewCounterFunc(opts("recorder_dropped_total", "Events dropped because the buffer was full"), func() float64 {
				return float64(stats().Dropped)
			}),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "audit",
				Name:      "recorder_pending",
				Help:      "Events waiting to be written to the archive",
			}, func() float64 {
				return float64(stats().Pending)
			}),
		)
	})
}
