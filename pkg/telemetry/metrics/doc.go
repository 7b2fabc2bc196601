// Package metrics provides Prometheus metrics collection for metricguard.
//
// # Metrics Categories
//
//   - Decision Metrics: evaluations, rule verdicts, confidence, overrides,
//     outcomes, rejections and the audit log size
//   - Audit Metrics: archive recorder counters, retention pruning and
//     catalog reloads
//   - HTTP Metrics: API request counts and latency by route
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	lc := decision.New(cat, log, decision.WithMetrics(collector))
//	watcher.OnReload(collector.RecordCatalogReload)
//	pruner.OnPrune(collector.RecordPrune)
//	collector.RegisterRecorder(rec.Stats)
//
//	mux.Handle("/metrics", collector.Handler())
//
// # Cardinality
//
// Metric IDs are caller supplied, so the metric_id label is capped by a
// CardinalityLimiter. Values beyond the cap are reported as "other".
// HTTP requests are labelled by route pattern, never by raw path.
//
// # Disabled Collection
//
// When MetricsConfig.Enabled is false every Record method is a no-op, but
// metrics are still registered so the handler serves a stable schema.
package metrics
