package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/metricguard/pkg/config"
)

// DecisionMetrics tracks the decision lifecycle.
//
// Metrics:
//   - metricguard_decision_evaluations_total: evaluations by decision type, metric and status
//   - metricguard_decision_evaluation_duration_seconds: guard evaluation latency
//   - metricguard_decision_confidence: aggregated confidence by decision type
//   - metricguard_decision_rule_results_total: rule verdicts by rule and status
//   - metricguard_decision_overrides_total: accepted overrides by decision type
//   - metricguard_decision_override_confidence_drop: confidence lost to overrides
//   - metricguard_decision_outcomes_total: outcome labels recorded
//   - metricguard_decision_rejections_total: rejected operations by reason
//   - metricguard_decision_audit_log_size: records in the in-memory audit log
type DecisionMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	confidence         *prometheus.HistogramVec
	ruleResultsTotal   *prometheus.CounterVec
	overridesTotal     *prometheus.CounterVec
	overrideDrop       prometheus.Histogram
	outcomesTotal      *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
	auditLogSize       prometheus.Gauge
}

// NewDecisionMetrics creates and registers decision metrics with the provided registry.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	const subsystem = "decision"

	dm := &DecisionMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of guard evaluations",
			},
			[]string{"decision_type", "metric_id", "status"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of guard evaluations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"decision_type"},
		),

		confidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "confidence",
				Help:      "Aggregated confidence of evaluated decisions",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"decision_type"},
		),

		ruleResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "rule_results_total",
				Help:      "Rule verdicts by rule id and status",
			},
			[]string{"rule_id", "status"},
		),

		overridesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "overrides_total",
				Help:      "Total number of accepted overrides",
			},
			[]string{"decision_type"},
		),

		overrideDrop: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "override_confidence_drop",
				Help:      "Confidence removed when a warning is overridden",
				Buckets:   []float64{0, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5},
			},
		),

		outcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "outcomes_total",
				Help:      "Total number of outcome labels recorded",
			},
			[]string{"outcome"},
		),

		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "rejections_total",
				Help:      "Total number of rejected lifecycle operations",
			},
			[]string{"operation", "reason"},
		),

		auditLogSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "audit_log_size",
				Help:      "Number of records held by the in-memory audit log",
			},
		),
	}

	registry.MustRegister(
		dm.evaluationsTotal,
		dm.evaluationDuration,
		dm.confidence,
		dm.ruleResultsTotal,
		dm.overridesTotal,
		dm.overrideDrop,
		dm.outcomesTotal,
		dm.rejectionsTotal,
		dm.auditLogSize,
	)

	return dm
}

// RecordEvaluation records one evaluation.
func (dm *DecisionMetrics) RecordEvaluation(decisionType, metricID, status string, confidence float64, duration time.Duration) {
	dm.evaluationsTotal.WithLabelValues(decisionType, metricID, status).Inc()
	dm.evaluationDuration.WithLabelValues(decisionType).Observe(duration.Seconds())
	dm.confidence.WithLabelValues(decisionType).Observe(confidence)
}

// RecordRule records one rule verdict.
func (dm *DecisionMetrics) RecordRule(ruleID, status string) {
	dm.ruleResultsTotal.WithLabelValues(ruleID, status).Inc()
}

// RecordOverride records one override and the confidence it removed.
func (dm *DecisionMetrics) RecordOverride(decisionType string, drop float64) {
	dm.overridesTotal.WithLabelValues(decisionType).Inc()
	dm.overrideDrop.Observe(drop)
}
