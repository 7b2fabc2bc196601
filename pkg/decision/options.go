package decision

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/guard"
	"mercator-hq/metricguard/pkg/guard/rules"
)

// Metrics receives lifecycle observations. The Prometheus collector in
// telemetry/metrics implements it.
type Metrics interface {
	RecordEvaluation(decisionType catalog.DecisionType, metricID string, status guard.DecisionStatus, confidence float64, outcomes []guard.RuleOutcome, duration time.Duration)
	RecordOverride(decisionType catalog.DecisionType, originalConfidence, finalConfidence float64)
	RecordOutcome(outcome audit.OutcomeStatus)
	RecordRejection(operation, reason string)
	SetAuditLogSize(n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordEvaluation(catalog.DecisionType, string, guard.DecisionStatus, float64, []guard.RuleOutcome, time.Duration) {
}

func (noopMetrics) RecordOverride(catalog.DecisionType, float64, float64) {}

func (noopMetrics) RecordOutcome(audit.OutcomeStatus) {}

func (noopMetrics) RecordRejection(string, string) {}

func (noopMetrics) SetAuditLogSize(int) {}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithRecorder mirrors lifecycle events to sink.
func WithRecorder(sink audit.Sink) Option {
	return func(l *Lifecycle) {
		l.sink = sink
	}
}

// WithMetrics reports lifecycle observations to m.
func WithMetrics(m Metrics) Option {
	return func(l *Lifecycle) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithTracer creates spans for lifecycle operations.
func WithTracer(t trace.Tracer) Option {
	return func(l *Lifecycle) {
		if t != nil {
			l.tracer = t
		}
	}
}

// WithClock replaces time.Now. Timestamps are always stored in UTC.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator replaces the UUID v4 generator for decision IDs.
func WithIDGenerator(gen func() string) Option {
	return func(l *Lifecycle) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// WithThresholds overrides the rule thresholds.
func WithThresholds(t rules.Thresholds) Option {
	return func(l *Lifecycle) {
		l.evaluator = rules.NewEvaluator(t)
	}
}

// WithLogger replaces the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func defaults(l *Lifecycle) {
	l.evaluator = rules.NewEvaluator(rules.DefaultThresholds())
	l.metrics = noopMetrics{}
	l.tracer = noop.NewTracerProvider().Tracer("")
	l.now = time.Now
	l.newID = uuid.NewString
	l.logger = slog.Default().With("component", "decision")
}
