package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// DecisionIDKey is the context key for audit record IDs.
	DecisionIDKey contextKey = "decision_id"

	// MetricKey is the context key for the metric being evaluated.
	MetricKey contextKey = "metric_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithDecisionID adds an audit record ID to the context.
func WithDecisionID(ctx context.Context, decisionID string) context.Context {
	return context.WithValue(ctx, DecisionIDKey, decisionID)
}

// GetDecisionID retrieves the audit record ID from the context.
func GetDecisionID(ctx context.Context) string {
	if id, ok := ctx.Value(DecisionIDKey).(string); ok {
		return id
	}
	return ""
}

// WithMetric adds a metric ID to the context.
func WithMetric(ctx context.Context, metricID string) context.Context {
	return context.WithValue(ctx, MetricKey, metricID)
}

// GetMetric retrieves the metric ID from the context.
func GetMetric(ctx context.Context) string {
	if id, ok := ctx.Value(MetricKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns the default logger with the context's fields attached,
// for code paths that log without a context.
func FromContext(ctx context.Context) *slog.Logger {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return slog.Default()
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return slog.Default().With(args...)
}

// contextAttrs extracts the known fields from ctx, including the active
// trace and span IDs when the context carries a valid span.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if v := GetRequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), v))
	}
	if v := GetDecisionID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(DecisionIDKey), v))
	}
	if v := GetMetric(ctx); v != "" {
		attrs = append(attrs, slog.String(string(MetricKey), v))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return attrs
}
