// Package logging configures structured logging on log/slog.
//
// # Usage
//
//	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging))
//
// Setup installs the logger as the slog default. Components keep using
// slog.Default().With("component", "...").
//
// # Context Fields
//
// The handler returned by New adds request_id, decision_id and metric_id
// from the context, plus trace_id and span_id when the context carries a
// valid span, to every record logged through a *Context method:
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "decision evaluated") // includes request_id
package logging
