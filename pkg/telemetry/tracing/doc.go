// Package tracing provides OpenTelemetry distributed tracing for metricguard.
//
// Spans are exported over OTLP gRPC. When tracing is disabled a noop tracer
// is returned, so callers never need to nil-check.
//
// # Spans
//
//   - HTTP requests: one server span per request, named by route pattern
//   - decision.evaluate, decision.override, decision.update_outcome: created
//     by the decision lifecycle from Tracer.Tracer()
//
// # Trace Context Propagation
//
// Inbound requests carrying a W3C traceparent header continue the caller's
// trace. The server echoes the trace ID in the X-Trace-ID response header.
//
// # Sampling Strategies
//
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a percentage of traces (production)
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version.Version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	lc := decision.New(cat, log, decision.WithTracer(tracer.Tracer()))
package tracing
