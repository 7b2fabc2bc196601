// Package telemetry wires the observability stack of metricguard.
//
// # Components
//
//   - logging: slog with request, decision and trace fields from context
//   - metrics: Prometheus metrics for evaluations, overrides, outcomes,
//     the audit pipeline and the HTTP API
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, health.VersionInfo{Version: version})
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tel.Health().RegisterCheck("catalog", health.CatalogCheck(cat))
//	tel.Mount(mux)
//
//	lc := decision.New(cat, log,
//	    decision.WithMetrics(tel.Metrics()),
//	    decision.WithTracer(tel.Tracer().Tracer()),
//	)
package telemetry
