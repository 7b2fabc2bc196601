package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/metricguard/pkg/config"
	"mercator-hq/metricguard/pkg/telemetry/health"
	"mercator-hq/metricguard/pkg/telemetry/logging"
	"mercator-hq/metricguard/pkg/telemetry/metrics"
	"mercator-hq/metricguard/pkg/telemetry/tracing"
)

// Telemetry bundles the observability components of a running service.
type Telemetry struct {
	config *config.TelemetryConfig
	info   health.VersionInfo

	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	health  *health.Checker
}

// New builds every telemetry component from cfg and installs the logger as
// the slog default. Disabled components are still constructed so callers
// never nil-check: the collector ignores updates and the tracer is a noop.
func New(cfg *config.TelemetryConfig, info health.VersionInfo) (*Telemetry, error) {
	logger, err := logging.Setup(logging.FromConfig(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tracer, err := tracing.New(&cfg.Tracing, info.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	return &Telemetry{
		config:  cfg,
		info:    info,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Metrics, registry),
		tracer:  tracer,
		health:  health.New(cfg.Health.CheckTimeout),
	}, nil
}

// Logger returns the service logger.
func (t *Telemetry) Logger() *slog.Logger { return t.logger }

// Metrics returns the Prometheus collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the span tracer.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the readiness checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Mount registers the metrics and health endpoints that are enabled.
func (t *Telemetry) Mount(mux *http.ServeMux) {
	if t.config.Metrics.Enabled {
		mux.Handle("GET "+t.config.Metrics.Path, t.metrics.Handler())
	}
	if t.config.Health.Enabled {
		health.Register(mux, t.config.Health, t.health, t.info)
	}
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if err := t.tracer.ForceFlush(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
