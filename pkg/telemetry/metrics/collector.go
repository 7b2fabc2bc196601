package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/audit/recorder"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/config"
	"mercator-hq/metricguard/pkg/guard"
)

// OtherLabel replaces label values once the cardinality limit is reached.
const OtherLabel = "other"

// Collector is the main orchestrator for all Prometheus metrics in metricguard.
// It manages metric registration and provides a unified interface for
// recording metrics across all components.
//
// Collector satisfies decision.Metrics.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	decisionMetrics *DecisionMetrics
	auditMetrics    *AuditMetrics
	httpMetrics     *HTTPMetrics

	// metric_id values come from callers, so they are capped.
	metricLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "metricguard"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	c := &Collector{
		config:        cfg,
		registry:      registry,
		metricLimiter: NewCardinalityLimiter(1000),
	}

	c.decisionMetrics = NewDecisionMetrics(cfg, registry)
	c.auditMetrics = NewAuditMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	return c
}

// RecordEvaluation records a successful guard evaluation.
func (c *Collector) RecordEvaluation(decisionType catalog.DecisionType, metricID string, status guard.DecisionStatus, confidence float64, outcomes []guard.RuleOutcome, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.metricLimiter.Allow(metricID) {
		metricID = OtherLabel
	}
	c.decisionMetrics.RecordEvaluation(string(decisionType), metricID, string(status), confidence, duration)
	for _, o := range outcomes {
		c.decisionMetrics.RecordRule(o.RuleID, string(o.Status))
	}
}

// RecordOverride records an accepted override.
func (c *Collector) RecordOverride(decisionType catalog.DecisionType, originalConfidence, finalConfidence float64) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.RecordOverride(string(decisionType), originalConfidence-finalConfidence)
}

// RecordOutcome records an outcome label update.
func (c *Collector) RecordOutcome(outcome audit.OutcomeStatus) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.outcomesTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordRejection records a rejected lifecycle operation.
//
// Parameters:
//   - operation: "evaluate", "override" or "update_outcome"
//   - reason: "validation", "precondition", "not_found" or "internal"
func (c *Collector) RecordRejection(operation, reason string) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.rejectionsTotal.WithLabelValues(operation, reason).Inc()
}

// SetAuditLogSize updates the in-memory audit log size gauge.
func (c *Collector) SetAuditLogSize(n int) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.auditLogSize.Set(float64(n))
}

// RecordCatalogReload records a catalog file reload. It matches the
// signature of catalog.Watcher.OnReload.
func (c *Collector) RecordCatalogReload(count int, err error) {
	if !c.config.Enabled {
		return
	}
	c.auditMetrics.RecordCatalogReload(count, err)
}

// RecordPrune records a retention pruning run. It matches the signature of
// retention.Pruner.OnPrune.
func (c *Collector) RecordPrune(deleted int64, err error) {
	if !c.config.Enabled {
		return
	}
	c.auditMetrics.RecordPrune(deleted, err)
}

// SetCatalogSize records the size of the initially loaded catalog.
func (c *Collector) SetCatalogSize(count int) {
	if !c.config.Enabled {
		return
	}
	c.auditMetrics.SetCatalogSize(count)
}

// RegisterRecorder exposes archive recorder statistics. stats is called
// on every scrape.
func (c *Collector) RegisterRecorder(stats func() recorder.Stats) {
	c.auditMetrics.RegisterRecorder(c.config, c.registry, stats)
}

// RecordHTTPRequest records a served API request.
//
// Parameters:
//   - route: the matched route pattern, not the raw path
//   - method: HTTP method
//   - code: response status code
//   - duration: handling time
func (c *Collector) RecordHTTPRequest(route, method string, code int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordRequest(route, method, code, duration)
}

// RecordThrottled records an API request rejected by rate limiting, labelled
// "rate" or "concurrency".
func (c *Collector) RecordThrottled(reason string) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordThrottled(reason)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used. Values already seen are
// always allowed; new values are allowed until the limit is reached.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
