package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/audit/recorder"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/config"
	"mercator-hq/metricguard/pkg/guard"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		DurationBuckets: []float64{0.001, 0.01, 0.1},
	}
}

// TestCollector_NewCollector tests collector creation
func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

// TestCollector_RecordEvaluation tests evaluation and rule recording
func TestCollector_RecordEvaluation(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	outcomes := []guard.RuleOutcome{
		{RuleID: "A1", Status: guard.RulePass},
		{RuleID: "C1", Status: guard.RuleWarn},
	}
	collector.RecordEvaluation(catalog.DecisionPricing, "revenue", guard.StatusWarn, 0.65, outcomes, 2*time.Millisecond)
	collector.RecordEvaluation(catalog.DecisionPricing, "revenue", guard.StatusWarn, 0.70, outcomes, time.Millisecond)

	dm := collector.decisionMetrics
	if got := testutil.ToFloat64(dm.evaluationsTotal.WithLabelValues("pricing", "revenue", "WARN")); got != 2 {
		t.Errorf("evaluations_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(dm.ruleResultsTotal.WithLabelValues("C1", "warn")); got != 2 {
		t.Errorf("rule_results_total{C1,warn} = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(dm.confidence); got != 1 {
		t.Errorf("confidence series = %d, want 1", got)
	}
}

// TestCollector_MetricCardinality tests that metric ids beyond the cap
// collapse into one label.
func TestCollector_MetricCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.metricLimiter = NewCardinalityLimiter(2)

	for _, id := range []string{"a", "b", "c", "d"} {
		collector.RecordEvaluation(catalog.DecisionGrowth, id, guard.StatusAllow, 0.9, nil, time.Millisecond)
	}

	got := testutil.ToFloat64(collector.decisionMetrics.evaluationsTotal.WithLabelValues("growth", OtherLabel, "ALLOW"))
	if got != 2 {
		t.Errorf("evaluations_total{metric_id=other} = %v, want 2", got)
	}
}

func TestCollector_LifecycleEvents(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordOverride(catalog.DecisionGrowth, 0.65, 0.45)
	collector.RecordOutcome(audit.OutcomePositive)
	collector.RecordRejection("override", "precondition")
	collector.SetAuditLogSize(42)

	dm := collector.decisionMetrics
	if got := testutil.ToFloat64(dm.overridesTotal.WithLabelValues("growth")); got != 1 {
		t.Errorf("overrides_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(dm.outcomesTotal.WithLabelValues(string(audit.OutcomePositive))); got != 1 {
		t.Errorf("outcomes_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(dm.rejectionsTotal.WithLabelValues("override", "precondition")); got != 1 {
		t.Errorf("rejections_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(dm.auditLogSize); got != 42 {
		t.Errorf("audit_log_size = %v, want 42", got)
	}
}

func TestCollector_AuditEvents(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.SetCatalogSize(18)
	collector.RecordCatalogReload(20, nil)
	collector.RecordCatalogReload(0, errors.New("bad yaml"))
	collector.RecordPrune(5, nil)
	collector.RecordPrune(0, errors.New("locked"))

	am := collector.auditMetrics
	if got := testutil.ToFloat64(am.catalogMetrics); got != 20 {
		t.Errorf("catalog_metrics = %v, want 20 (failed reload keeps last value)", got)
	}
	if got := testutil.ToFloat64(am.catalogReloads.WithLabelValues("error")); got != 1 {
		t.Errorf("reloads_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(am.prunedRecords); got != 5 {
		t.Errorf("pruned_records_total = %v, want 5", got)
	}
	if got := testutil.ToFloat64(am.pruneRuns.WithLabelValues("error")); got != 1 {
		t.Errorf("prune_runs_total{error} = %v, want 1", got)
	}
}

func TestCollector_RegisterRecorder(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	stats := recorder.Stats{Written: 7, Failed: 1, Dropped: 2, Pending: 3}
	collector.RegisterRecorder(func() recorder.Stats { return stats })
	// Second registration is ignored rather than panicking.
	collector.RegisterRecorder(func() recorder.Stats { return recorder.Stats{} })

	expected := `
# HELP test_audit_recorder_written_total Records written to the archive
# TYPE test_audit_recorder_written_total counter
test_audit_recorder_written_total 7
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "test_audit_recorder_written_total"); err != nil {
		t.Error(err)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordEvaluation(catalog.DecisionGrowth, "revenue", guard.StatusAllow, 0.9, nil, time.Millisecond)
	collector.RecordHTTPRequest("GET /health", http.MethodGet, 200, time.Millisecond)

	if got := testutil.ToFloat64(collector.decisionMetrics.evaluationsTotal.WithLabelValues("growth", "revenue", "ALLOW")); got != 0 {
		t.Errorf("evaluations_total = %v, want 0 when disabled", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordHTTPRequest("POST /v1/decisions", http.MethodPost, 201, 5*time.Millisecond)
	collector.RecordHTTPRequest("", http.MethodGet, 404, time.Millisecond)
	collector.RecordThrottled("rate")

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`test_http_requests_total{code="201",method="POST",route="POST /v1/decisions"} 1`,
		`route="unmatched"`,
		`test_http_throttled_total{reason="rate"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("first two values should be allowed")
	}
	if cl.Allow("c") {
		t.Error("third value should be rejected")
	}
	if !cl.Allow("a") {
		t.Error("known value should stay allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cl.Count())
	}
}
