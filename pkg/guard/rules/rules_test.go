package rules

import (
	"strings"
	"testing"
	"time"

	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/guard"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func request(metric string, decision catalog.DecisionType, sample int, age time.Duration) *guard.DecisionRequest {
	return &guard.DecisionRequest{
		MetricID:        metric,
		DecisionType:    decision,
		TimeRange:       guard.TimeRange{Start: testNow.Add(-30 * 24 * time.Hour), End: testNow},
		SampleSize:      sample,
		DataLastUpdated: testNow.Add(-age),
	}
}

func outcomeByID(t *testing.T, outcomes []guard.RuleOutcome, id string) guard.RuleOutcome {
	t.Helper()
	for _, o := range outcomes {
		if o.RuleID == id {
			return o
		}
	}
	t.Fatalf("rule %s not found in outcomes", id)
	return guard.RuleOutcome{}
}

// TestRunAll_Order tests that every rule runs exactly once in declared order.
func TestRunAll_Order(t *testing.T) {
	outcomes := RunAll(request("revenue", catalog.DecisionPricing, 1000, time.Hour), catalog.NewDefaultCatalog(), testNow)

	want := []string{"A1", "A2", "B1", "B2", "C1", "C2", "D1", "D2"}
	if len(outcomes) != len(want) {
		t.Fatalf("RunAll() returned %d outcomes, want %d", len(outcomes), len(want))
	}
	for i, id := range want {
		if outcomes[i].RuleID != id {
			t.Errorf("outcomes[%d].RuleID = %s, want %s", i, outcomes[i].RuleID, id)
		}
		if outcomes[i].Status != guard.RulePass {
			t.Errorf("%s status = %s (%s), want pass", id, outcomes[i].Status, outcomes[i].Reason)
		}
		if outcomes[i].Reason != "" {
			t.Errorf("%s passed with reason %q", id, outcomes[i].Reason)
		}
	}
}

func TestRuleSet_Weights(t *testing.T) {
	want := map[string]float64{
		"A1": 0.30, "A2": 0.30, "B1": 0.25, "B2": 0.25,
		"C1": 0.25, "C2": 0.25, "D1": 0.20, "D2": 0.20,
	}
	for _, r := range All() {
		if r.Weight != want[r.ID] {
			t.Errorf("%s weight = %v, want %v", r.ID, r.Weight, want[r.ID])
		}
		if r.Weight <= 0 || r.Weight > 1 {
			t.Errorf("%s weight %v outside (0,1]", r.ID, r.Weight)
		}
	}
	if _, ok := Lookup("Z9"); ok {
		t.Error("Lookup(Z9) found, want miss")
	}
}

func TestDataFreshness(t *testing.T) {
	cat := catalog.NewDefaultCatalog()

	tests := []struct {
		name       string
		metric     string
		age        time.Duration
		wantStatus guard.RuleStatus
		wantReason string
	}{
		{"fresh", "revenue", 10 * time.Hour, guard.RulePass, ""},
		{"exactly at limit", "revenue", 36 * time.Hour, guard.RulePass, ""},
		{"stale daily metric", "revenue", 40 * time.Hour, guard.RuleFail, "Data is 40h old, exceeds 36h threshold"},
		{"weekly metric tolerates 10 days", "retention", 240 * time.Hour, guard.RulePass, ""},
		{"fast metric", "throughput", 20 * time.Hour, guard.RuleFail, "Data is 20h old, exceeds 18h threshold"},
		{"unknown metric uses 24h", "vibes", 37 * time.Hour, guard.RuleFail, "Data is 37h old, exceeds 36h threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes := RunAll(request(tt.metric, catalog.DecisionGrowth, 1000, tt.age), cat, testNow)
			got := outcomeByID(t, outcomes, "A1")
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestPartialData(t *testing.T) {
	cat := catalog.NewDefaultCatalog()

	req := request("revenue", catalog.DecisionPricing, 699, time.Hour)
	got := outcomeByID(t, RunAll(req, cat, testNow), "A2")
	if got.Status != guard.RuleFail {
		t.Fatalf("status = %s, want fail", got.Status)
	}
	if got.Reason != "Record count 699 is below 70% of historical average (1000)" {
		t.Errorf("reason = %q", got.Reason)
	}

	req.SampleSize = 700
	if got := outcomeByID(t, RunAll(req, cat, testNow), "A2"); got.Status != guard.RulePass {
		t.Errorf("700 of 1000: status = %s, want pass", got.Status)
	}

	req.SampleSize = 250
	req.Signals = &guard.Signals{HistoricalAvg: guard.Float(300)}
	if got := outcomeByID(t, RunAll(req, cat, testNow), "A2"); got.Status != guard.RulePass {
		t.Errorf("250 of 300: status = %s, want pass", got.Status)
	}
}

func TestMinimumSample(t *testing.T) {
	cat := catalog.NewDefaultCatalog()

	got := outcomeByID(t, RunAll(request("nps", catalog.DecisionProduct, 40, time.Hour), cat, testNow), "B1")
	if got.Status != guard.RuleFail || got.Reason != "Sample size 40 is below minimum threshold of 100" {
		t.Errorf("nps 40: %s %q", got.Status, got.Reason)
	}

	got = outcomeByID(t, RunAll(request("engagement", catalog.DecisionProduct, 499, time.Hour), cat, testNow), "B1")
	if got.Status != guard.RuleFail || !strings.Contains(got.Reason, "of 500") {
		t.Errorf("engagement 499: %s %q", got.Status, got.Reason)
	}

	got = outcomeByID(t, RunAll(request("vibes", catalog.DecisionProduct, 100, time.Hour), cat, testNow), "B1")
	if got.Status != guard.RulePass {
		t.Errorf("unknown metric at floor: %s", got.Status)
	}
}

func TestComparisonValidity(t *testing.T) {
	cat := catalog.NewDefaultCatalog()
	req := request("revenue", catalog.DecisionPricing, 1000, time.Hour)

	req.Signals = &guard.Signals{ComparisonSampleSize: guard.Int(10)}
	if got := outcomeByID(t, RunAll(req, cat, testNow), "B2"); got.Status != guard.RulePass {
		t.Errorf("no comparison range: status = %s, want pass", got.Status)
	}

	req.ComparisonRange = &guard.TimeRange{Start: testNow.Add(-60 * 24 * time.Hour), End: testNow.Add(-30 * 24 * time.Hour)}
	got := outcomeByID(t, RunAll(req, cat, testNow), "B2")
	if got.Status != guard.RuleWarn || got.Reason != "Comparison period sample size (10) may be insufficient" {
		t.Errorf("small comparison: %s %q", got.Status, got.Reason)
	}

	req.Signals = nil
	if got := outcomeByID(t, RunAll(req, cat, testNow), "B2"); got.Status != guard.RulePass {
		t.Errorf("default comparison sample: status = %s, want pass", got.Status)
	}
}

func TestBiasRules(t *testing.T) {
	cat := catalog.NewDefaultCatalog()
	req := request("revenue", catalog.DecisionPricing, 1000, time.Hour)
	req.Signals = &guard.Signals{
		TopContribution: guard.Float(0.72),
		SegmentChanges:  []float64{0.05, 0.31, -0.4},
	}

	outcomes := RunAll(req, cat, testNow)

	c1 := outcomeByID(t, outcomes, "C1")
	if c1.Status != guard.RuleWarn || c1.Reason != "Top 5 contributors account for 72% of metric value" {
		t.Errorf("C1: %s %q", c1.Status, c1.Reason)
	}

	c2 := outcomeByID(t, outcomes, "C2")
	if c2.Status != guard.RuleWarn || c2.Reason != "Segment composition changed by 31% vs baseline" {
		t.Errorf("C2: %s %q", c2.Status, c2.Reason)
	}

	req.Signals = &guard.Signals{TopContribution: guard.Float(0.60), SegmentChanges: []float64{0.25}}
	outcomes = RunAll(req, cat, testNow)
	if outcomeByID(t, outcomes, "C1").Status != guard.RulePass {
		t.Error("C1 at limit should pass")
	}
	if outcomeByID(t, outcomes, "C2").Status != guard.RulePass {
		t.Error("C2 at limit should pass")
	}
}

func TestVanityMetric(t *testing.T) {
	cat := catalog.NewDefaultCatalog()
	req := request("engagement", catalog.DecisionProduct, 1000, time.Hour)

	req.Signals = &guard.Signals{MetricTrend: guard.Float(0.2), OutcomeTrend: guard.Float(-0.1)}
	got := outcomeByID(t, RunAll(req, cat, testNow), "D1")
	if got.Status != guard.RuleWarn || got.Reason != "Metric improved while business outcome declined" {
		t.Errorf("D1: %s %q", got.Status, got.Reason)
	}

	req.Signals = &guard.Signals{MetricTrend: guard.Float(-0.2), OutcomeTrend: guard.Float(-0.1)}
	if got := outcomeByID(t, RunAll(req, cat, testNow), "D1"); got.Status != guard.RulePass {
		t.Errorf("both declining: status = %s, want pass", got.Status)
	}
}

func TestMetricDecisionMatch(t *testing.T) {
	cat := catalog.NewDefaultCatalog()

	got := outcomeByID(t, RunAll(request("revenue", catalog.DecisionProduct, 500, time.Hour), cat, testNow), "D2")
	if got.Status != guard.RuleFail {
		t.Fatalf("revenue/product: status = %s, want fail", got.Status)
	}
	if got.Reason != "revenue is NOT certified for product decisions. Allowed: pricing, growth" {
		t.Errorf("reason = %q", got.Reason)
	}

	got = outcomeByID(t, RunAll(request("Vibes", catalog.DecisionProduct, 500, time.Hour), cat, testNow), "D2")
	if got.Status != guard.RuleWarn {
		t.Fatalf("unknown metric: status = %s, want warn", got.Status)
	}
	if got.Reason != `Unknown metric "Vibes" - cannot verify suitability for product decisions` {
		t.Errorf("reason = %q", got.Reason)
	}

	got = outcomeByID(t, RunAll(request(" Revenue ", catalog.DecisionGrowth, 500, time.Hour), cat, testNow), "D2")
	if got.Status != guard.RulePass {
		t.Errorf("normalized revenue/growth: status = %s, want pass", got.Status)
	}
}

func TestEvaluator_CustomThresholds(t *testing.T) {
	e := NewEvaluator(Thresholds{ConcentrationLimit: 0.3})

	if e.Thresholds().FreshnessMultiplier != 1.5 {
		t.Errorf("unset multiplier = %v, want default 1.5", e.Thresholds().FreshnessMultiplier)
	}

	outcomes := e.Run(request("revenue", catalog.DecisionPricing, 1000, time.Hour), catalog.NewDefaultCatalog(), testNow)
	if got := outcomeByID(t, outcomes, "C1"); got.Status != guard.RuleWarn {
		t.Errorf("C1 with 0.3 limit and default 0.40 share: status = %s, want warn", got.Status)
	}
}
