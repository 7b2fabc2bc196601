package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mercator-hq/metricguard/pkg/guard"
)

// DataFreshness fails when the data is older than the metric's refresh
// interval scaled by the freshness multiplier.
func DataFreshness(in *Input) (guard.RuleStatus, string) {
	expected := in.Thresholds.DefaultRefreshHours
	if in.Metric != nil && in.Metric.RefreshHours > 0 {
		expected = float64(in.Metric.RefreshHours)
	}
	limit := expected * in.Thresholds.FreshnessMultiplier

	age := in.Now.Sub(in.Request.DataLastUpdated).Hours()
	if age <= limit {
		return guard.RulePass, ""
	}
	return guard.RuleFail, fmt.Sprintf("Data is %dh old, exceeds %sh threshold", roundHalfUp(age), formatNumber(limit))
}

// PartialData fails when the sample is well below the historical average,
// which usually means ingestion is incomplete.
func PartialData(in *Input) (guard.RuleStatus, string) {
	avg := in.Signals.HistoricalAvg
	if float64(in.Request.SampleSize) >= avg*in.Thresholds.PartialDataRatio {
		return guard.RulePass, ""
	}
	return guard.RuleFail, fmt.Sprintf("Record count %d is below %d%% of historical average (%s)",
		in.Request.SampleSize, roundHalfUp(in.Thresholds.PartialDataRatio*100), formatNumber(avg))
}

// MinimumSample fails when the sample is below the metric's catalog minimum.
func MinimumSample(in *Input) (guard.RuleStatus, string) {
	minimum := in.Thresholds.MinSampleFloor
	if in.Metric != nil && in.Metric.MinSampleSize > 0 {
		minimum = in.Metric.MinSampleSize
	}
	if in.Request.SampleSize >= minimum {
		return guard.RulePass, ""
	}
	return guard.RuleFail, fmt.Sprintf("Sample size %d is below minimum threshold of %d", in.Request.SampleSize, minimum)
}

// ComparisonValidity warns when a comparison period was requested but its
// sample is below the global floor. Without a comparison period it passes.
func ComparisonValidity(in *Input) (guard.RuleStatus, string) {
	if in.Request.ComparisonRange == nil {
		return guard.RulePass, ""
	}
	size := in.Signals.ComparisonSampleSize
	if size >= in.Thresholds.MinSampleFloor {
		return guard.RulePass, ""
	}
	return guard.RuleWarn, fmt.Sprintf("Comparison period sample size (%d) may be insufficient", size)
}

// ContributorConcentration warns when a handful of contributors dominate
// the metric value.
func ContributorConcentration(in *Input) (guard.RuleStatus, string) {
	share := in.Signals.TopContribution
	if share <= in.Thresholds.ConcentrationLimit {
		return guard.RulePass, ""
	}
	return guard.RuleWarn, fmt.Sprintf("Top 5 contributors account for %d%% of metric value", roundHalfUp(share*100))
}

// SegmentDrift warns when any segment's share moved too far from baseline.
func SegmentDrift(in *Input) (guard.RuleStatus, string) {
	if len(in.Signals.SegmentChanges) == 0 {
		return guard.RulePass, ""
	}
	maxChange := in.Signals.SegmentChanges[0]
	for _, c := range in.Signals.SegmentChanges[1:] {
		maxChange = math.Max(maxChange, c)
	}
	if maxChange <= in.Thresholds.SegmentDriftLimit {
		return guard.RulePass, ""
	}
	return guard.RuleWarn, fmt.Sprintf("Segment composition changed by %d%% vs baseline", roundHalfUp(maxChange*100))
}

// VanityMetric warns when the metric improves while the outcome it is
// supposed to predict gets worse.
func VanityMetric(in *Input) (guard.RuleStatus, string) {
	if in.Signals.MetricTrend > 0 && in.Signals.OutcomeTrend < 0 {
		return guard.RuleWarn, "Metric improved while business outcome declined"
	}
	return guard.RulePass, ""
}

// MetricDecisionMatch fails when a known metric is not certified for the
// requested decision class. An unknown metric only warns, since missing
// certification data is not the same as known non-certification.
func MetricDecisionMatch(in *Input) (guard.RuleStatus, string) {
	req := in.Request
	if in.Metric == nil {
		return guard.RuleWarn, fmt.Sprintf("Unknown metric %q - cannot verify suitability for %s decisions",
			req.MetricID, req.DecisionType)
	}
	if in.Metric.Allows(req.DecisionType) {
		return guard.RulePass, ""
	}

	allowed := make([]string, len(in.Metric.AllowedDecisions))
	for i, d := range in.Metric.AllowedDecisions {
		allowed[i] = string(d)
	}
	return guard.RuleFail, fmt.Sprintf("%s is NOT certified for %s decisions. Allowed: %s",
		req.MetricID, req.DecisionType, strings.Join(allowed, ", "))
}

// roundHalfUp rounds to the nearest integer, halves toward positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// formatNumber renders a float without trailing zeros or exponent.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
