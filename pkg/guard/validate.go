package guard

import "strings"

// Validate checks the request for malformed input. It returns a
// *ValidationError listing every problem, or nil.
func (r *DecisionRequest) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(r.MetricID) == "" {
		verr.Add("metric_id", "metric identifier is required")
	}
	if !r.DecisionType.IsValid() {
		verr.Add("decision_type", "must be one of growth, pricing, marketing, operations, product")
	}
	if r.SampleSize < 0 {
		verr.Add("sample_size", "must be non-negative")
	}
	if r.TimeRange.End.Before(r.TimeRange.Start) {
		verr.Add("time_range", "end must not be before start")
	}
	if r.ComparisonRange != nil && r.ComparisonRange.End.Before(r.ComparisonRange.Start) {
		verr.Add("comparison_range", "end must not be before start")
	}
	if r.DataLastUpdated.IsZero() {
		verr.Add("data_last_updated", "timestamp is required")
	}

	if s := r.Signals; s != nil {
		if s.HistoricalAvg != nil && *s.HistoricalAvg < 0 {
			verr.Add("signals.historical_avg", "must be non-negative")
		}
		if s.ComparisonSampleSize != nil && *s.ComparisonSampleSize < 0 {
			verr.Add("signals.comparison_sample_size", "must be non-negative")
		}
		if s.TopContribution != nil && (*s.TopContribution < 0 || *s.TopContribution > 1) {
			verr.Add("signals.top_contribution", "must be between 0 and 1")
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
