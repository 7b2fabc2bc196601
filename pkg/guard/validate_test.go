package guard

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/metricguard/pkg/catalog"
)

func validRequest() DecisionRequest {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return DecisionRequest{
		MetricID:        "revenue",
		DecisionType:    catalog.DecisionPricing,
		TimeRange:       TimeRange{Start: now.Add(-7 * 24 * time.Hour), End: now},
		SampleSize:      500,
		DataLastUpdated: now,
	}
}

func TestDecisionRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *DecisionRequest)
		wantField string
	}{
		{"valid", func(r *DecisionRequest) {}, ""},
		{"zero sample is valid", func(r *DecisionRequest) { r.SampleSize = 0 }, ""},
		{"negative sample", func(r *DecisionRequest) { r.SampleSize = -1 }, "sample_size"},
		{"empty metric", func(r *DecisionRequest) { r.MetricID = "  " }, "metric_id"},
		{"unknown decision", func(r *DecisionRequest) { r.DecisionType = "hiring" }, "decision_type"},
		{"end before start", func(r *DecisionRequest) {
			r.TimeRange.Start, r.TimeRange.End = r.TimeRange.End, r.TimeRange.Start
		}, "time_range"},
		{"comparison end before start", func(r *DecisionRequest) {
			r.ComparisonRange = &TimeRange{Start: r.TimeRange.End, End: r.TimeRange.Start}
		}, "comparison_range"},
		{"missing freshness", func(r *DecisionRequest) { r.DataLastUpdated = time.Time{} }, "data_last_updated"},
		{"contribution out of range", func(r *DecisionRequest) {
			r.Signals = &Signals{TopContribution: Float(1.5)}
		}, "signals.top_contribution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Errors[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Errors[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidationError_MultipleErrors(t *testing.T) {
	req := validRequest()
	req.SampleSize = -5
	req.MetricID = ""

	err := req.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("got %d errors, want 2", len(verr.Errors))
	}
}

func TestSignals_Resolve(t *testing.T) {
	var nilSignals *Signals
	got := nilSignals.Resolve()
	if got.HistoricalAvg != 1000 || got.ComparisonSampleSize != 150 || got.TopContribution != 0.40 {
		t.Errorf("nil Resolve() = %+v", got)
	}
	if len(got.SegmentChanges) != 2 || got.MetricTrend != 1 || got.OutcomeTrend != 1 {
		t.Errorf("nil Resolve() = %+v", got)
	}

	s := &Signals{HistoricalAvg: Float(300), OutcomeTrend: Float(-1), SegmentChanges: []float64{0.4}}
	got = s.Resolve()
	if got.HistoricalAvg != 300 || got.OutcomeTrend != -1 || got.SegmentChanges[0] != 0.4 {
		t.Errorf("Resolve() = %+v", got)
	}
	if got.TopContribution != 0.40 {
		t.Errorf("unset TopContribution = %v, want default 0.40", got.TopContribution)
	}
}
