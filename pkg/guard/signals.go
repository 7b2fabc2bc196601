package guard

// Signals holds optional statistics supplied by an analytics backend.
// Any nil field falls back to its default when resolved.
type Signals struct {
	// HistoricalAvg is the typical record count for a comparable period.
	// Default: 1000
	HistoricalAvg *float64 `json:"historical_avg,omitempty"`

	// ComparisonSampleSize is the record count of the comparison period.
	// Default: 150
	ComparisonSampleSize *int `json:"comparison_sample_size,omitempty"`

	// TopContribution is the share of the metric value produced by the top
	// five contributors, in [0, 1].
	// Default: 0.40
	TopContribution *float64 `json:"top_contribution,omitempty"`

	// SegmentChanges are per-segment composition change ratios vs baseline.
	// Default: [0.10, 0.15]
	SegmentChanges []float64 `json:"segment_changes,omitempty"`

	// MetricTrend is the direction of the metric (positive means improving).
	// Default: 1
	MetricTrend *float64 `json:"metric_trend,omitempty"`

	// OutcomeTrend is the direction of the business outcome.
	// Default: 1
	OutcomeTrend *float64 `json:"outcome_trend,omitempty"`
}

// ResolvedSignals is Signals with every default applied.
type ResolvedSignals struct {
	HistoricalAvg        float64
	ComparisonSampleSize int
	TopContribution      float64
	SegmentChanges       []float64
	MetricTrend          float64
	OutcomeTrend         float64
}

// DefaultSignals returns the values used when no signal is supplied.
func DefaultSignals() ResolvedSignals {
	return ResolvedSignals{
		HistoricalAvg:        1000,
		ComparisonSampleSize: 150,
		TopContribution:      0.40,
		SegmentChanges:       []float64{0.10, 0.15},
		MetricTrend:          1,
		OutcomeTrend:         1,
	}
}

// Resolve applies defaults to every absent field. A nil receiver resolves
// to DefaultSignals.
func (s *Signals) Resolve() ResolvedSignals {
	r := DefaultSignals()
	if s == nil {
		return r
	}
	if s.HistoricalAvg != nil {
		r.HistoricalAvg = *s.HistoricalAvg
	}
	if s.ComparisonSampleSize != nil {
		r.ComparisonSampleSize = *s.ComparisonSampleSize
	}
	if s.TopContribution != nil {
		r.TopContribution = *s.TopContribution
	}
	if len(s.SegmentChanges) > 0 {
		r.SegmentChanges = append([]float64(nil), s.SegmentChanges...)
	}
	if s.MetricTrend != nil {
		r.MetricTrend = *s.MetricTrend
	}
	if s.OutcomeTrend != nil {
		r.OutcomeTrend = *s.OutcomeTrend
	}
	return r
}

// Float returns a pointer to v, for building Signals literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Signals literals.
func Int(v int) *int { return &v }
