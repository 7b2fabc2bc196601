package rules

// Thresholds are the numeric limits the guard rules compare against.
type Thresholds struct {
	// DefaultRefreshHours is the refresh interval assumed for metrics
	// missing from the catalog.
	// Default: 24
	DefaultRefreshHours float64 `yaml:"default_refresh_hours"`

	// FreshnessMultiplier scales the refresh interval into the staleness limit.
	// Default: 1.5
	FreshnessMultiplier float64 `yaml:"freshness_multiplier"`

	// PartialDataRatio is the fraction of the historical average below which
	// data is considered partially loaded.
	// Default: 0.7
	PartialDataRatio float64 `yaml:"partial_data_ratio"`

	// MinSampleFloor is the minimum sample for unknown metrics and for
	// comparison periods.
	// Default: 100
	MinSampleFloor int `yaml:"min_sample_floor"`

	// ConcentrationLimit is the top-contributor share above which results
	// are considered concentrated.
	// Default: 0.60
	ConcentrationLimit float64 `yaml:"concentration_limit"`

	// SegmentDriftLimit is the segment change ratio above which composition
	// is considered drifted.
	// Default: 0.25
	SegmentDriftLimit float64 `yaml:"segment_drift_limit"`
}

// DefaultThresholds returns the standard rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DefaultRefreshHours: 24,
		FreshnessMultiplier: 1.5,
		PartialDataRatio:    0.7,
		MinSampleFloor:      100,
		ConcentrationLimit:  0.60,
		SegmentDriftLimit:   0.25,
	}
}

// withDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.DefaultRefreshHours <= 0 {
		t.DefaultRefreshHours = d.DefaultRefreshHours
	}
	if t.FreshnessMultiplier <= 0 {
		t.FreshnessMultiplier = d.FreshnessMultiplier
	}
	if t.PartialDataRatio <= 0 {
		t.PartialDataRatio = d.PartialDataRatio
	}
	if t.MinSampleFloor <= 0 {
		t.MinSampleFloor = d.MinSampleFloor
	}
	if t.ConcentrationLimit <= 0 {
		t.ConcentrationLimit = d.ConcentrationLimit
	}
	if t.SegmentDriftLimit <= 0 {
		t.SegmentDriftLimit = d.SegmentDriftLimit
	}
	return t
}
