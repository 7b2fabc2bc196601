package catalog

import (
	"fmt"
	"slices"
)

// Certify builds the certification summary for a metric.
//
// The score is the fraction of decision classes the metric is certified for.
// Unknown metrics are unsafe for every class and score zero.
func Certify(cat Catalog, metricID string) Certification {
	all := AllDecisionTypes()

	def, ok := cat.Get(metricID)
	if !ok {
		return Certification{
			MetricID:           NormalizeID(metricID),
			CertifiedFor:       []DecisionType{},
			UnsafeFor:          all,
			CertificationScore: 0,
			Warnings:           []string{"Unknown metric - cannot certify"},
		}
	}

	certified := make([]DecisionType, 0, len(def.AllowedDecisions))
	for _, d := range def.AllowedDecisions {
		if d.IsValid() && !slices.Contains(certified, d) {
			certified = append(certified, d)
		}
	}

	unsafe := make([]DecisionType, 0, len(all))
	for _, d := range all {
		if !def.Allows(d) {
			unsafe = append(unsafe, d)
		}
	}

	warnings := []string{}
	if def.MinSampleSize > 100 {
		warnings = append(warnings, fmt.Sprintf("Requires %d+ samples for validity", def.MinSampleSize))
	}
	if def.RefreshHours > 24 {
		warnings = append(warnings, fmt.Sprintf("Slow refresh rate (%dh) - may lag reality", def.RefreshHours))
	}

	return Certification{
		MetricID:           def.ID,
		Known:              true,
		CertifiedFor:       certified,
		UnsafeFor:          unsafe,
		MinSampleSize:      def.MinSampleSize,
		RefreshHours:       def.RefreshHours,
		CertificationScore: float64(len(certified)) / float64(len(all)),
		Warnings:           warnings,
	}
}
