package explain

import (
	"fmt"
	"math"

	"mercator-hq/metricguard/pkg/guard"
	"mercator-hq/metricguard/pkg/guard/aggregate"
)

const (
	consequenceReversal      = "Trend may reverse with more data"
	consequenceIncorrect     = "High probability of incorrect decision"
	consequenceConcentration = "Result driven by few large contributors"
	consequenceMismatch      = "Metric does not measure what this decision requires"
	consequenceStale         = "Reality may have already changed"
	consequenceLowRisk       = "Low risk - data quality verified"
)

// Risk builds the risk summary for an evaluated request.
//
// The confidence band is asymmetric: it extends 0.15 below the score and
// 0.10 above it.
func Risk(req *guard.DecisionRequest, outcomes []guard.RuleOutcome, confidence float64) guard.RiskSummary {
	_, warn, fail := aggregate.Counts(outcomes)

	level := guard.RiskLow
	switch {
	case fail > 0:
		level = guard.RiskCritical
	case warn > 1:
		level = guard.RiskHigh
	case warn == 1:
		level = guard.RiskMedium
	}

	notPassing := func(id string) bool {
		for _, o := range outcomes {
			if o.RuleID == id {
				return o.Status != guard.RulePass
			}
		}
		return false
	}

	consequences := []string{}
	if req.SampleSize < 100 {
		consequences = append(consequences, consequenceReversal)
	}
	if confidence < 0.5 {
		consequences = append(consequences, consequenceIncorrect)
	}
	if notPassing("C1") {
		consequences = append(consequences, consequenceConcentration)
	}
	if notPassing("D2") {
		consequences = append(consequences, consequenceMismatch)
	}
	if notPassing("A1") {
		consequences = append(consequences, consequenceStale)
	}
	if len(consequences) == 0 && confidence > 0.8 {
		consequences = append(consequences, consequenceLowRisk)
	}

	summary := guard.RiskSummary{
		Level: level,
		ConfidenceBand: guard.ConfidenceBand{
			Min: math.Max(0, confidence-0.15),
			Max: math.Min(1, confidence+0.10),
		},
		PotentialConsequences: consequences,
	}
	if req.SampleSize < 50 {
		summary.HistoricalContext = fmt.Sprintf(
			"Based on only %d records. Similar sparse-data decisions historically volatile.", req.SampleSize)
	}
	return summary
}
