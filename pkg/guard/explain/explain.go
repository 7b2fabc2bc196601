// Package explain turns guard rule outcomes into human-readable rationale:
// an explanation, a suggested action and a risk summary.
package explain

import (
	"fmt"
	"math"
	"strings"

	"mercator-hq/metricguard/pkg/guard"
)

const (
	allowExplanation = "All guard checks passed. Data quality and statistical validity confirmed."

	suggestCertifiedMetric = "Select a metric certified for this decision type."
	suggestFreshData       = "Wait for fresh data ingestion."
	suggestMoreData        = "Collect more data or extend the time range."
	suggestJustify         = "Override requires written justification."
	suggestProceed         = "Proceed with confidence."

	// OverrideSuggestedAction is the suggested action attached to an
	// overridden decision.
	OverrideSuggestedAction = "Decision logged for permanent audit. Risk accepted by user."
)

// Explain returns the explanation for a status. BLOCK lists the reasons of
// failing rules, WARN the reasons of warning rules.
func Explain(status guard.DecisionStatus, outcomes []guard.RuleOutcome) string {
	switch status {
	case guard.StatusBlock:
		return "Decision blocked: " + joinReasons(outcomes, guard.RuleFail)
	case guard.StatusWarn:
		return "Proceed with caution: " + joinReasons(outcomes, guard.RuleWarn)
	default:
		return allowExplanation
	}
}

// Suggest returns the remediation hint for a status. For BLOCK the failing
// categories are checked in priority order metric misuse, data integrity,
// sample size.
func Suggest(status guard.DecisionStatus, outcomes []guard.RuleOutcome) string {
	if status == guard.StatusBlock {
		failed := make(map[guard.RuleCategory]bool)
		for _, o := range outcomes {
			if o.Status == guard.RuleFail {
				failed[o.Category] = true
			}
		}
		switch {
		case failed[guard.CategoryMetricMisuse]:
			return suggestCertifiedMetric
		case failed[guard.CategoryDataIntegrity]:
			return suggestFreshData
		case failed[guard.CategorySampleSize]:
			return suggestMoreData
		}
	}

	if status == guard.StatusWarn {
		return suggestJustify
	}
	return suggestProceed
}

// OverrideExplanation describes the confidence penalty applied by an override.
func OverrideExplanation(original, final float64) string {
	return fmt.Sprintf("Warning overridden. Confidence reduced from %d%% to %d%% (capped at 45%%).",
		percent(original), percent(final))
}

func joinReasons(outcomes []guard.RuleOutcome, status guard.RuleStatus) string {
	reasons := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status == status {
			reasons = append(reasons, o.Reason)
		}
	}
	return strings.Join(reasons, "; ")
}

func percent(v float64) int {
	return int(math.Floor(v*100 + 0.5))
}
