// Package aggregate combines guard rule outcomes into a confidence score and
// a decision status.
//
// Each outcome scores 1.0 for pass, 0.5 for warn and 0.0 for fail. The
// confidence is the weight-normalized average of those scores. Status follows
// a strict priority chain: any fail blocks, then any warn (or confidence
// below AllowThreshold) warns, otherwise the decision is allowed.
package aggregate

import "mercator-hq/metricguard/pkg/guard"

// AllowThreshold is the minimum confidence for an ALLOW status.
const AllowThreshold = 0.70

// RuleScore returns the numeric score for a rule status.
func RuleScore(s guard.RuleStatus) float64 {
	switch s {
	case guard.RulePass:
		return 1.0
	case guard.RuleWarn:
		return 0.5
	default:
		return 0.0
	}
}

// Contribution returns the weighted score a single outcome adds to the
// confidence numerator.
func Contribution(o guard.RuleOutcome) float64 {
	return o.Weight * RuleScore(o.Status)
}

// Score returns the weight-normalized confidence in [0, 1]. It returns 0 when
// no outcomes (or no positive weight) are supplied.
func Score(outcomes []guard.RuleOutcome) float64 {
	var total, weighted float64
	for _, o := range outcomes {
		if o.Weight <= 0 {
			continue
		}
		total += o.Weight
		weighted += Contribution(o)
	}
	if total == 0 {
		return 0
	}
	return clamp(weighted / total)
}

// Status derives the decision status from the outcomes and confidence.
// It never returns guard.StatusOverridden.
func Status(outcomes []guard.RuleOutcome, confidence float64) guard.DecisionStatus {
	hasWarn := false
	for _, o := range outcomes {
		switch o.Status {
		case guard.RuleFail:
			return guard.StatusBlock
		case guard.RuleWarn:
			hasWarn = true
		}
	}
	if hasWarn || confidence < AllowThreshold {
		return guard.StatusWarn
	}
	return guard.StatusAllow
}

// Counts tallies outcomes by status.
func Counts(outcomes []guard.RuleOutcome) (pass, warn, fail int) {
	for _, o := range outcomes {
		switch o.Status {
		case guard.RulePass:
			pass++
		case guard.RuleWarn:
			warn++
		case guard.RuleFail:
			fail++
		}
	}
	return pass, warn, fail
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
