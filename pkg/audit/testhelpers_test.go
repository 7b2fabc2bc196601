package audit

import (
	"fmt"
	"time"

	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/guard"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func makeRecord(i int, status guard.DecisionStatus) *Record {
	ts := baseTime.Add(time.Duration(i) * time.Minute)
	return &Record{
		DecisionID:   fmt.Sprintf("rec-%03d", i),
		Timestamp:    ts,
		DecisionType: catalog.DecisionPricing,
		MetricID:     "revenue",
		Input: InputContext{
			TimeRange:       guard.TimeRange{Start: ts.Add(-24 * time.Hour), End: ts},
			SampleSize:      500,
			DataLastUpdated: ts.Add(-time.Hour),
			Signals:         &guard.Signals{HistoricalAvg: guard.Float(600)},
		},
		Evaluation: Evaluation{
			TriggeredRules: []string{},
			RuleResults: []RuleResult{
				{RuleOutcome: guard.RuleOutcome{RuleID: "A1", RuleName: "Data Freshness", Category: guard.CategoryDataIntegrity, Status: guard.RulePass, Weight: 0.3}, WeightContribution: 0.3},
			},
			TotalRulesEvaluated: 1,
		},
		State: DecisionState{
			OriginalStatus:     status,
			OriginalConfidence: 0.9,
			FinalStatus:        status,
			FinalConfidence:    0.9,
		},
		Outcome: OutcomeTracking{Outcome: OutcomeUnknown},
	}
}
