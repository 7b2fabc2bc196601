package guard

import (
	"time"

	"mercator-hq/metricguard/pkg/catalog"
)

// RuleStatus is the verdict of a single guard rule.
type RuleStatus string

const (
	RulePass RuleStatus = "pass"
	RuleWarn RuleStatus = "warn"
	RuleFail RuleStatus = "fail"
)

// RuleCategory groups guard rules by the kind of risk they detect.
type RuleCategory string

const (
	CategoryDataIntegrity RuleCategory = "data_integrity"
	CategorySampleSize    RuleCategory = "sample_size"
	CategoryBias          RuleCategory = "bias"
	CategoryMetricMisuse  RuleCategory = "metric_misuse"
)

// DecisionStatus is the overall verdict for a decision request.
type DecisionStatus string

const (
	StatusAllow DecisionStatus = "ALLOW"
	StatusWarn  DecisionStatus = "WARN"
	StatusBlock DecisionStatus = "BLOCK"

	// StatusOverridden is reachable only through an explicit override of a
	// WARN decision; aggregation never produces it.
	StatusOverridden DecisionStatus = "OVERRIDDEN"
)

// IsValid reports whether s is a known decision status.
func (s DecisionStatus) IsValid() bool {
	switch s {
	case StatusAllow, StatusWarn, StatusBlock, StatusOverridden:
		return true
	}
	return false
}

// TimeRange is a closed analysis window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DecisionRequest is one proposed use of a metric to drive a decision.
type DecisionRequest struct {
	// MetricID identifies the metric in the catalog. Matching is
	// case- and whitespace-insensitive.
	MetricID string `json:"metric_id"`

	// DecisionType is the decision class the metric will drive.
	DecisionType catalog.DecisionType `json:"decision_type"`

	// TimeRange is the primary analysis period.
	TimeRange TimeRange `json:"time_range"`

	// ComparisonRange is the optional baseline period.
	ComparisonRange *TimeRange `json:"comparison_range,omitempty"`

	// Segment is an optional segment label, recorded for audit only.
	Segment string `json:"segment,omitempty"`

	// SampleSize is the number of records backing the metric value.
	SampleSize int `json:"sample_size"`

	// DataLastUpdated is when the underlying data was last refreshed.
	DataLastUpdated time.Time `json:"data_last_updated"`

	// Signals are optional externally computed statistics.
	Signals *Signals `json:"signals,omitempty"`
}

// RuleOutcome is the result of one guard rule.
type RuleOutcome struct {
	RuleID   string       `json:"rule_id"`
	RuleName string       `json:"rule_name"`
	Category RuleCategory `json:"category"`
	Status   RuleStatus   `json:"status"`

	// Reason is set whenever Status is not pass.
	Reason string  `json:"reason,omitempty"`
	Weight float64 `json:"weight"`
}

// RiskLevel grades the potential impact of acting on a decision.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ConfidenceBand is the uncertainty envelope around a confidence score.
type ConfidenceBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// RiskSummary explains what could go wrong if the decision is acted on.
type RiskSummary struct {
	Level                 RiskLevel      `json:"level"`
	ConfidenceBand        ConfidenceBand `json:"confidence_band"`
	PotentialConsequences []string       `json:"potential_consequences"`
	HistoricalContext     string         `json:"historical_context,omitempty"`
}

// Result is the evaluated verdict for a decision request. It is a value:
// overriding produces a new Result rather than editing an existing one.
type Result struct {
	Status          DecisionStatus        `json:"status"`
	Confidence      float64               `json:"confidence"`
	Rules           []RuleOutcome         `json:"rules"`
	Explanation     string                `json:"explanation"`
	SuggestedAction string                `json:"suggested_action"`
	Risk            RiskSummary           `json:"risk"`
	Certification   catalog.Certification `json:"certification"`
	EvaluatedAt     time.Time             `json:"evaluated_at"`
}
