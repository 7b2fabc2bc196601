package catalog

import (
	"fmt"
	"strings"
)

// DecisionType is the class of business decision a metric is used to drive.
type DecisionType string

const (
	DecisionGrowth     DecisionType = "growth"
	DecisionPricing    DecisionType = "pricing"
	DecisionMarketing  DecisionType = "marketing"
	DecisionOperations DecisionType = "operations"
	DecisionProduct    DecisionType = "product"
)

// AllDecisionTypes returns every decision class in declaration order.
func AllDecisionTypes() []DecisionType {
	return []DecisionType{
		DecisionGrowth,
		DecisionPricing,
		DecisionMarketing,
		DecisionOperations,
		DecisionProduct,
	}
}

// IsValid reports whether d is one of the known decision classes.
func (d DecisionType) IsValid() bool {
	switch d {
	case DecisionGrowth, DecisionPricing, DecisionMarketing, DecisionOperations, DecisionProduct:
		return true
	}
	return false
}

// Label returns the display label for the decision class.
func (d DecisionType) Label() string {
	switch d {
	case DecisionGrowth:
		return "Growth Decision"
	case DecisionPricing:
		return "Pricing Decision"
	case DecisionMarketing:
		return "Marketing Decision"
	case DecisionOperations:
		return "Operations Decision"
	case DecisionProduct:
		return "Product Decision"
	}
	return string(d)
}

// Description returns a short summary of what the decision class covers.
func (d DecisionType) Description() string {
	switch d {
	case DecisionGrowth:
		return "User acquisition, retention, expansion strategies"
	case DecisionPricing:
		return "Price changes, packaging, monetization"
	case DecisionMarketing:
		return "Campaign spend, channel allocation, targeting"
	case DecisionOperations:
		return "Process efficiency, cost optimization, scaling"
	case DecisionProduct:
		return "Feature launches, UX changes, roadmap priorities"
	}
	return ""
}

// ParseDecisionType converts a case-insensitive string into a DecisionType.
func ParseDecisionType(s string) (DecisionType, error) {
	d := DecisionType(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("unknown decision type %q", s)
	}
	return d, nil
}

// MetricCategory groups metrics by the business dimension they measure.
type MetricCategory string

const (
	CategoryRevenue    MetricCategory = "revenue"
	CategoryEngagement MetricCategory = "engagement"
	CategoryConversion MetricCategory = "conversion"
	CategoryRetention  MetricCategory = "retention"
	CategoryCost       MetricCategory = "cost"
	CategoryEfficiency MetricCategory = "efficiency"
)

// IsValid reports whether c is a known metric category.
func (c MetricCategory) IsValid() bool {
	switch c {
	case CategoryRevenue, CategoryEngagement, CategoryConversion,
		CategoryRetention, CategoryCost, CategoryEfficiency:
		return true
	}
	return false
}

// MetricDefinition is the certification metadata for one metric.
type MetricDefinition struct {
	// ID is the normalized metric identifier.
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable metric name.
	Name string `yaml:"name" json:"name"`

	// AllowedDecisions lists the decision classes this metric is certified for.
	AllowedDecisions []DecisionType `yaml:"allowed_decisions" json:"allowed_decisions"`

	// MinSampleSize is the smallest sample the metric is trusted at.
	MinSampleSize int `yaml:"min_sample_size" json:"min_sample_size"`

	// RefreshHours is the expected interval between data refreshes.
	RefreshHours int `yaml:"refresh_hours" json:"refresh_hours"`

	// CounterMetrics are metrics that should be checked alongside this one
	// to catch gaming or side effects.
	CounterMetrics []string `yaml:"counter_metrics,omitempty" json:"counter_metrics,omitempty"`

	// Category is the business dimension the metric measures.
	Category MetricCategory `yaml:"category" json:"category"`
}

// Allows reports whether the metric is certified for the decision class.
func (m *MetricDefinition) Allows(d DecisionType) bool {
	for _, allowed := range m.AllowedDecisions {
		if allowed == d {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the definition.
func (m *MetricDefinition) Clone() *MetricDefinition {
	if m == nil {
		return nil
	}
	c := *m
	c.AllowedDecisions = append([]DecisionType(nil), m.AllowedDecisions...)
	c.CounterMetrics = append([]string(nil), m.CounterMetrics...)
	return &c
}

// Certification summarizes which decision classes a metric is safe for.
type Certification struct {
	MetricID           string         `json:"metric_id"`
	Known              bool           `json:"known"`
	CertifiedFor       []DecisionType `json:"certified_for"`
	UnsafeFor          []DecisionType `json:"unsafe_for"`
	MinSampleSize      int            `json:"min_sample_size,omitempty"`
	RefreshHours       int            `json:"refresh_hours,omitempty"`
	CertificationScore float64        `json:"certification_score"`
	Warnings           []string       `json:"warnings"`
}
