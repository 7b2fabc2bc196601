package audit

import (
	"context"
	"io"
	"time"

	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/guard"
)

// OutcomeStatus is the real-world result a reviewer attaches to a decision.
type OutcomeStatus string

const (
	OutcomePositive OutcomeStatus = "Positive"
	OutcomeNeutral  OutcomeStatus = "Neutral"
	OutcomeNegative OutcomeStatus = "Negative"
	OutcomeUnknown  OutcomeStatus = "Unknown"
)

// IsValid reports whether o is a known outcome value.
func (o OutcomeStatus) IsValid() bool {
	switch o {
	case OutcomePositive, OutcomeNeutral, OutcomeNegative, OutcomeUnknown:
		return true
	}
	return false
}

// Record is the audit artifact for one decision. Every field except Outcome
// is write-once at creation.
type Record struct {
	// Identity
	DecisionID string    `json:"decision_id"` // UUID v4
	Timestamp  time.Time `json:"timestamp"`   // When the record was minted

	// Decision context
	DecisionType catalog.DecisionType `json:"decision_type"`
	MetricID     string               `json:"metric_id"`

	Input      InputContext    `json:"input"`
	Evaluation Evaluation      `json:"evaluation"`
	State      DecisionState   `json:"state"`
	Override   Override        `json:"override"`
	Outcome    OutcomeTracking `json:"outcome"`

	// IntegrityHash is the SHA-256 of the write-once fields.
	IntegrityHash string `json:"integrity_hash"`
}

// InputContext is a by-value capture of the decision request, so the trail
// survives later catalog changes.
type InputContext struct {
	TimeRange       guard.TimeRange  `json:"time_range"`
	ComparisonRange *guard.TimeRange `json:"comparison_range,omitempty"`
	Segment         string           `json:"segment,omitempty"`
	SampleSize      int              `json:"sample_size"`
	DataLastUpdated time.Time        `json:"data_last_updated"`
	Signals         *guard.Signals   `json:"signals,omitempty"`
}

// RuleResult is a rule outcome plus its weighted contribution to confidence.
type RuleResult struct {
	guard.RuleOutcome
	WeightContribution float64 `json:"weight_contribution"`
}

// Evaluation is the full guard lineage of a decision.
type Evaluation struct {
	TriggeredRules      []string        `json:"triggered_rules"` // Rule IDs that did not pass
	RuleResults         []RuleResult    `json:"rule_results"`
	TotalRulesEvaluated int             `json:"total_rules_evaluated"`
	Explanation         string          `json:"explanation"`
	SuggestedAction     string          `json:"suggested_action"`
	RiskLevel           guard.RiskLevel `json:"risk_level"`
}

// DecisionState holds both the original and the final verdict.
// FinalConfidence never exceeds OriginalConfidence.
type DecisionState struct {
	OriginalStatus     guard.DecisionStatus `json:"original_status"`
	OriginalConfidence float64              `json:"original_confidence"`
	FinalStatus        guard.DecisionStatus `json:"final_status"`
	FinalConfidence    float64              `json:"final_confidence"`
}

// Override records a justified override of a WARN decision.
type Override struct {
	Used      bool       `json:"used"`
	Reason    *string    `json:"reason"`
	Timestamp *time.Time `json:"timestamp,omitempty"`

	// SourceDecisionID is the WARN record this override was derived from.
	SourceDecisionID string `json:"source_decision_id,omitempty"`
}

// OutcomeTracking is the only mutable part of a record.
type OutcomeTracking struct {
	Outcome   OutcomeStatus `json:"outcome"`
	Notes     string        `json:"notes,omitempty"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r

	if r.Input.ComparisonRange != nil {
		cr := *r.Input.ComparisonRange
		c.Input.ComparisonRange = &cr
	}
	c.Input.Signals = cloneSignals(r.Input.Signals)

	if r.Evaluation.TriggeredRules != nil {
		c.Evaluation.TriggeredRules = append(make([]string, 0, len(r.Evaluation.TriggeredRules)), r.Evaluation.TriggeredRules...)
	}
	if r.Evaluation.RuleResults != nil {
		c.Evaluation.RuleResults = append(make([]RuleResult, 0, len(r.Evaluation.RuleResults)), r.Evaluation.RuleResults...)
	}

	if r.Override.Reason != nil {
		reason := *r.Override.Reason
		c.Override.Reason = &reason
	}
	if r.Override.Timestamp != nil {
		ts := *r.Override.Timestamp
		c.Override.Timestamp = &ts
	}
	if r.Outcome.UpdatedAt != nil {
		ts := *r.Outcome.UpdatedAt
		c.Outcome.UpdatedAt = &ts
	}
	return &c
}

func cloneSignals(s *guard.Signals) *guard.Signals {
	if s == nil {
		return nil
	}
	copyFloat := func(p *float64) *float64 {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	c := &guard.Signals{
		HistoricalAvg:   copyFloat(s.HistoricalAvg),
		TopContribution: copyFloat(s.TopContribution),
		MetricTrend:     copyFloat(s.MetricTrend),
		OutcomeTrend:    copyFloat(s.OutcomeTrend),
		SegmentChanges:  append([]float64(nil), s.SegmentChanges...),
	}
	if s.ComparisonSampleSize != nil {
		v := *s.ComparisonSampleSize
		c.ComparisonSampleSize = &v
	}
	return c
}

// Query defines filter parameters for listing audit records.
type Query struct {
	// Time range over the record timestamp
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	MetricID       string               `json:"metric_id,omitempty"`       // Normalized metric ID
	DecisionType   catalog.DecisionType `json:"decision_type,omitempty"`   // Decision class
	FinalStatus    guard.DecisionStatus `json:"final_status,omitempty"`    // ALLOW, WARN, BLOCK, OVERRIDDEN
	OriginalStatus guard.DecisionStatus `json:"original_status,omitempty"` // ALLOW, WARN, BLOCK
	Outcome        OutcomeStatus        `json:"outcome,omitempty"`         // Positive, Neutral, Negative, Unknown
	OverriddenOnly bool                 `json:"overridden_only,omitempty"` // Only override records

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return (0 means all)
	Offset int `json:"offset,omitempty"` // Skip N records

	// Sorting by timestamp; "desc" (default) or "asc"
	SortOrder string `json:"sort_order,omitempty"`
}

// Matches reports whether a record passes every filter of the query.
// A nil query matches everything.
func (q *Query) Matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.StartTime != nil && r.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.Timestamp.After(*q.EndTime) {
		return false
	}
	if q.MetricID != "" && r.MetricID != catalog.NormalizeID(q.MetricID) {
		return false
	}
	if q.DecisionType != "" && r.DecisionType != q.DecisionType {
		return false
	}
	if q.FinalStatus != "" && r.State.FinalStatus != q.FinalStatus {
		return false
	}
	if q.OriginalStatus != "" && r.State.OriginalStatus != q.OriginalStatus {
		return false
	}
	if q.Outcome != "" && r.Outcome.Outcome != q.Outcome {
		return false
	}
	if q.OverriddenOnly && !r.Override.Used {
		return false
	}
	return true
}

// Ascending reports whether results should be oldest first.
func (q *Query) Ascending() bool {
	return q != nil && q.SortOrder == "asc"
}

// Paginate applies Offset and Limit to an already filtered slice.
func Paginate[T any](items []T, q *Query) []T {
	if q == nil {
		return items
	}
	if q.Offset > 0 {
		if q.Offset >= len(items) {
			return items[:0]
		}
		items = items[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(items) {
		items = items[:q.Limit]
	}
	return items
}

// Archive is a durable mirror of audit records.
// Implementations must be thread-safe.
type Archive interface {
	// Store persists a record, replacing any record with the same ID.
	Store(ctx context.Context, record *Record) error

	// UpdateOutcome replaces the outcome block of a stored record.
	// Returns ErrRecordNotFound if the record does not exist.
	UpdateOutcome(ctx context.Context, decisionID string, outcome OutcomeTracking) error

	// Get returns a record by ID or ErrRecordNotFound.
	Get(ctx context.Context, decisionID string) (*Record, error)

	// Query returns records matching the query, newest first unless the
	// query asks for ascending order.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// QueryStream streams matching records. Both channels are closed when
	// the query completes; errCh carries at most one error.
	QueryStream(ctx context.Context, query *Query) (<-chan *Record, <-chan error, error)

	// Count returns the number of matching records.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching records and returns how many were removed.
	// Pagination fields are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the archive.
	Close() error
}

// Sink receives lifecycle events for mirroring outside the in-process log.
type Sink interface {
	// RecordAppended is called after a record is appended to the log.
	RecordAppended(ctx context.Context, record *Record) error

	// OutcomeUpdated is called after a record's outcome is replaced.
	OutcomeUpdated(ctx context.Context, decisionID string, outcome OutcomeTracking) error
}

// Exporter writes audit records in a specific format.
type Exporter interface {
	// Export writes the records to w.
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
