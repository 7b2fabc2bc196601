package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/guard"
	"mercator-hq/metricguard/pkg/guard/aggregate"
	"mercator-hq/metricguard/pkg/guard/explain"
	"mercator-hq/metricguard/pkg/guard/rules"
)

const (
	// MinJustificationLength is the minimum override justification length,
	// in characters, after trimming surrounding whitespace.
	MinJustificationLength = 50

	// OverrideConfidenceCap is the highest confidence an overridden decision
	// can carry.
	OverrideConfidenceCap = 0.45
)

// Outcome is the result of a lifecycle operation together with the audit
// record it appended.
type Outcome struct {
	Result *guard.Result `json:"result"`
	Record *audit.Record `json:"record"`
}

// Lifecycle evaluates decisions and owns their audit trail.
// It is safe for concurrent use.
type Lifecycle struct {
	catalog   catalog.Catalog
	log       *audit.Log
	evaluator *rules.Evaluator

	sink    audit.Sink
	metrics Metrics
	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

// New creates a lifecycle over a catalog and an audit log.
func New(cat catalog.Catalog, log *audit.Log, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		catalog: cat,
		log:     log,
	}
	defaults(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Catalog returns the metric catalog the lifecycle evaluates against.
func (l *Lifecycle) Catalog() catalog.Catalog {
	return l.catalog
}

// Log returns the audit log.
func (l *Lifecycle) Log() *audit.Log {
	return l.log
}

// Thresholds returns the effective rule thresholds.
func (l *Lifecycle) Thresholds() rules.Thresholds {
	return l.evaluator.Thresholds()
}

// Evaluate runs the guard over a request and appends the resulting record.
// A malformed request returns *guard.ValidationError and is not recorded.
func (l *Lifecycle) Evaluate(ctx context.Context, req *guard.DecisionRequest) (*Outcome, error) {
	start := time.Now()

	ctx, span := l.tracer.Start(ctx, "decision.evaluate")
	defer span.End()

	if req == nil {
		err := validationError("request", "request body is required")
		l.reject(span, "evaluate", "validation", err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("metric.id", req.MetricID),
		attribute.String("decision.type", string(req.DecisionType)),
	)

	if err := req.Validate(); err != nil {
		l.reject(span, "evaluate", "validation", err)
		return nil, err
	}

	now := l.now().UTC()
	outcomes := l.evaluator.Run(req, l.catalog, now)
	confidence := aggregate.Score(outcomes)
	status := aggregate.Status(outcomes, confidence)

	result := &guard.Result{
		Status:          status,
		Confidence:      confidence,
		Rules:           outcomes,
		Explanation:     explain.Explain(status, outcomes),
		SuggestedAction: explain.Suggest(status, outcomes),
		Risk:            explain.Risk(req, outcomes, confidence),
		Certification:   catalog.Certify(l.catalog, req.MetricID),
		EvaluatedAt:     now,
	}

	record := &audit.Record{
		DecisionID:   l.newID(),
		Timestamp:    now,
		DecisionType: req.DecisionType,
		MetricID:     catalog.NormalizeID(req.MetricID),
		Input:        inputContext(req),
		Evaluation:   evaluation(result),
		State: audit.DecisionState{
			OriginalStatus:     status,
			OriginalConfidence: confidence,
			FinalStatus:        status,
			FinalConfidence:    confidence,
		},
		Override: audit.Override{Used: false},
		Outcome:  audit.OutcomeTracking{Outcome: audit.OutcomeUnknown},
	}
	// Detach from caller-owned pointers before sealing.
	record = record.Clone()

	if err := l.append(ctx, span, "evaluate", record, l.log.Append); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("decision.id", record.DecisionID),
		attribute.String("decision.status", string(status)),
		attribute.Float64("decision.confidence", confidence),
	)
	l.metrics.RecordEvaluation(req.DecisionType, record.MetricID, status, confidence, outcomes, time.Since(start))

	l.logger.Info("decision evaluated",
		"decision_id", record.DecisionID,
		"metric_id", record.MetricID,
		"decision_type", record.DecisionType,
		"status", status,
		"confidence", confidence,
		"triggered_rules", record.Evaluation.TriggeredRules,
	)

	return &Outcome{Result: result, Record: record.Clone()}, nil
}

// Override accepts the risk of a WARN decision. It appends a new OVERRIDDEN
// record derived from the WARN record and returns it; the WARN record is not
// modified. A WARN record can be overridden once.
func (l *Lifecycle) Override(ctx context.Context, decisionID, justification string) (*Outcome, error) {
	ctx, span := l.tracer.Start(ctx, "decision.override",
		trace.WithAttributes(attribute.String("decision.source_id", decisionID)),
	)
	defer span.End()

	prior, ok := l.log.Get(decisionID)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrRecordNotFound, decisionID)
		l.reject(span, "override", "not_found", err)
		return nil, err
	}

	if prior.State.FinalStatus != guard.StatusWarn {
		err := &PreconditionError{
			DecisionID: decisionID,
			Status:     prior.State.FinalStatus,
			Reason:     "only WARN decisions can be overridden",
		}
		l.reject(span, "override", "precondition", err)
		return nil, err
	}
	if by, done := l.log.OverriddenBy(decisionID); done {
		err := &PreconditionError{
			DecisionID: decisionID,
			Status:     prior.State.FinalStatus,
			Reason:     fmt.Sprintf("already overridden by %s", by),
			Cause:      audit.ErrAlreadyOverridden,
		}
		l.reject(span, "override", "precondition", err)
		return nil, err
	}

	reason := strings.TrimSpace(justification)
	if n := utf8.RuneCountInString(reason); n < MinJustificationLength {
		err := validationError("justification",
			fmt.Sprintf("must be at least %d characters after trimming, got %d", MinJustificationLength, n))
		l.reject(span, "override", "validation", err)
		return nil, err
	}

	adjusted := math.Min(OverrideConfidenceCap, prior.State.FinalConfidence)
	safe := math.Min(adjusted, prior.State.OriginalConfidence)

	now := l.now().UTC()
	record := &audit.Record{
		DecisionID:   l.newID(),
		Timestamp:    now,
		DecisionType: prior.DecisionType,
		MetricID:     prior.MetricID,
		Input:        prior.Input,
		Evaluation:   prior.Evaluation,
		State: audit.DecisionState{
			OriginalStatus:     prior.State.OriginalStatus,
			OriginalConfidence: prior.State.OriginalConfidence,
			FinalStatus:        guard.StatusOverridden,
			FinalConfidence:    safe,
		},
		Override: audit.Override{
			Used:             true,
			Reason:           &reason,
			Timestamp:        &now,
			SourceDecisionID: prior.DecisionID,
		},
		Outcome: audit.OutcomeTracking{Outcome: audit.OutcomeUnknown},
	}
	record = record.Clone()

	if err := l.append(ctx, span, "override", record, l.log.AppendOverride); err != nil {
		if errors.Is(err, audit.ErrAlreadyOverridden) {
			return nil, &PreconditionError{
				DecisionID: decisionID,
				Status:     prior.State.FinalStatus,
				Reason:     "already overridden",
				Cause:      err,
			}
		}
		return nil, err
	}

	req := requestFromInput(prior)
	outcomes := ruleOutcomes(prior.Evaluation.RuleResults)
	result := &guard.Result{
		Status:          guard.StatusOverridden,
		Confidence:      safe,
		Rules:           outcomes,
		Explanation:     explain.OverrideExplanation(prior.State.FinalConfidence, safe),
		SuggestedAction: explain.OverrideSuggestedAction,
		Risk:            explain.Risk(req, outcomes, safe),
		Certification:   catalog.Certify(l.catalog, prior.MetricID),
		EvaluatedAt:     now,
	}

	span.SetAttributes(
		attribute.String("decision.id", record.DecisionID),
		attribute.Float64("decision.confidence", safe),
	)
	l.metrics.RecordOverride(prior.DecisionType, prior.State.OriginalConfidence, safe)

	l.logger.Warn("decision overridden",
		"decision_id", record.DecisionID,
		"source_decision_id", prior.DecisionID,
		"metric_id", record.MetricID,
		"original_confidence", prior.State.OriginalConfidence,
		"final_confidence", safe,
	)

	return &Outcome{Result: result, Record: record.Clone()}, nil
}

// UpdateOutcome labels a decision with its real-world outcome. Labels can be
// replaced; the last write wins.
func (l *Lifecycle) UpdateOutcome(ctx context.Context, decisionID string, outcome audit.OutcomeStatus, notes string) (*audit.Record, error) {
	ctx, span := l.tracer.Start(ctx, "decision.update_outcome",
		trace.WithAttributes(
			attribute.String("decision.id", decisionID),
			attribute.String("decision.outcome", string(outcome)),
		),
	)
	defer span.End()

	if !outcome.IsValid() {
		err := validationError("outcome", "must be one of Positive, Neutral, Negative, Unknown")
		l.reject(span, "update_outcome", "validation", err)
		return nil, err
	}

	now := l.now().UTC()
	tracking := audit.OutcomeTracking{
		Outcome:   outcome,
		Notes:     strings.TrimSpace(notes),
		UpdatedAt: &now,
	}

	record, err := l.log.UpdateOutcome(decisionID, tracking)
	if err != nil {
		l.reject(span, "update_outcome", "not_found", err)
		return nil, err
	}

	if l.sink != nil {
		if err := l.sink.OutcomeUpdated(ctx, decisionID, tracking); err != nil {
			l.logger.Warn("failed to mirror outcome update", "decision_id", decisionID, "error", err)
		}
	}
	l.metrics.RecordOutcome(outcome)

	l.logger.Info("decision outcome updated",
		"decision_id", decisionID,
		"outcome", outcome,
	)

	return record, nil
}

// Record returns a copy of a record by ID.
func (l *Lifecycle) Record(decisionID string) (*audit.Record, error) {
	r, ok := l.log.Get(decisionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, decisionID)
	}
	return r, nil
}

// Records returns the records matching q, newest first.
func (l *Lifecycle) Records(q *audit.Query) []*audit.Record {
	return l.log.List(q)
}

// append seals and appends a record, then mirrors it to the sink.
func (l *Lifecycle) append(ctx context.Context, span trace.Span, op string, record *audit.Record, add func(*audit.Record) error) error {
	if err := audit.Seal(record); err != nil {
		l.reject(span, op, "internal", err)
		return err
	}
	if err := add(record); err != nil {
		reason := "internal"
		if errors.Is(err, audit.ErrRecordNotFound) {
			reason = "not_found"
		} else if errors.Is(err, audit.ErrAlreadyOverridden) {
			reason = "precondition"
		}
		l.reject(span, op, reason, err)
		return err
	}
	l.metrics.SetAuditLogSize(l.log.Len())

	if l.sink != nil {
		if err := l.sink.RecordAppended(ctx, record); err != nil {
			l.logger.Warn("failed to mirror audit record", "decision_id", record.DecisionID, "error", err)
		}
	}
	return nil
}

func (l *Lifecycle) reject(span trace.Span, op, reason string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	l.metrics.RecordRejection(op, reason)
	l.logger.Debug("decision operation rejected", "operation", op, "reason", reason, "error", err)
}

func inputContext(req *guard.DecisionRequest) audit.InputContext {
	return audit.InputContext{
		TimeRange:       req.TimeRange,
		ComparisonRange: req.ComparisonRange,
		Segment:         req.Segment,
		SampleSize:      req.SampleSize,
		DataLastUpdated: req.DataLastUpdated.UTC(),
		Signals:         req.Signals,
	}
}

func evaluation(result *guard.Result) audit.Evaluation {
	ev := audit.Evaluation{
		TriggeredRules:      []string{},
		RuleResults:         make([]audit.RuleResult, 0, len(result.Rules)),
		TotalRulesEvaluated: len(result.Rules),
		Explanation:         result.Explanation,
		SuggestedAction:     result.SuggestedAction,
		RiskLevel:           result.Risk.Level,
	}
	for _, o := range result.Rules {
		if o.Status != guard.RulePass {
			ev.TriggeredRules = append(ev.TriggeredRules, o.RuleID)
		}
		ev.RuleResults = append(ev.RuleResults, audit.RuleResult{
			RuleOutcome:        o,
			WeightContribution: aggregate.Contribution(o),
		})
	}
	return ev
}

func ruleOutcomes(results []audit.RuleResult) []guard.RuleOutcome {
	out := make([]guard.RuleOutcome, len(results))
	for i, r := range results {
		out[i] = r.RuleOutcome
	}
	return out
}

func requestFromInput(r *audit.Record) *guard.DecisionRequest {
	return &guard.DecisionRequest{
		MetricID:        r.MetricID,
		DecisionType:    r.DecisionType,
		TimeRange:       r.Input.TimeRange,
		ComparisonRange: r.Input.ComparisonRange,
		Segment:         r.Input.Segment,
		SampleSize:      r.Input.SampleSize,
		DataLastUpdated: r.Input.DataLastUpdated,
		Signals:         r.Input.Signals,
	}
}
