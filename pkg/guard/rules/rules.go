package rules

import (
	"time"

	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/guard"
)

// Input is everything a rule may look at. It is assembled once per request.
type Input struct {
	Request *guard.DecisionRequest

	// Metric is the catalog entry, or nil when the metric is unknown.
	Metric *catalog.MetricDefinition

	Signals    guard.ResolvedSignals
	Thresholds Thresholds
	Now        time.Time
}

// CheckFunc evaluates one rule. The reason must be set whenever the status
// is not pass.
type CheckFunc func(in *Input) (guard.RuleStatus, string)

// Rule describes one guard rule.
type Rule struct {
	ID       string
	Name     string
	Category guard.RuleCategory
	Weight   float64
	Check    CheckFunc
}

// Evaluate runs the rule and packages its verdict as an outcome.
func (r Rule) Evaluate(in *Input) guard.RuleOutcome {
	status, reason := r.Check(in)
	if status == guard.RulePass {
		reason = ""
	}
	return guard.RuleOutcome{
		RuleID:   r.ID,
		RuleName: r.Name,
		Category: r.Category,
		Status:   status,
		Reason:   reason,
		Weight:   r.Weight,
	}
}

var ruleSet = []Rule{
	{ID: "A1", Name: "Data Freshness", Category: guard.CategoryDataIntegrity, Weight: 0.30, Check: DataFreshness},
	{ID: "A2", Name: "Partial Data Detection", Category: guard.CategoryDataIntegrity, Weight: 0.30, Check: PartialData},
	{ID: "B1", Name: "Minimum Sample Threshold", Category: guard.CategorySampleSize, Weight: 0.25, Check: MinimumSample},
	{ID: "B2", Name: "Comparison Validity", Category: guard.CategorySampleSize, Weight: 0.25, Check: ComparisonValidity},
	{ID: "C1", Name: "Contributor Concentration", Category: guard.CategoryBias, Weight: 0.25, Check: ContributorConcentration},
	{ID: "C2", Name: "Segment Drift", Category: guard.CategoryBias, Weight: 0.25, Check: SegmentDrift},
	{ID: "D1", Name: "Vanity Metric Detection", Category: guard.CategoryMetricMisuse, Weight: 0.20, Check: VanityMetric},
	{ID: "D2", Name: "Metric-Decision Match", Category: guard.CategoryMetricMisuse, Weight: 0.20, Check: MetricDecisionMatch},
}

// All returns the rule descriptors in evaluation order.
func All() []Rule {
	return append([]Rule(nil), ruleSet...)
}

// Lookup returns the descriptor for a rule identifier.
func Lookup(id string) (Rule, bool) {
	for _, r := range ruleSet {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Evaluator runs the rule set with a fixed set of thresholds.
type Evaluator struct {
	thresholds Thresholds
	rules      []Rule
}

// NewEvaluator creates an evaluator. Zero threshold fields take defaults.
func NewEvaluator(thresholds Thresholds) *Evaluator {
	return &Evaluator{
		thresholds: thresholds.withDefaults(),
		rules:      All(),
	}
}

// Thresholds returns the effective thresholds.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Run evaluates every rule against the request and returns the outcomes in
// declared order. now is the reference time for freshness.
func (e *Evaluator) Run(req *guard.DecisionRequest, cat catalog.Catalog, now time.Time) []guard.RuleOutcome {
	in := &Input{
		Request:    req,
		Signals:    req.Signals.Resolve(),
		Thresholds: e.thresholds,
		Now:        now,
	}
	if def, ok := cat.Get(req.MetricID); ok {
		in.Metric = def
	}

	outcomes := make([]guard.RuleOutcome, 0, len(e.rules))
	for _, r := range e.rules {
		outcomes = append(outcomes, r.Evaluate(in))
	}
	return outcomes
}

// RunAll evaluates the request with default thresholds.
func RunAll(req *guard.DecisionRequest, cat catalog.Catalog, now time.Time) []guard.RuleOutcome {
	return NewEvaluator(DefaultThresholds()).Run(req, cat, now)
}
