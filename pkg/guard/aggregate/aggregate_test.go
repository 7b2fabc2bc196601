package aggregate

import (
	"math"
	"testing"

	"mercator-hq/metricguard/pkg/guard"
)

func outcome(id string, weight float64, status guard.RuleStatus) guard.RuleOutcome {
	return guard.RuleOutcome{RuleID: id, Weight: weight, Status: status}
}

// standardSet returns the eight rule weights, all passing.
func standardSet() []guard.RuleOutcome {
	return []guard.RuleOutcome{
		outcome("A1", 0.30, guard.RulePass),
		outcome("A2", 0.30, guard.RulePass),
		outcome("B1", 0.25, guard.RulePass),
		outcome("B2", 0.25, guard.RulePass),
		outcome("C1", 0.25, guard.RulePass),
		outcome("C2", 0.25, guard.RulePass),
		outcome("D1", 0.20, guard.RulePass),
		outcome("D2", 0.20, guard.RulePass),
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore(t *testing.T) {
	if got := Score(nil); got != 0 {
		t.Errorf("Score(nil) = %v, want 0", got)
	}

	all := standardSet()
	if got := Score(all); !approx(got, 1.0) {
		t.Errorf("all pass: Score() = %v, want 1", got)
	}

	oneFail := standardSet()
	oneFail[7].Status = guard.RuleFail
	// (2.0 - 0.20) / 2.0
	if got := Score(oneFail); !approx(got, 0.9) {
		t.Errorf("one fail: Score() = %v, want 0.9", got)
	}

	oneWarn := standardSet()
	oneWarn[4].Status = guard.RuleWarn
	// (2.0 - 0.125) / 2.0
	if got := Score(oneWarn); !approx(got, 0.9375) {
		t.Errorf("one warn: Score() = %v, want 0.9375", got)
	}

	allFail := standardSet()
	for i := range allFail {
		allFail[i].Status = guard.RuleFail
	}
	if got := Score(allFail); got != 0 {
		t.Errorf("all fail: Score() = %v, want 0", got)
	}
}

// TestScore_Bounds tests that confidence stays in [0, 1] for every
// combination of statuses over the standard rule set.
func TestScore_Bounds(t *testing.T) {
	statuses := []guard.RuleStatus{guard.RulePass, guard.RuleWarn, guard.RuleFail}
	set := standardSet()

	combos := int(math.Pow(3, float64(len(set))))
	for n := 0; n < combos; n++ {
		v := n
		for i := range set {
			set[i].Status = statuses[v%3]
			v /= 3
		}
		c := Score(set)
		if c < 0 || c > 1 {
			t.Fatalf("combination %d: Score() = %v outside [0,1]", n, c)
		}
		if s := Status(set, c); s == guard.StatusOverridden {
			t.Fatalf("combination %d: Status() returned OVERRIDDEN", n)
		}
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func([]guard.RuleOutcome)
		confidence float64
		want       guard.DecisionStatus
	}{
		{"all pass", func([]guard.RuleOutcome) {}, 1.0, guard.StatusAllow},
		{"seven pass one fail", func(o []guard.RuleOutcome) { o[7].Status = guard.RuleFail }, 0.9, guard.StatusBlock},
		{"fail beats warn", func(o []guard.RuleOutcome) {
			o[0].Status = guard.RuleWarn
			o[2].Status = guard.RuleFail
		}, 0.8, guard.StatusBlock},
		{"warn at high confidence", func(o []guard.RuleOutcome) { o[4].Status = guard.RuleWarn }, 0.95, guard.StatusWarn},
		{"low confidence without warn", func([]guard.RuleOutcome) {}, 0.69, guard.StatusWarn},
		{"threshold confidence", func([]guard.RuleOutcome) {}, 0.70, guard.StatusAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := standardSet()
			tt.mutate(set)
			if got := Status(set, tt.confidence); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestContributionAndCounts(t *testing.T) {
	if got := Contribution(outcome("C1", 0.25, guard.RuleWarn)); !approx(got, 0.125) {
		t.Errorf("Contribution(warn 0.25) = %v, want 0.125", got)
	}

	set := standardSet()
	set[0].Status = guard.RuleFail
	set[1].Status = guard.RuleWarn
	set[2].Status = guard.RuleWarn
	pass, warn, fail := Counts(set)
	if pass != 5 || warn != 2 || fail != 1 {
		t.Errorf("Counts() = (%d, %d, %d), want (5, 2, 1)", pass, warn, fail)
	}
}
