package audit

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mercator-hq/metricguard/pkg/guard"
)

func TestLog_AppendMostRecentFirst(t *testing.T) {
	log := NewLog(10)
	for i := 0; i < 3; i++ {
		if err := log.Append(makeRecord(i, guard.StatusAllow)); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	list := log.Snapshot()
	want := []string{"rec-002", "rec-001", "rec-000"}
	for i, id := range want {
		if list[i].DecisionID != id {
			t.Errorf("Snapshot()[%d] = %s, want %s", i, list[i].DecisionID, id)
		}
	}
}

// TestLog_CapacityEviction tests that the 101st append evicts exactly the
// oldest-inserted record.
func TestLog_CapacityEviction(t *testing.T) {
	log := NewLog(0)
	if log.Capacity() != DefaultCapacity {
		t.Fatalf("Capacity() = %d, want %d", log.Capacity(), DefaultCapacity)
	}

	var evicted []string
	log.OnEvict(func(r *Record) { evicted = append(evicted, r.DecisionID) })

	for i := 0; i < 100; i++ {
		if err := log.Append(makeRecord(i, guard.StatusAllow)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}
	if log.Len() != 100 || len(evicted) != 0 {
		t.Fatalf("after 100 appends: Len() = %d, evicted = %v", log.Len(), evicted)
	}

	if err := log.Append(makeRecord(100, guard.StatusAllow)); err != nil {
		t.Fatalf("Append(100) failed: %v", err)
	}
	if log.Len() != 100 {
		t.Errorf("Len() = %d, want 100", log.Len())
	}
	if len(evicted) != 1 || evicted[0] != "rec-000" {
		t.Errorf("evicted = %v, want [rec-000]", evicted)
	}
	if _, ok := log.Get("rec-000"); ok {
		t.Error("rec-000 still present after eviction")
	}
	if _, ok := log.Get("rec-001"); !ok {
		t.Error("rec-001 evicted unexpectedly")
	}
}

// TestLog_EvictionByInsertionOrder tests that eviction ignores timestamps.
func TestLog_EvictionByInsertionOrder(t *testing.T) {
	log := NewLog(2)

	late := makeRecord(50, guard.StatusAllow)
	early := makeRecord(1, guard.StatusAllow)
	_ = log.Append(late)
	_ = log.Append(early)
	_ = log.Append(makeRecord(2, guard.StatusAllow))

	if _, ok := log.Get(late.DecisionID); ok {
		t.Error("first-inserted record survived eviction")
	}
	if _, ok := log.Get(early.DecisionID); !ok {
		t.Error("second-inserted record was evicted")
	}
}

func TestLog_DuplicateRejected(t *testing.T) {
	log := NewLog(5)
	_ = log.Append(makeRecord(1, guard.StatusAllow))

	err := log.Append(makeRecord(1, guard.StatusWarn))
	if !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("Append() duplicate error = %v, want ErrDuplicateRecord", err)
	}
	if log.Len() != 1 {
		t.Errorf("Len() = %d, want 1", log.Len())
	}
}

func TestLog_CopyIsolation(t *testing.T) {
	log := NewLog(5)
	rec := makeRecord(1, guard.StatusAllow)
	_ = log.Append(rec)

	rec.State.FinalStatus = guard.StatusBlock
	rec.Evaluation.RuleResults[0].Status = guard.RuleFail
	*rec.Input.Signals.HistoricalAvg = 1

	got, _ := log.Get(rec.DecisionID)
	if got.State.FinalStatus != guard.StatusAllow {
		t.Error("stored FinalStatus changed through caller pointer")
	}
	if got.Evaluation.RuleResults[0].Status != guard.RulePass {
		t.Error("stored rule result changed through caller slice")
	}
	if *got.Input.Signals.HistoricalAvg != 600 {
		t.Error("stored signals changed through caller pointer")
	}

	got.Evaluation.TriggeredRules = append(got.Evaluation.TriggeredRules, "X")
	again, _ := log.Get(rec.DecisionID)
	if len(again.Evaluation.TriggeredRules) != 0 {
		t.Error("stored triggered rules changed through returned copy")
	}
}

// TestLog_UpdateOutcome tests that only the outcome block changes.
func TestLog_UpdateOutcome(t *testing.T) {
	log := NewLog(5)
	rec := makeRecord(1, guard.StatusWarn)
	if err := Seal(rec); err != nil {
		t.Fatal(err)
	}
	_ = log.Append(rec)
	before, _ := log.Get(rec.DecisionID)

	now := baseTime.Add(time.Hour)
	updated, err := log.UpdateOutcome(rec.DecisionID, OutcomeTracking{Outcome: OutcomePositive, Notes: "worked", UpdatedAt: &now})
	if err != nil {
		t.Fatalf("UpdateOutcome() failed: %v", err)
	}
	if updated.Outcome.Outcome != OutcomePositive || updated.Outcome.Notes != "worked" {
		t.Errorf("updated outcome = %+v", updated.Outcome)
	}

	after, _ := log.Get(rec.DecisionID)
	after.Outcome = before.Outcome
	h1, _ := ComputeIntegrityHash(before)
	h2, _ := ComputeIntegrityHash(after)
	if h1 != h2 {
		t.Error("fields other than outcome changed")
	}
	if err := VerifyIntegrity(after); err != nil {
		t.Errorf("VerifyIntegrity() after outcome update: %v", err)
	}

	// Relabelling is allowed.
	if _, err := log.UpdateOutcome(rec.DecisionID, OutcomeTracking{Outcome: OutcomeNegative}); err != nil {
		t.Errorf("second UpdateOutcome() failed: %v", err)
	}
}

func TestLog_UpdateOutcome_NotFound(t *testing.T) {
	log := NewLog(5)
	_, err := log.UpdateOutcome("missing", OutcomeTracking{Outcome: OutcomePositive})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("UpdateOutcome() error = %v, want ErrRecordNotFound", err)
	}
	if log.Len() != 0 {
		t.Errorf("Len() = %d, want 0", log.Len())
	}
}

func TestLog_AppendOverride(t *testing.T) {
	log := NewLog(5)
	source := makeRecord(1, guard.StatusWarn)
	_ = log.Append(source)

	override := makeRecord(2, guard.StatusWarn)
	override.State.FinalStatus = guard.StatusOverridden
	override.Override = Override{Used: true, SourceDecisionID: source.DecisionID}

	if err := log.AppendOverride(override); err != nil {
		t.Fatalf("AppendOverride() failed: %v", err)
	}
	if id, ok := log.OverriddenBy(source.DecisionID); !ok || id != override.DecisionID {
		t.Errorf("OverriddenBy() = %q, %v", id, ok)
	}

	second := makeRecord(3, guard.StatusWarn)
	second.Override = Override{Used: true, SourceDecisionID: source.DecisionID}
	if err := log.AppendOverride(second); !errors.Is(err, ErrAlreadyOverridden) {
		t.Errorf("second AppendOverride() error = %v, want ErrAlreadyOverridden", err)
	}

	orphan := makeRecord(4, guard.StatusWarn)
	orphan.Override = Override{Used: true, SourceDecisionID: "gone"}
	if err := log.AppendOverride(orphan); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("orphan AppendOverride() error = %v, want ErrRecordNotFound", err)
	}

	if log.Len() != 2 {
		t.Errorf("Len() = %d, want 2", log.Len())
	}
}

func TestLog_ListFiltersAndPaging(t *testing.T) {
	log := NewLog(20)
	for i := 0; i < 10; i++ {
		status := guard.StatusAllow
		if i%2 == 0 {
			status = guard.StatusWarn
		}
		_ = log.Append(makeRecord(i, status))
	}

	warn := log.List(&Query{FinalStatus: guard.StatusWarn})
	if len(warn) != 5 || warn[0].DecisionID != "rec-008" {
		t.Errorf("WARN list = %d records, first %s", len(warn), warn[0].DecisionID)
	}

	page := log.List(&Query{Limit: 3, Offset: 2})
	if len(page) != 3 || page[0].DecisionID != "rec-007" {
		t.Errorf("page = %d records, first %s", len(page), page[0].DecisionID)
	}

	asc := log.List(&Query{SortOrder: "asc", Limit: 1})
	if asc[0].DecisionID != "rec-000" {
		t.Errorf("ascending first = %s, want rec-000", asc[0].DecisionID)
	}

	start := baseTime.Add(7 * time.Minute)
	if n := log.Count(&Query{StartTime: &start}); n != 3 {
		t.Errorf("Count(start>=7m) = %d, want 3", n)
	}

	if got := log.List(&Query{Offset: 50}); len(got) != 0 {
		t.Errorf("offset past end returned %d records", len(got))
	}
	if got := log.List(&Query{MetricID: " Revenue"}); len(got) != 10 {
		t.Errorf("metric filter returned %d records, want 10", len(got))
	}
}

// TestLog_ConcurrentAppend tests that concurrent writers never push the log
// past capacity and readers always see whole records.
func TestLog_ConcurrentAppend(t *testing.T) {
	log := NewLog(50)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				rec := makeRecord(i, guard.StatusAllow)
				rec.DecisionID = fmt.Sprintf("w%d-%d", w, i)
				if err := log.Append(rec); err != nil {
					t.Errorf("Append() failed: %v", err)
				}
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, r := range log.Snapshot() {
				if r.DecisionID == "" || len(r.Evaluation.RuleResults) != 1 {
					t.Errorf("observed partial record %+v", r)
					return
				}
			}
			if n := log.Len(); n > 50 {
				t.Errorf("Len() = %d exceeds capacity", n)
				return
			}
		}
	}()

	wg.Wait()
	if log.Len() != 50 {
		t.Errorf("final Len() = %d, want 50", log.Len())
	}
}
