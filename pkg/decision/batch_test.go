package decision

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/metricguard/pkg/guard"
)

// TestEvaluateBatch tests ordering and per-item errors.
func TestEvaluateBatch(t *testing.T) {
	lc, log := newTestLifecycle(t)

	bad := healthyRequest()
	bad.SampleSize = -5

	reqs := []*guard.DecisionRequest{healthyRequest(), bad, warnRequest(), healthyRequest()}
	items, err := lc.EvaluateBatch(context.Background(), reqs, 2)
	if err != nil {
		t.Fatalf("EvaluateBatch() failed: %v", err)
	}
	if len(items) != len(reqs) {
		t.Fatalf("items = %d, want %d", len(items), len(reqs))
	}

	wantStatus := []guard.DecisionStatus{guard.StatusAllow, "", guard.StatusWarn, guard.StatusAllow}
	for i, item := range items {
		if item.Index != i {
			t.Errorf("items[%d].Index = %d", i, item.Index)
		}
		if wantStatus[i] == "" {
			var verr *guard.ValidationError
			if !errors.As(item.Err, &verr) {
				t.Errorf("items[%d].Err = %v, want ValidationError", i, item.Err)
			}
			continue
		}
		if item.Err != nil {
			t.Fatalf("items[%d].Err = %v", i, item.Err)
		}
		if item.Outcome.Result.Status != wantStatus[i] {
			t.Errorf("items[%d] status = %s, want %s", i, item.Outcome.Result.Status, wantStatus[i])
		}
	}

	if log.Len() != 3 {
		t.Errorf("log length = %d, want 3", log.Len())
	}
}

// TestEvaluateBatch_Cancelled tests that a cancelled context records nothing.
func TestEvaluateBatch_Cancelled(t *testing.T) {
	lc, log := newTestLifecycle(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := lc.EvaluateBatch(ctx, []*guard.DecisionRequest{healthyRequest(), healthyRequest()}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("EvaluateBatch() error = %v, want context.Canceled", err)
	}
	for i, item := range items {
		if !errors.Is(item.Err, context.Canceled) {
			t.Errorf("items[%d].Err = %v, want context.Canceled", i, item.Err)
		}
	}
	if log.Len() != 0 {
		t.Errorf("log length = %d, want 0", log.Len())
	}
}
