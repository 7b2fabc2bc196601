package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/audit/archive"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/guard"
)

func sealedRecord(t *testing.T, i int) *audit.Record {
	t.Helper()
	ts := time.Date(2025, 6, 1, 12, i, 0, 0, time.UTC)
	r := &audit.Record{
		DecisionID:   fmt.Sprintf("rec-%03d", i),
		Timestamp:    ts,
		DecisionType: catalog.DecisionGrowth,
		MetricID:     "retention",
		Input: audit.InputContext{
			TimeRange:       guard.TimeRange{Start: ts.Add(-7 * 24 * time.Hour), End: ts},
			SampleSize:      400,
			DataLastUpdated: ts.Add(-2 * time.Hour),
		},
		State: audit.DecisionState{
			OriginalStatus:     guard.StatusAllow,
			OriginalConfidence: 1,
			FinalStatus:        guard.StatusAllow,
			FinalConfidence:    1,
		},
		Outcome: audit.OutcomeTracking{Outcome: audit.OutcomeUnknown},
	}
	if err := audit.Seal(r); err != nil {
		t.Fatalf("Seal() failed: %v", err)
	}
	return r
}

// TestRecorder_RecordAppended tests that appended records reach the archive.
func TestRecorder_RecordAppended(t *testing.T) {
	store := archive.NewMemoryArchive()
	config := DefaultConfig()
	config.AsyncBuffer = 10

	rec := New(store, config)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := rec.RecordAppended(ctx, sealedRecord(t, i)); err != nil {
			t.Fatalf("RecordAppended() failed: %v", err)
		}
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if store.Size() != 3 {
		t.Errorf("archive size = %d, want 3", store.Size())
	}
	if got := rec.Stats().Written; got != 3 {
		t.Errorf("Stats().Written = %d, want 3", got)
	}
}

// TestRecorder_OutcomeAfterAppend tests that an outcome update written right
// after its record is applied in order.
func TestRecorder_OutcomeAfterAppend(t *testing.T) {
	store := archive.NewMemoryArchive()
	rec := New(store, DefaultConfig())
	ctx := context.Background()

	r := sealedRecord(t, 1)
	if err := rec.RecordAppended(ctx, r); err != nil {
		t.Fatalf("RecordAppended() failed: %v", err)
	}
	if err := rec.OutcomeUpdated(ctx, r.DecisionID, audit.OutcomeTracking{Outcome: audit.OutcomePositive}); err != nil {
		t.Fatalf("OutcomeUpdated() failed: %v", err)
	}
	rec.Close()

	got, err := store.Get(ctx, r.DecisionID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Outcome.Outcome != audit.OutcomePositive {
		t.Errorf("Outcome = %s, want Positive", got.Outcome.Outcome)
	}
}

// TestRecorder_RecordIsCopied tests that later mutation by the caller does
// not leak into the queued record.
func TestRecorder_RecordIsCopied(t *testing.T) {
	store := archive.NewMemoryArchive()
	rec := New(store, DefaultConfig())

	r := sealedRecord(t, 1)
	if err := rec.RecordAppended(context.Background(), r); err != nil {
		t.Fatalf("RecordAppended() failed: %v", err)
	}
	r.MetricID = "mutated"
	rec.Close()

	got, err := store.Get(context.Background(), r.DecisionID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.MetricID != "retention" {
		t.Errorf("MetricID = %q, want retention", got.MetricID)
	}
}

// TestRecorder_Disabled tests that a disabled recorder writes nothing.
func TestRecorder_Disabled(t *testing.T) {
	store := archive.NewMemoryArchive()
	config := DefaultConfig()
	config.Enabled = false

	rec := New(store, config)
	if err := rec.RecordAppended(context.Background(), sealedRecord(t, 1)); err != nil {
		t.Fatalf("RecordAppended() failed: %v", err)
	}
	rec.Close()

	if store.Size() != 0 {
		t.Errorf("archive size = %d, want 0", store.Size())
	}
}

// TestRecorder_IntegrityFailure tests that tampered records are not archived.
func TestRecorder_IntegrityFailure(t *testing.T) {
	store := archive.NewMemoryArchive()
	rec := New(store, DefaultConfig())

	r := sealedRecord(t, 1)
	r.State.FinalConfidence = 0.1
	if err := rec.RecordAppended(context.Background(), r); err != nil {
		t.Fatalf("RecordAppended() failed: %v", err)
	}
	rec.Close()

	if store.Size() != 0 {
		t.Errorf("archive size = %d, want 0", store.Size())
	}
	if got := rec.Stats().Failed; got != 1 {
		t.Errorf("Stats().Failed = %d, want 1", got)
	}
}

// TestRecorder_AfterClose tests that events after Close are rejected.
func TestRecorder_AfterClose(t *testing.T) {
	rec := New(archive.NewMemoryArchive(), DefaultConfig())
	rec.Close()
	rec.Close()

	err := rec.RecordAppended(context.Background(), sealedRecord(t, 1))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("RecordAppended() error = %v, want ErrClosed", err)
	}
	var recErr *audit.RecorderError
	if !errors.As(err, &recErr) || recErr.DecisionID != "rec-001" {
		t.Errorf("RecordAppended() error = %v, want RecorderError for rec-001", err)
	}
}

// blockingArchive blocks every Store until released.
type blockingArchive struct {
	*archive.MemoryArchive
	release chan struct{}
	once    sync.Once
}

func (b *blockingArchive) Store(ctx context.Context, r *audit.Record) error {
	<-b.release
	return b.MemoryArchive.Store(ctx, r)
}

func (b *blockingArchive) unblock() {
	b.once.Do(func() { close(b.release) })
}

// TestRecorder_DropsWhenFull tests the enqueue timeout under backpressure.
func TestRecorder_DropsWhenFull(t *testing.T) {
	store := &blockingArchive{MemoryArchive: archive.NewMemoryArchive(), release: make(chan struct{})}
	config := DefaultConfig()
	config.AsyncBuffer = 1
	config.WriteTimeout = 20 * time.Millisecond

	rec := New(store, config)
	defer func() {
		store.unblock()
		rec.Close()
	}()

	ctx := context.Background()
	var dropped int
	for i := 1; i <= 4; i++ {
		if err := rec.RecordAppended(ctx, sealedRecord(t, i)); err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("RecordAppended() error = %v, want DeadlineExceeded", err)
			}
			dropped++
		}
	}

	if dropped == 0 {
		t.Error("expected at least one dropped event")
	}
	if got := rec.Stats().Dropped; got != int64(dropped) {
		t.Errorf("Stats().Dropped = %d, want %d", got, dropped)
	}
}
