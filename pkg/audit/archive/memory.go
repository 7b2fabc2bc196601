package archive

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mercator-hq/metricguard/pkg/audit"
)

// MemoryArchive implements audit.Archive using an in-memory map.
type MemoryArchive struct {
	records map[string]*audit.Record
	mu      sync.RWMutex
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		records: make(map[string]*audit.Record),
	}
}

// Store persists a copy of the record.
func (a *MemoryArchive) Store(ctx context.Context, record *audit.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records[record.DecisionID] = record.Clone()
	return nil
}

// UpdateOutcome replaces the outcome block of a stored record.
func (a *MemoryArchive) UpdateOutcome(ctx context.Context, decisionID string, outcome audit.OutcomeTracking) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.records[decisionID]
	if !ok {
		return fmt.Errorf("%w: %s", audit.ErrRecordNotFound, decisionID)
	}
	r.Outcome = outcome
	if outcome.UpdatedAt != nil {
		ts := *outcome.UpdatedAt
		r.Outcome.UpdatedAt = &ts
	}
	return nil
}

// Get returns a copy of the record with the given ID.
func (a *MemoryArchive) Get(ctx context.Context, decisionID string) (*audit.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r, ok := a.records[decisionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", audit.ErrRecordNotFound, decisionID)
	}
	return r.Clone(), nil
}

// Query retrieves records matching the query filters.
func (a *MemoryArchive) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	results := a.sortedMatches(query)
	results = audit.Paginate(results, query)

	out := make([]*audit.Record, len(results))
	for i, r := range results {
		out[i] = r.Clone()
	}
	return out, nil
}

// QueryStream streams matching records over a channel.
func (a *MemoryArchive) QueryStream(ctx context.Context, query *audit.Query) (<-chan *audit.Record, <-chan error, error) {
	records, err := a.Query(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	recordsCh := make(chan *audit.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, r := range records {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- r:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of records matching the query filters.
func (a *MemoryArchive) Count(ctx context.Context, query *audit.Query) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var n int64
	for _, r := range a.records {
		if query.Matches(r) {
			n++
		}
	}
	return n, nil
}

// Delete removes records matching the query filters.
func (a *MemoryArchive) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var n int64
	for id, r := range a.records {
		if query.Matches(r) {
			delete(a.records, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op for the in-memory archive.
func (a *MemoryArchive) Close() error {
	return nil
}

// Size returns the number of stored records.
func (a *MemoryArchive) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// sortedMatches returns matching records ordered by timestamp. Callers must
// hold the read lock.
func (a *MemoryArchive) sortedMatches(query *audit.Query) []*audit.Record {
	var results []*audit.Record
	for _, r := range a.records {
		if query.Matches(r) {
			results = append(results, r)
		}
	}

	asc := query.Ascending()
	sort.Slice(results, func(i, j int) bool {
		ti, tj := results[i].Timestamp, results[j].Timestamp
		if ti.Equal(tj) {
			if asc {
				return results[i].DecisionID < results[j].DecisionID
			}
			return results[i].DecisionID > results[j].DecisionID
		}
		if asc {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})
	return results
}
