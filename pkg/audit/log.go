package audit

import (
	"fmt"
	"sync"
)

// DefaultCapacity is the number of records the log retains.
const DefaultCapacity = 100

// Log is a bounded, most-recent-first store of audit records.
//
// Records live in an arena keyed by decision ID; order holds the IDs newest
// first and drives eviction. All writes hold the write lock for the whole
// insert-and-evict or update, so readers never observe a partial append.
type Log struct {
	mu       sync.RWMutex
	capacity int
	records  map[string]*Record
	order    []string

	// overriddenBy maps a WARN record ID to the override derived from it.
	overriddenBy map[string]string

	onEvict func(*Record)
}

// NewLog creates an empty log. A non-positive capacity uses DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity:     capacity,
		records:      make(map[string]*Record, capacity),
		order:        make([]string, 0, capacity+1),
		overriddenBy: make(map[string]string),
	}
}

// OnEvict registers a callback invoked, under the write lock, with every
// record evicted for capacity. The callback must not call back into the log.
func (l *Log) OnEvict(fn func(*Record)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onEvict = fn
}

// Append inserts a copy of the record at the front of the log, evicting the
// oldest-inserted record if the log is over capacity.
func (l *Log) Append(r *Record) error {
	if r == nil || r.DecisionID == "" {
		return fmt.Errorf("audit record requires a decision id")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[r.DecisionID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, r.DecisionID)
	}

	l.insertLocked(r.Clone())
	return nil
}

// AppendOverride appends an override record after atomically checking that
// its source record is still present and has not been overridden before.
func (l *Log) AppendOverride(r *Record) error {
	if r == nil || r.DecisionID == "" {
		return fmt.Errorf("audit record requires a decision id")
	}
	source := r.Override.SourceDecisionID
	if !r.Override.Used || source == "" {
		return fmt.Errorf("record %s is not an override", r.DecisionID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[r.DecisionID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, r.DecisionID)
	}
	if _, ok := l.records[source]; !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, source)
	}
	if prior, done := l.overriddenBy[source]; done {
		return fmt.Errorf("%w: %s (by %s)", ErrAlreadyOverridden, source, prior)
	}

	l.overriddenBy[source] = r.DecisionID
	l.insertLocked(r.Clone())
	return nil
}

func (l *Log) insertLocked(r *Record) {
	l.records[r.DecisionID] = r

	l.order = append(l.order, "")
	copy(l.order[1:], l.order)
	l.order[0] = r.DecisionID

	for len(l.order) > l.capacity {
		oldest := l.order[len(l.order)-1]
		l.order = l.order[:len(l.order)-1]

		evicted := l.records[oldest]
		delete(l.records, oldest)
		delete(l.overriddenBy, oldest)
		if evicted != nil && evicted.Override.Used {
			if l.overriddenBy[evicted.Override.SourceDecisionID] == oldest {
				delete(l.overriddenBy, evicted.Override.SourceDecisionID)
			}
		}
		if l.onEvict != nil && evicted != nil {
			l.onEvict(evicted.Clone())
		}
	}
}

// Get returns a copy of the record with the given ID.
func (l *Log) Get(decisionID string) (*Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.records[decisionID]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// OverriddenBy returns the ID of the override derived from a record, if any.
func (l *Log) OverriddenBy(decisionID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.overriddenBy[decisionID]
	return id, ok
}

// UpdateOutcome replaces the outcome block of a record and returns a copy of
// the updated record. It never creates a record.
func (l *Log) UpdateOutcome(decisionID string, outcome OutcomeTracking) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[decisionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, decisionID)
	}

	if outcome.UpdatedAt != nil {
		ts := *outcome.UpdatedAt
		outcome.UpdatedAt = &ts
	}
	r.Outcome = outcome
	return r.Clone(), nil
}

// List returns copies of the records matching the query, newest first unless
// the query asks for ascending order.
func (l *Log) List(q *Query) []*Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Record, 0, len(l.order))
	if q.Ascending() {
		for i := len(l.order) - 1; i >= 0; i-- {
			if r := l.records[l.order[i]]; q.Matches(r) {
				out = append(out, r)
			}
		}
	} else {
		for _, id := range l.order {
			if r := l.records[id]; q.Matches(r) {
				out = append(out, r)
			}
		}
	}

	out = Paginate(out, q)
	for i, r := range out {
		out[i] = r.Clone()
	}
	return out
}

// Count returns the number of records matching the query, ignoring pagination.
func (l *Log) Count(q *Query) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, id := range l.order {
		if q.Matches(l.records[id]) {
			n++
		}
	}
	return n
}

// Snapshot returns copies of every record, newest first.
func (l *Log) Snapshot() []*Record {
	return l.List(nil)
}

// Len returns the number of records currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Capacity returns the maximum number of records held.
func (l *Log) Capacity() int {
	return l.capacity
}
