package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/guard"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *audit.Query) error {
	if q.Limit < 0 {
		return audit.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return audit.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	if q.Offset < 0 {
		return audit.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return audit.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil {
		if q.StartTime.After(*q.EndTime) {
			return audit.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
		}
	}

	if q.DecisionType != "" && !q.DecisionType.IsValid() {
		return audit.NewQueryError(q, fmt.Errorf("invalid decision_type: %s", q.DecisionType))
	}

	if q.FinalStatus != "" && !q.FinalStatus.IsValid() {
		return audit.NewQueryError(q, fmt.Errorf("invalid final_status: %s", q.FinalStatus))
	}

	// An original verdict is never OVERRIDDEN.
	if q.OriginalStatus != "" && (!q.OriginalStatus.IsValid() || q.OriginalStatus == guard.StatusOverridden) {
		return audit.NewQueryError(q, fmt.Errorf("invalid original_status: %s (must be 'ALLOW', 'WARN', or 'BLOCK')", q.OriginalStatus))
	}

	if q.Outcome != "" && !q.Outcome.IsValid() {
		return audit.NewQueryError(q, fmt.Errorf("invalid outcome: %s", q.Outcome))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *audit.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}

// FromValues builds a query from URL parameters. Unknown parameters are
// ignored. Times use RFC 3339. The result is validated.
func FromValues(v url.Values) (*audit.Query, error) {
	q := &audit.Query{
		MetricID:       strings.TrimSpace(v.Get("metric_id")),
		DecisionType:   catalog.DecisionType(strings.ToLower(strings.TrimSpace(v.Get("decision_type")))),
		FinalStatus:    guard.DecisionStatus(strings.ToUpper(strings.TrimSpace(v.Get("final_status")))),
		OriginalStatus: guard.DecisionStatus(strings.ToUpper(strings.TrimSpace(v.Get("original_status")))),
		Outcome:        audit.OutcomeStatus(strings.TrimSpace(v.Get("outcome"))),
		SortOrder:      strings.ToLower(strings.TrimSpace(v.Get("sort_order"))),
	}

	var err error
	if q.StartTime, err = parseTime(v, "start_time"); err != nil {
		return nil, audit.NewQueryError(q, err)
	}
	if q.EndTime, err = parseTime(v, "end_time"); err != nil {
		return nil, audit.NewQueryError(q, err)
	}
	if q.Limit, err = parseInt(v, "limit"); err != nil {
		return nil, audit.NewQueryError(q, err)
	}
	if q.Offset, err = parseInt(v, "offset"); err != nil {
		return nil, audit.NewQueryError(q, err)
	}
	if s := v.Get("overridden_only"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, audit.NewQueryError(q, fmt.Errorf("invalid overridden_only: %q", s))
		}
		q.OverriddenOnly = b
	}

	if err := Validate(q); err != nil {
		return nil, err
	}
	return q, nil
}

func parseTime(v url.Values, key string) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q (must be RFC 3339)", key, s)
	}
	return &t, nil
}

func parseInt(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
