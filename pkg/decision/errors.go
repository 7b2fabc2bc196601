package decision

import (
	"fmt"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/guard"
)

// ErrRecordNotFound is returned when an operation names an unknown or
// evicted decision.
var ErrRecordNotFound = audit.ErrRecordNotFound

// PreconditionError is returned when the named record is not in a state the
// operation accepts.
type PreconditionError struct {
	DecisionID string
	Status     guard.DecisionStatus // Final status of the record
	Reason     string
	Cause      error // Optional underlying sentinel
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed [decision_id=%s, status=%s]: %s", e.DecisionID, e.Status, e.Reason)
}

// Unwrap returns the underlying cause error.
func (e *PreconditionError) Unwrap() error {
	return e.Cause
}

func validationError(field, message string) *guard.ValidationError {
	verr := &guard.ValidationError{}
	verr.Add(field, message)
	return verr
}
