package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/decision"
	"mercator-hq/metricguard/pkg/guard"
	"mercator-hq/metricguard/pkg/server/types"
)

// decodeError wraps a malformed or oversized request body.
type decodeError struct {
	cause error
}

func (e *decodeError) Error() string { return fmt.Sprintf("invalid request body: %v", e.cause) }
func (e *decodeError) Unwrap() error { return e.cause }

// metricNotFoundError is returned for catalog lookups of unknown metrics.
type metricNotFoundError struct {
	id string
}

func (e *metricNotFoundError) Error() string { return fmt.Sprintf("metric not found: %s", e.id) }

func fieldError(field, message string) *guard.ValidationError {
	verr := &guard.ValidationError{}
	verr.Add(field, message)
	return verr
}

// toErrorResponse maps domain errors to API error bodies:
// validation → 400, precondition → 409, not found → 404, deadline → 504,
// everything else 500.
func toErrorResponse(err error) *types.ErrorResponse {
	var (
		verr     *guard.ValidationError
		qerr     *audit.QueryError
		perr     *decision.PreconditionError
		derr     *decodeError
		maxErr   *http.MaxBytesError
		notFound *metricNotFoundError
	)

	switch {
	case errors.As(err, &maxErr):
		return types.NewErrorResponse(
			fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
			types.ErrorTypeRequestTooLarge, "", types.CodeRequestTooLarge,
		)
	case errors.As(err, &derr):
		return types.NewInvalidRequestError(derr.Error(), "", types.CodeInvalidJSON)
	case errors.As(err, &verr):
		return types.NewValidationError(verr)
	case errors.As(err, &qerr):
		return types.NewInvalidRequestError(qerr.Error(), "", types.CodeInvalidValue)
	case errors.As(err, &perr):
		code := types.CodeNotOverridable
		if errors.Is(err, audit.ErrAlreadyOverridden) {
			code = types.CodeAlreadyOverridden
		}
		return types.NewConflictError(perr.Error(), code)
	case errors.Is(err, decision.ErrRecordNotFound):
		return types.NewNotFoundError(err.Error(), types.CodeDecisionNotFound)
	case errors.As(err, &notFound):
		return types.NewNotFoundError(notFound.Error(), types.CodeMetricNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewGatewayTimeoutError("request timeout: the request took too long to complete")
	default:
		return types.NewServerError("An internal error occurred. Please try again later.")
	}
}

// writeError writes the mapped error response. Server errors are logged with
// their cause, which is never sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := toErrorResponse(err)
	if code := resp.Error.HTTPStatusCode(); code >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", code,
			"error", err,
		)
	}
	resp.Write(w)
}
