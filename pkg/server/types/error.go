package types

import (
	"encoding/json"
	"net/http"

	"mercator-hq/metricguard/pkg/guard"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error and determines the HTTP status.
	Type string `json:"type"`

	// Param is the request parameter that caused the error, if any.
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// Fields lists every field that failed validation.
	Fields []guard.FieldError `json:"fields,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error" // 400
	ErrorTypeNotFound           = "not_found"             // 404
	ErrorTypeMethodNotAllowed   = "method_not_allowed"    // 405
	ErrorTypeConflict           = "conflict"              // 409
	ErrorTypeRequestTooLarge    = "request_too_large"     // 413
	ErrorTypeRateLimit          = "rate_limit_exceeded"   // 429
	ErrorTypeServerError        = "server_error"          // 500
	ErrorTypeServiceUnavailable = "service_unavailable"   // 503
	ErrorTypeGatewayTimeout     = "gateway_timeout"       // 504
)

// Error codes.
const (
	CodeInvalidJSON        = "invalid_json"
	CodeInvalidValue       = "invalid_value"
	CodeValidationFailed   = "validation_failed"
	CodeDecisionNotFound   = "decision_not_found"
	CodeMetricNotFound     = "metric_not_found"
	CodeNotOverridable     = "not_overridable"
	CodeAlreadyOverridden  = "already_overridden"
	CodeRequestTooLarge    = "request_too_large"
	CodeRequestTimeout     = "request_timeout"
	CodeRateLimited        = "rate_limited"
	CodeInternalError      = "internal_error"
	CodeArchiveUnavailable = "archive_unavailable"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewValidationError creates a 400 response listing every field error.
func NewValidationError(verr *guard.ValidationError) *ErrorResponse {
	resp := NewInvalidRequestError(verr.Error(), "", CodeValidationFailed)
	resp.Error.Fields = verr.Errors
	if len(verr.Errors) == 1 {
		resp.Error.Param = verr.Errors[0].Field
	}
	return resp
}

// NewNotFoundError creates an error response for unknown resources (404).
func NewNotFoundError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeNotFound, "", code)
}

// NewConflictError creates an error response for failed preconditions (409).
func NewConflictError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeConflict, "", code)
}

// NewRateLimitError creates an error response for throttled clients (429).
func NewRateLimitError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeRateLimit, "", CodeRateLimited)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewGatewayTimeoutError creates an error response for requests that ran
// past their deadline (504).
func NewGatewayTimeoutError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeGatewayTimeout, "", CodeRequestTimeout)
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Write encodes the response with its status code.
func (e *ErrorResponse) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Error.HTTPStatusCode())
	_ = json.NewEncoder(w).Encode(e)
}
