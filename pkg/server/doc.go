// Package server provides the HTTP JSON API of metricguard.
//
// # Routes
//
//   - POST /v1/decisions: evaluate one decision request (201, Location header)
//   - POST /v1/decisions/batch: evaluate up to 100 requests concurrently
//   - GET /v1/decisions: list audit records (metric_id, decision_type,
//     final_status, original_status, outcome, overridden_only, start_time,
//     end_time, limit, offset, sort_order)
//   - GET /v1/decisions/{id}: fetch one audit record
//   - POST /v1/decisions/{id}/override: override a WARN decision
//   - PUT /v1/decisions/{id}/outcome: label the business outcome
//   - GET /v1/stats: audit log summary
//   - GET /v1/metrics: list the catalog, optionally by decision_type
//   - GET /v1/metrics/{id}: one metric definition
//   - GET /v1/metrics/{id}/certification: certification summary
//
// Health and Prometheus endpoints are mounted from pkg/telemetry when a
// Telemetry bundle is supplied.
//
// # Errors
//
// Every error body has the shape
//
//	{"error": {"message": "...", "type": "invalid_request_error", "code": "validation_failed", "fields": [...]}}
//
// Validation failures map to 400, failed preconditions (overriding a
// non-WARN or already overridden decision) to 409, unknown decisions to 404
// and requests past their deadline to 504. Throttled clients get 429 with a
// Retry-After header when server.rate_limit is enabled.
//
// # TLS
//
// With server.tls enabled the listener serves HTTPS from the configured PEM
// files, reloading them when they change (see pkg/server/certs).
//
// # Middleware Chain
//
// See pkg/server/middleware. Recovery is outermost, the per-request timeout
// innermost.
package server
