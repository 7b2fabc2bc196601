// Package middleware provides the HTTP middleware chain of the decision API.
//
// Requests pass through the following middleware (outermost first):
//  1. Recovery: recovers from panics and returns a 500 error
//  2. Logging: logs method, route, status and latency on completion
//  3. RequestID: assigns or propagates X-Request-ID
//  4. Tracing: server span per request (pkg/telemetry/tracing)
//  5. Metrics: request count and latency per route
//  6. RateLimit: per-client request rate and global concurrency cap, /v1/ only
//  7. Timeout: per-request context deadline
//
// Route-aware middleware learns the matched pattern from SetRoute, which the
// server calls from inside the mux.
package middleware
