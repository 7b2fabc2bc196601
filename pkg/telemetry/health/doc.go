// Package health provides liveness, readiness and version endpoints.
//
// Liveness only reports that the process is running. Readiness runs every
// registered component check concurrently, each under its own timeout, and
// answers 503 when any of them fails. metricguard registers two checks:
//
//   - catalog: the metric catalog holds at least one definition
//   - archive: the SQLite audit archive answers a ping (when enabled)
//
// Paths come from config.HealthConfig and default to /health, /ready and
// /version.
package health
