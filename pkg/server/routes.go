package server

import (
	"net/http"

	"mercator-hq/metricguard/pkg/server/middleware"
	"mercator-hq/metricguard/pkg/telemetry/tracing"
)

// registerRoutes mounts the decision and catalog API.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/decisions", s.handleEvaluate)
	mux.HandleFunc("POST /v1/decisions/batch", s.handleEvaluateBatch)
	mux.HandleFunc("GET /v1/decisions", s.handleListDecisions)
	mux.HandleFunc("GET /v1/decisions/{id}", s.handleGetDecision)
	mux.HandleFunc("POST /v1/decisions/{id}/override", s.handleOverride)
	mux.HandleFunc("PUT /v1/decisions/{id}/outcome", s.handleUpdateOutcome)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	mux.HandleFunc("GET /v1/metrics", s.handleListMetrics)
	mux.HandleFunc("GET /v1/metrics/{id}", s.handleGetMetric)
	mux.HandleFunc("GET /v1/metrics/{id}/certification", s.handleCertification)
}

// routed resolves the route pattern before dispatch so that outer middleware
// can label logs, metrics and spans with it. Unmatched requests keep an
// empty route.
func routed(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			middleware.SetRoute(r.Context(), pattern)
			tracing.SetRoute(r.Context(), pattern)
		}
		mux.ServeHTTP(w, r)
	})
}
