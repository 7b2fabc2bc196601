package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/audit/query"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/decision"
	"mercator-hq/metricguard/pkg/guard"
)

// MaxBatchSize bounds the number of requests in one batch call.
const MaxBatchSize = 100

// BatchRequest is the body of POST /v1/decisions/batch.
type BatchRequest struct {
	Requests []*guard.DecisionRequest `json:"requests"`
}

// BatchResult is one entry of a batch response. Exactly one of Outcome and
// Error is set.
type BatchResult struct {
	Index   int               `json:"index"`
	Outcome *decision.Outcome `json:"outcome,omitempty"`
	Error   *BatchResultError `json:"error,omitempty"`
}

// BatchResultError is the per-item error of a batch response.
type BatchResultError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// BatchResponse is the body returned by POST /v1/decisions/batch.
type BatchResponse struct {
	Results   []BatchResult `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

// OverrideRequest is the body of POST /v1/decisions/{id}/override.
type OverrideRequest struct {
	Justification string `json:"justification"`
}

// OutcomeRequest is the body of PUT /v1/decisions/{id}/outcome.
type OutcomeRequest struct {
	Outcome audit.OutcomeStatus `json:"outcome"`
	Notes   string              `json:"notes,omitempty"`
}

// ListResponse is the body returned by GET /v1/decisions.
type ListResponse struct {
	Records []*audit.Record `json:"records"`
	Count   int             `json:"count"`
	Total   int             `json:"total"` // Matches before pagination
}

// MetricsResponse is the body returned by GET /v1/metrics.
type MetricsResponse struct {
	Metrics []*catalog.MetricDefinition `json:"metrics"`
	Count   int                         `json:"count"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req guard.DecisionRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.lifecycle.Evaluate(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/decisions/"+out.Record.DecisionID)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if !s.decode(w, r, &body) {
		return
	}
	if len(body.Requests) == 0 {
		s.writeError(w, r, fieldError("requests", "must contain at least one request"))
		return
	}
	if len(body.Requests) > MaxBatchSize {
		s.writeError(w, r, fieldError("requests", fmt.Sprintf("must contain at most %d requests", MaxBatchSize)))
		return
	}
	for i, req := range body.Requests {
		if req == nil {
			s.writeError(w, r, fieldError(fmt.Sprintf("requests[%d]", i), "must not be null"))
			return
		}
	}

	items, err := s.lifecycle.EvaluateBatch(r.Context(), body.Requests, s.config.BatchConcurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := BatchResponse{Results: make([]BatchResult, len(items))}
	for i, item := range items {
		resp.Results[i] = BatchResult{Index: item.Index, Outcome: item.Outcome}
		if item.Err != nil {
			errResp := toErrorResponse(item.Err)
			resp.Results[i].Error = &BatchResultError{
				Status:  errResp.Error.HTTPStatusCode(),
				Message: errResp.Error.Message,
			}
			resp.Failed++
			continue
		}
		resp.Succeeded++
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	q, err := query.FromValues(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	records := s.lifecycle.Records(q)
	writeJSON(w, http.StatusOK, ListResponse{
		Records: records,
		Count:   len(records),
		Total:   s.lifecycle.Log().Count(q),
	})
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	record, err := s.lifecycle.Record(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	var body OverrideRequest
	if !s.decode(w, r, &body) {
		return
	}

	out, err := s.lifecycle.Override(r.Context(), r.PathValue("id"), body.Justification)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/decisions/"+out.Record.DecisionID)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateOutcome(w http.ResponseWriter, r *http.Request) {
	var body OutcomeRequest
	if !s.decode(w, r, &body) {
		return
	}

	record, err := s.lifecycle.UpdateOutcome(r.Context(), r.PathValue("id"), body.Outcome, body.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lifecycle.Stats())
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	defs := s.lifecycle.Catalog().List()

	if dt := r.URL.Query().Get("decision_type"); dt != "" {
		d, err := catalog.ParseDecisionType(dt)
		if err != nil {
			s.writeError(w, r, fieldError("decision_type", err.Error()))
			return
		}
		filtered := defs[:0]
		for _, def := range defs {
			if def.Allows(d) {
				filtered = append(filtered, def)
			}
		}
		defs = filtered
	}

	writeJSON(w, http.StatusOK, MetricsResponse{Metrics: defs, Count: len(defs)})
}

func (s *Server) handleGetMetric(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lifecycle.Catalog().Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, r, &metricNotFoundError{id: r.PathValue("id")})
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handleCertification reports certification for any identifier; unknown
// metrics are certified for nothing rather than reported as missing.
func (s *Server) handleCertification(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Certify(s.lifecycle.Catalog(), r.PathValue("id")))
}

// decode reads a JSON body bounded by MaxBodyBytes. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, &decodeError{cause: err})
		return false
	}
	if dec.More() {
		s.writeError(w, r, &decodeError{cause: errors.New("unexpected data after JSON body")})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
