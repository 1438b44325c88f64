// Package api provides HTTP handlers for the ranking API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/irisrank/internal/entity"
	"github.com/onnwee/irisrank/internal/middleware"
	"github.com/onnwee/irisrank/internal/nextsteps"
	"github.com/onnwee/irisrank/internal/rank"
)

// maxBodyBytes caps request bodies. A full 1000-entity batch with activity
// histories fits comfortably under this.
const maxBodyBytes = 16 << 20 // 16 MiB

// RankHandlers holds dependencies for the ranking HTTP handlers.
type RankHandlers struct {
	svc       *rank.Service
	nextSteps nextsteps.Generator
}

// NewRankHandlers creates a new RankHandlers instance.
func NewRankHandlers(svc *rank.Service, gen nextsteps.Generator) *RankHandlers {
	return &RankHandlers{
		svc:       svc,
		nextSteps: gen,
	}
}

// scoreRequestBody is the JSON body shared by the scoring endpoints.
type scoreRequestBody struct {
	Entities        []entity.Entity `json:"entities"`
	Context         entity.Context  `json:"context"`
	Limit           int             `json:"limit"`
	WeightsOverride *rank.Weights   `json:"weights_override,omitempty"`

	// InactivityThresholdDays only applies to /rank/at-risk.
	InactivityThresholdDays int `json:"inactivity_threshold_days,omitempty"`
}

// batchRequestBody is the JSON body for /rank/batch.
type batchRequestBody struct {
	Batches []rank.BatchRequest `json:"batches"`
}

// weightsPatchBody is the JSON body for PATCH /rank/weights.
type weightsPatchBody struct {
	Network   *float64 `json:"network,omitempty"`
	Activity  *float64 `json:"activity,omitempty"`
	Relevance *float64 `json:"relevance,omitempty"`
	Momentum  *float64 `json:"momentum,omitempty"`
}

// decodeJSON decodes the request body into dst, enforcing the size cap.
// Returns false after writing the error response when the body is invalid.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeCodedError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeJSON writes a 200 JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err, "path", r.URL.Path)
	}
}

// writeRankError maps engine errors to API error responses.
func writeRankError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *rank.ValidationError
	var cfgErr *rank.ConfigError
	var compErr *rank.ComputationError

	switch {
	case errors.As(err, &verr):
		writeCodedError(w, r, http.StatusBadRequest, ErrCodeValidation, verr.Reason)
	case errors.As(err, &cfgErr):
		writeCodedError(w, r, http.StatusUnprocessableEntity, ErrCodeConfig, cfgErr.Error())
	case errors.As(err, &compErr):
		slog.ErrorContext(r.Context(), "scoring computation failed", "error", err)
		writeCodedError(w, r, http.StatusInternalServerError, ErrCodeComputation, "scoring failed")
	default:
		slog.ErrorContext(r.Context(), "unexpected scoring error", "error", err)
		writeCodedError(w, r, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// requireMethod rejects requests with the wrong verb.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeCodedError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed")
		return false
	}
	return true
}

// toScoreRequest converts a decoded body into an engine request, attaching the
// authenticated caller for cache keying.
func toScoreRequest(r *http.Request, body *scoreRequestBody) rank.ScoreRequest {
	return rank.ScoreRequest{
		CallerID:        middleware.GetCallerID(r.Context()),
		Entities:        body.Entities,
		Context:         body.Context,
		Limit:           body.Limit,
		WeightsOverride: body.WeightsOverride,
	}
}

// Score handles POST /rank/score - ranks a set of entities.
func (h *RankHandlers) Score(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body scoreRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	results, err := h.svc.Score(r.Context(), toScoreRequest(r, &body))
	if err != nil {
		writeRankError(w, r, err)
		return
	}

	writeJSON(w, r, map[string]any{"results": results})
}

// Batch handles POST /rank/batch - ranks up to 10 independent entity sets.
func (h *RankHandlers) Batch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body batchRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	results, err := h.svc.BatchScore(r.Context(), middleware.GetCallerID(r.Context()), body.Batches)
	if err != nil {
		writeRankError(w, r, err)
		return
	}

	writeJSON(w, r, map[string]any{"batches": results})
}

// AtRisk handles POST /rank/at-risk - surfaces entities with declining engagement.
func (h *RankHandlers) AtRisk(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body scoreRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	risks, err := h.svc.AtRisk(r.Context(), toScoreRequest(r, &body), body.InactivityThresholdDays)
	if err != nil {
		writeRankError(w, r, err)
		return
	}

	writeJSON(w, r, map[string]any{"results": risks})
}

// Momentum handles POST /rank/momentum - surfaces entities gaining ground.
func (h *RankHandlers) Momentum(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body scoreRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	results, err := h.svc.Momentum(r.Context(), toScoreRequest(r, &body))
	if err != nil {
		writeRankError(w, r, err)
		return
	}

	writeJSON(w, r, map[string]any{"results": results})
}

// Insights handles POST /rank/insights - aggregate statistics over a full pass.
func (h *RankHandlers) Insights(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body scoreRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	insights, err := h.svc.Insights(r.Context(), toScoreRequest(r, &body))
	if err != nil {
		writeRankError(w, r, err)
		return
	}

	writeJSON(w, r, insights)
}

// NextSteps handles POST /rank/next-steps - suggested follow-ups per entity.
func (h *RankHandlers) NextSteps(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body scoreRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	results, err := h.svc.Score(r.Context(), toScoreRequest(r, &body))
	if err != nil {
		writeRankError(w, r, err)
		return
	}

	suggestions, err := h.nextSteps.Suggest(r.Context(), results)
	if err != nil {
		slog.ErrorContext(r.Context(), "next step generation failed", "error", err)
		writeCodedError(w, r, http.StatusInternalServerError, ErrCodeInternal, "suggestion generation failed")
		return
	}

	writeJSON(w, r, map[string]any{"suggestions": suggestions})
}

// GetConfig handles GET /rank/config - current weights and vocabularies.
func (h *RankHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, r, h.svc.Config())
}

// GetStats handles GET /rank/stats - call counters and cache hit rate.
func (h *RankHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, r, h.svc.Stats())
}

// UpdateWeights handles PATCH /rank/weights - partial weight reconfiguration.
// The route must sit behind authentication; anyone who can reach it can skew
// every subsequent ranking.
func (h *RankHandlers) UpdateWeights(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPatch) {
		return
	}

	var body weightsPatchBody
	if !decodeJSON(w, r, &body) {
		return
	}

	updated, err := h.svc.UpdateWeights(rank.WeightPatch{
		Network:   body.Network,
		Activity:  body.Activity,
		Relevance: body.Relevance,
		Momentum:  body.Momentum,
	})
	if err != nil {
		writeRankError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "weights updated",
		"caller_id", middleware.GetCallerID(r.Context()))

	writeJSON(w, r, map[string]any{"weights": updated})
}
