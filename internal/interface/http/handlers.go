// Package http implements the REST API for the progress engine.
package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/lectura-hub/progress-engine/internal/application/command"
	"github.com/lectura-hub/progress-engine/internal/application/query"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
	"github.com/lectura-hub/progress-engine/pkg/logger"
)

// maxAttemptBodyBytes bounds the ingest request body.
const maxAttemptBodyBytes = 64 << 10 // 64 KB

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Progress Engine API",
		"version":     "v1",
		"description": "Exercise attempt ingestion and progress analytics",
		"endpoints": map[string]string{
			"health":     "/health",
			"attempts":   "/api/v1/progress/attempts",
			"timeseries": "/api/v1/progress/timeseries",
			"summary":    "/api/v1/progress/summary",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if err := s.deps.HealthChecker.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if err := s.deps.HealthChecker.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// recordAttemptRequest is the ingest request body.
type recordAttemptRequest struct {
	Category     string  `json:"category"`
	ExerciseType string  `json:"exerciseType"`
	ExerciseID   string  `json:"exerciseId,omitempty"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"maxScore"`
	Completed    bool    `json:"completed"`
	DurationMs   int64   `json:"durationMs"`
}

// handleRecordAttempt handles POST /api/v1/progress/attempts
func (s *Server) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userIDFromRequest(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAttemptBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}

	var req recordAttemptRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return
	}

	cmd := command.RecordAttemptCommand{
		UserID:        userID,
		Category:      req.Category,
		ExerciseType:  req.ExerciseType,
		ExerciseID:    req.ExerciseID,
		Score:         req.Score,
		MaxScore:      req.MaxScore,
		Completed:     req.Completed,
		DurationMs:    req.DurationMs,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.App.RecordAttempt(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, "failed to record attempt", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"attemptId": result.AttemptID})
}

// handleGetTimeSeries handles GET /api/v1/progress/timeseries
func (s *Server) handleGetTimeSeries(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userIDFromRequest(w, r)
	if !ok {
		return
	}

	q := query.GetTimeSeriesQuery{
		UserID:   userID,
		Category: getQueryParam(r, "category", ""),
		Days:     getQueryParamInt(r, "days", 7),
		Locale:   getQueryParam(r, "locale", s.config.DefaultLocale),
	}

	result, err := s.deps.App.GetTimeSeries(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, "failed to get time series", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetSummary handles GET /api/v1/progress/summary
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userIDFromRequest(w, r)
	if !ok {
		return
	}

	result, err := s.deps.App.GetSummary(r.Context(), query.GetSummaryQuery{UserID: userID})
	if err != nil {
		s.writeDomainError(w, r, "failed to get summary", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// userIDFromRequest resolves the caller identity. Identity arrives from the
// upstream gateway in the X-User-ID header; requests without it are rejected.
func (s *Server) userIDFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "X-User-ID header is required")
		return "", false
	}
	return userID, true
}

// writeDomainError maps domain errors to HTTP status codes: validation
// failures are the caller's fault (400), store outages are retryable (503),
// everything else is a 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_error", err.Error(), shared.ValidationField(err))
	case shared.IsStoreUnavailable(err):
		s.logger.Error(msg, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		w.Header().Set("Retry-After", "5")
		writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "Storage is temporarily unavailable, please retry")
	default:
		s.logger.Error(msg, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
