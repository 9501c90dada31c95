// Package http implements the REST API of the Khadeira backend.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shoiab2025/Khadeira-Backend/internal/application/command"
	"github.com/shoiab2025/Khadeira-Backend/internal/application/query"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
	"github.com/shoiab2025/Khadeira-Backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Khadeira API",
		"version":     "v1",
		"description": "REST API for the Khadeira educational platform",
		"endpoints": map[string]string{
			"health":           "/health",
			"leaderboard":      "/api/v1/leaderboard",
			"leaderboard_test": "/api/v1/leaderboard/{testId}",
			"subjects":         "/api/v1/subjects",
			"scores":           "/api/v1/scores",
			"users":            "/api/v1/users",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
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

// handleMetrics handles the metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": s.Uptime().Seconds(),
		"running":        s.IsRunning(),
	}

	writeJSON(w, http.StatusOK, metrics)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboards handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboards(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	result, err := s.deps.GetLeaderboardsHandler.Handle(r.Context(), query.GetLeaderboardsQuery{})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get leaderboards")
		return
	}

	meta := &ResponseMeta{TotalCount: result.TotalCount}
	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleGetLeaderboardForTest handles GET /api/v1/leaderboard/{testId}
func (s *Server) handleGetLeaderboardForTest(w http.ResponseWriter, r *http.Request) {
	testID := r.PathValue("testId")
	if testID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Test ID is required")
		return
	}

	if s.deps.GetLeaderboardForTestHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardForTestQuery{TestID: testID}
	result, err := s.deps.GetLeaderboardForTestHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get leaderboard for test")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE SUBMISSION HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// submitScoreRequest is the request body for POST /api/v1/scores.
// Submission time is stamped server-side at acceptance, so the caller
// cannot backdate its way into a better tie-break position.
type submitScoreRequest struct {
	UserID    string `json:"user_id"`
	TestID    string `json:"test_id"`
	SubjectID string `json:"subject_id"`
	LessonID  string `json:"lesson_id"`
	Score     int    `json:"score"`
}

// submitScoreResponse is the response body for POST /api/v1/scores.
type submitScoreResponse struct {
	Outcome     string               `json:"outcome"`
	Rank        int                  `json:"rank"`
	BestScore   int                  `json:"best_score"`
	Attempts    int                  `json:"attempts"`
	Leaderboard query.LeaderboardDTO `json:"leaderboard"`
}

// handleSubmitScore handles POST /api/v1/scores
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitScoreHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Score handler not configured")
		return
	}

	var req submitScoreRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.SubmitScoreCommand{
		UserID:    req.UserID,
		TestID:    req.TestID,
		SubjectID: req.SubjectID,
		LessonID:  req.LessonID,
		Score:     req.Score,
	}

	result, err := s.deps.SubmitScoreHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to submit score")
		return
	}

	s.logger.Info("score submitted",
		logger.String("user_id", req.UserID),
		logger.String("test_id", req.TestID),
		logger.Int("score", req.Score),
		logger.String("outcome", result.Outcome.String()),
		logger.Int("rank", int(result.Rank)),
		logger.Int("attempts", result.Attempts),
	)

	resp := submitScoreResponse{
		Outcome:     result.Outcome.String(),
		Rank:        int(result.Rank),
		BestScore:   int(result.BestScore),
		Attempts:    result.Attempts,
		Leaderboard: query.NewLeaderboardDTO(result.Board),
	}

	status := http.StatusOK
	if result.Outcome.Changed() {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// USER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// registerUserRequest is the request body for POST /api/v1/users.
type registerUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerUserResponse is the response body for POST /api/v1/users.
// The password hash never leaves the server.
type registerUserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// handleRegisterUser handles POST /api/v1/users
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterUserHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "User handler not configured")
		return
	}

	var req registerUserRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.RegisterUserCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}

	result, err := s.deps.RegisterUserHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to register user")
		return
	}

	resp := registerUserResponse{
		ID:        result.User.ID,
		Name:      result.User.Name,
		Email:     result.User.Email.String(),
		CreatedAt: result.User.CreatedAt,
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetSubjects handles GET /api/v1/subjects
func (s *Server) handleGetSubjects(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetSubjectsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Subject handler not configured")
		return
	}

	result, err := s.deps.GetSubjectsHandler.Handle(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get subjects")
		return
	}

	meta := &ResponseMeta{TotalCount: result.TotalCount}
	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// createSubjectRequest is the request body for POST /api/v1/subjects.
type createSubjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CourseID    string `json:"course_id"`
	Duration    int    `json:"duration"`
}

// createSubjectResponse is the response body for POST /api/v1/subjects.
type createSubjectResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"subject_id"`
	Name      string    `json:"name"`
	CourseID  string    `json:"course_id"`
	Duration  int       `json:"duration"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// handleCreateSubject handles POST /api/v1/subjects
func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateSubjectHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Subject handler not configured")
		return
	}

	var req createSubjectRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	cmd := command.CreateSubjectCommand{
		Name:        req.Name,
		Description: req.Description,
		CourseID:    req.CourseID,
		Duration:    req.Duration,
	}

	result, err := s.deps.CreateSubjectHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to create subject")
		return
	}

	resp := createSubjectResponse{
		ID:        result.Subject.ID,
		Code:      result.Subject.Code,
		Name:      result.Subject.Name,
		CourseID:  result.Subject.CourseID,
		Duration:  result.Subject.Duration,
		Status:    string(result.Subject.Status),
		CreatedAt: result.Subject.CreatedAt,
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps an application-layer error to an HTTP response.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	status, code := classifyError(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error(logMsg,
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
	} else {
		s.logger.Warn(logMsg,
			logger.Err(err),
			logger.String("path", r.URL.Path),
		)
	}

	writeJSONErrorWithDetails(w, status, code, httpErrorMessage(status), err.Error())
}

// classifyError maps domain error kinds to HTTP status codes.
func classifyError(err error) (status int, code string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_failed"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrRetryExhausted):
		// The board kept changing under us; the caller should retry.
		return http.StatusConflict, "update_conflict"
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// httpErrorMessage returns a generic message for a status code.
func httpErrorMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Request failed validation"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Resource conflict"
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// decodeJSONBody decodes a JSON request body.
func decodeJSONBody(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dest)
}
