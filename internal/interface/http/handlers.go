// Package http implements the REST API for the Explo Progression Hub.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/explo-hub/explo-progression-hub/internal/application/command"
	"github.com/explo-hub/explo-progression-hub/internal/application/query"
	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// The route handlers depend on these narrow interfaces rather than the
// concrete application types, so tests can stand in fakes without a
// database behind them.

type RegisterExplorerHandler interface {
	Handle(ctx context.Context, cmd command.RegisterExplorerCommand) (*command.RegisterExplorerResult, error)
}

type SubmitResponseHandler interface {
	Handle(ctx context.Context, cmd command.SubmitResponseCommand) (*command.SubmitResponseResult, error)
}

type ReviewSubmissionHandler interface {
	Handle(ctx context.Context, cmd command.ReviewSubmissionCommand) (*command.ReviewSubmissionResult, error)
}

type RecordDrillHandler interface {
	Handle(ctx context.Context, cmd command.RecordDrillCommand) (*command.RecordDrillResult, error)
}

type MarkBadgesDisplayedHandler interface {
	Handle(ctx context.Context, cmd command.MarkBadgesDisplayedCommand) (*command.MarkBadgesDisplayedResult, error)
}

type GetModuleBoardHandler interface {
	Handle(ctx context.Context, q query.GetModuleBoardQuery) (*query.ModuleBoard, error)
}

type GetBadgeBoardHandler interface {
	Handle(ctx context.Context, q query.GetBadgeBoardQuery) (*query.BadgeBoard, error)
}

type GetDrillStatsHandler interface {
	Handle(ctx context.Context, q query.GetDrillStatsQuery) (*query.DrillStatsView, error)
}

type GetPendingReviewsHandler interface {
	Handle(ctx context.Context, q query.GetPendingReviewsQuery) (*query.PendingReviewList, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Explo Progression Hub API",
		"version":     "v1",
		"description": "REST API for explorer progression, mentor review, drills and badges",
		"endpoints": map[string]string{
			"health":      "/health",
			"board":       "/api/v1/explorers/{id}/board",
			"submissions": "/api/v1/explorers/{id}/submissions",
			"drills":      "/api/v1/explorers/{id}/drills",
			"badges":      "/api/v1/explorers/{id}/badges",
			"reviews":     "/api/v1/mentors/{id}/reviews",
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

// ══════════════════════════════════════════════════════════════════════════════
// EXPLORER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// registerExplorerRequest is the body for POST /api/v1/explorers.
type registerExplorerRequest struct {
	Name     string `json:"name"`
	Pin      string `json:"pin"`
	MentorID string `json:"mentor_id,omitempty"`
}

// handleRegisterExplorer handles POST /api/v1/explorers
func (s *Server) handleRegisterExplorer(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterExplorer == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Registration handler not configured")
		return
	}

	var req registerExplorerRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cmd := command.RegisterExplorerCommand{
		Name:     req.Name,
		Pin:      req.Pin,
		MentorID: shared.ExplorerID(req.MentorID),
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.RegisterExplorer.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to register explorer")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetModuleBoard handles GET /api/v1/explorers/{id}/board
func (s *Server) handleGetModuleBoard(w http.ResponseWriter, r *http.Request) {
	explorerID := r.PathValue("id")
	if explorerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Explorer ID is required")
		return
	}

	if s.deps.GetModuleBoard == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Board handler not configured")
		return
	}

	result, err := s.deps.GetModuleBoard.Handle(r.Context(), query.GetModuleBoardQuery{
		ExplorerID: shared.ExplorerID(explorerID),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get module board")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// submitResponseRequest is the body for POST /api/v1/explorers/{id}/submissions.
type submitResponseRequest struct {
	ModuleID       string `json:"module_id"`
	DefiID         string `json:"defi_id"`
	SelectedOption *int   `json:"selected_option,omitempty"`
	ResponseText   string `json:"response_text,omitempty"`
}

// handleSubmitResponse handles POST /api/v1/explorers/{id}/submissions
func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	explorerID := r.PathValue("id")
	if explorerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Explorer ID is required")
		return
	}

	if s.deps.SubmitResponse == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Submission handler not configured")
		return
	}

	var req submitResponseRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cmd := command.SubmitResponseCommand{
		ExplorerID:     shared.ExplorerID(explorerID),
		ModuleID:       shared.ModuleID(req.ModuleID),
		DefiID:         shared.DefiID(req.DefiID),
		SelectedOption: req.SelectedOption,
		ResponseText:   req.ResponseText,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.SubmitResponse.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to submit response")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// recordDrillRequest is the body for POST /api/v1/explorers/{id}/drills.
type recordDrillRequest struct {
	Operation   string  `json:"operation"`
	Difficulty  string  `json:"difficulty"`
	Score       int     `json:"score"`
	Accuracy    float64 `json:"accuracy"`
	TimeSeconds float64 `json:"time_seconds"`
}

// handleRecordDrill handles POST /api/v1/explorers/{id}/drills
func (s *Server) handleRecordDrill(w http.ResponseWriter, r *http.Request) {
	explorerID := r.PathValue("id")
	if explorerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Explorer ID is required")
		return
	}

	if s.deps.RecordDrill == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Drill handler not configured")
		return
	}

	var req recordDrillRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cmd := command.RecordDrillCommand{
		ExplorerID:  shared.ExplorerID(explorerID),
		Operation:   drill.Operation(req.Operation),
		Difficulty:  drill.Difficulty(req.Difficulty),
		Score:       req.Score,
		Accuracy:    req.Accuracy,
		TimeSeconds: req.TimeSeconds,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.RecordDrill.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to record drill")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetDrillStats handles GET /api/v1/explorers/{id}/drills/stats
func (s *Server) handleGetDrillStats(w http.ResponseWriter, r *http.Request) {
	explorerID := r.PathValue("id")
	if explorerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Explorer ID is required")
		return
	}

	if s.deps.GetDrillStats == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Drill stats handler not configured")
		return
	}

	result, err := s.deps.GetDrillStats.Handle(r.Context(), query.GetDrillStatsQuery{
		ExplorerID: shared.ExplorerID(explorerID),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get drill stats")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetBadgeBoard handles GET /api/v1/explorers/{id}/badges
func (s *Server) handleGetBadgeBoard(w http.ResponseWriter, r *http.Request) {
	explorerID := r.PathValue("id")
	if explorerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Explorer ID is required")
		return
	}

	if s.deps.GetBadgeBoard == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Badge handler not configured")
		return
	}

	result, err := s.deps.GetBadgeBoard.Handle(r.Context(), query.GetBadgeBoardQuery{
		ExplorerID: shared.ExplorerID(explorerID),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get badge board")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// markBadgesDisplayedRequest is the body for POST /api/v1/explorers/{id}/badges/displayed.
type markBadgesDisplayedRequest struct {
	BadgeIDs []string `json:"badge_ids"`
}

// handleMarkBadgesDisplayed handles POST /api/v1/explorers/{id}/badges/displayed
func (s *Server) handleMarkBadgesDisplayed(w http.ResponseWriter, r *http.Request) {
	explorerID := r.PathValue("id")
	if explorerID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Explorer ID is required")
		return
	}

	if s.deps.MarkBadgesDisplayed == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Badge handler not configured")
		return
	}

	var req markBadgesDisplayedRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	badgeIDs := make([]shared.BadgeID, 0, len(req.BadgeIDs))
	for _, id := range req.BadgeIDs {
		badgeIDs = append(badgeIDs, shared.BadgeID(id))
	}

	cmd := command.MarkBadgesDisplayedCommand{
		ExplorerID: shared.ExplorerID(explorerID),
		BadgeIDs:   badgeIDs,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.MarkBadgesDisplayed.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to mark badges displayed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// MENTOR HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetPendingReviews handles GET /api/v1/mentors/{id}/reviews
func (s *Server) handleGetPendingReviews(w http.ResponseWriter, r *http.Request) {
	mentorID := r.PathValue("id")
	if mentorID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Mentor ID is required")
		return
	}

	if s.deps.GetPendingReviews == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Review queue handler not configured")
		return
	}

	result, err := s.deps.GetPendingReviews.Handle(r.Context(), query.GetPendingReviewsQuery{
		MentorID: shared.ExplorerID(mentorID),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get pending reviews")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// reviewSubmissionRequest is the body for POST /api/v1/mentors/{id}/reviews.
type reviewSubmissionRequest struct {
	ExplorerID string `json:"explorer_id"`
	ModuleID   string `json:"module_id"`
	DefiID     string `json:"defi_id"`
	Action     string `json:"action"`
	Comment    string `json:"comment,omitempty"`
}

// handleReviewSubmission handles POST /api/v1/mentors/{id}/reviews
func (s *Server) handleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	mentorID := r.PathValue("id")
	if mentorID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Mentor ID is required")
		return
	}

	if s.deps.ReviewSubmission == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Review handler not configured")
		return
	}

	var req reviewSubmissionRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cmd := command.ReviewSubmissionCommand{
		MentorID:   shared.ExplorerID(mentorID),
		ExplorerID: shared.ExplorerID(req.ExplorerID),
		ModuleID:   shared.ModuleID(req.ModuleID),
		DefiID:     shared.DefiID(req.DefiID),
		Action:     command.ReviewAction(req.Action),
		Comment:    req.Comment,
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.ReviewSubmission.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to review submission")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a domain error to an HTTP status and logs it.
// Client mistakes are logged at debug level, real failures at error level.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	status, code := classifyError(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error(logMsg,
			"error", err,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
		)
		writeJSONError(w, status, code, "An unexpected error occurred")
		return
	}

	s.logger.Debug(logMsg,
		"error", err,
		"path", r.URL.Path,
		"request_id", getRequestID(r.Context()),
	)
	writeJSONError(w, status, code, err.Error())
}

// classifyError maps domain error kinds to HTTP status codes.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrTerminalState),
		errors.Is(err, shared.ErrStateTransition),
		errors.Is(err, shared.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrEmptyValue),
		errors.Is(err, shared.ErrNegativeValue),
		errors.Is(err, shared.ErrValueOutOfRange),
		errors.Is(err, shared.ErrInvalidEntity):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, shared.ErrServiceUnavailable),
		errors.Is(err, shared.ErrTimeout):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
