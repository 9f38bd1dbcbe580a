package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PENDING REVIEWS QUERY
// The mentor's work queue: text submissions awaiting review across all
// of their explorers.
// ══════════════════════════════════════════════════════════════════════════════

// GetPendingReviewsQuery identifies the mentor.
type GetPendingReviewsQuery struct {
	MentorID shared.ExplorerID
}

// PendingReview is one queue row.
type PendingReview struct {
	ExplorerID   shared.ExplorerID `json:"explorer_id"`
	ModuleID     shared.ModuleID   `json:"module_id"`
	DefiID       shared.DefiID     `json:"defi_id"`
	DefiTitle    string            `json:"defi_title"`
	ResponseText string            `json:"response_text"`
	AttemptCount int               `json:"attempt_count"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}

// PendingReviewList is the mentor's full queue.
type PendingReviewList struct {
	MentorID    shared.ExplorerID `json:"mentor_id"`
	Reviews     []PendingReview   `json:"reviews"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// GetPendingReviewsHandler handles GetPendingReviewsQuery.
type GetPendingReviewsHandler struct {
	modules      *catalog.Catalog
	progressRepo progression.Repository
}

// NewGetPendingReviewsHandler creates a new GetPendingReviewsHandler.
func NewGetPendingReviewsHandler(modules *catalog.Catalog, progressRepo progression.Repository) *GetPendingReviewsHandler {
	return &GetPendingReviewsHandler{modules: modules, progressRepo: progressRepo}
}

// Handle assembles the queue.
func (h *GetPendingReviewsHandler) Handle(ctx context.Context, q GetPendingReviewsQuery) (*PendingReviewList, error) {
	if !q.MentorID.IsValid() {
		return nil, errors.New("get_pending_reviews: mentor_id is required")
	}

	records, err := h.progressRepo.ListAwaitingReview(ctx, q.MentorID)
	if err != nil {
		return nil, fmt.Errorf("get_pending_reviews: %w", err)
	}

	list := &PendingReviewList{
		MentorID:    q.MentorID,
		Reviews:     make([]PendingReview, 0, len(records)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, r := range records {
		title := ""
		if defi, err := h.modules.Defi(r.ModuleID, r.DefiID); err == nil {
			title = defi.Title
		}
		list.Reviews = append(list.Reviews, PendingReview{
			ExplorerID:   r.ExplorerID,
			ModuleID:     r.ModuleID,
			DefiID:       r.DefiID,
			DefiTitle:    title,
			ResponseText: r.ResponseText,
			AttemptCount: r.AttemptCount,
			SubmittedAt:  r.UpdatedAt,
		})
	}

	return list, nil
}
