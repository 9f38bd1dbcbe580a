package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/application/saga"
	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW SUBMISSION COMMAND
// A mentor validates a pending text submission or sends it back for
// revision. Only the explorer's assigned mentor may review, and only
// records awaiting review accept either action.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewAction is the mentor's decision.
type ReviewAction string

const (
	// ActionValidate - accept the submission and grant XP.
	ActionValidate ReviewAction = "validate"

	// ActionRequestRevision - send back with a mandatory comment.
	ActionRequestRevision ReviewAction = "request_revision"
)

// ReviewSubmissionCommand contains the mentor's decision.
type ReviewSubmissionCommand struct {
	// MentorID is the reviewing mentor.
	MentorID shared.ExplorerID

	// ExplorerID, ModuleID, DefiID identify the reviewed record.
	ExplorerID shared.ExplorerID
	ModuleID   shared.ModuleID
	DefiID     shared.DefiID

	// Action is the decision.
	Action ReviewAction

	// Comment is mandatory for request_revision, optional for validate.
	Comment string
}

// Validate validates the command.
func (c ReviewSubmissionCommand) Validate() error {
	if !c.MentorID.IsValid() {
		return errors.New("review_submission: mentor_id is required")
	}
	if !c.ExplorerID.IsValid() {
		return errors.New("review_submission: explorer_id is required")
	}
	if !c.ModuleID.IsValid() || !c.DefiID.IsValid() {
		return errors.New("review_submission: module_id and defi_id are required")
	}
	switch c.Action {
	case ActionValidate, ActionRequestRevision:
		return nil
	default:
		return fmt.Errorf("review_submission: unknown action %q", c.Action)
	}
}

// ReviewSubmissionResult is the outcome of a review.
type ReviewSubmissionResult struct {
	Record *progression.Record

	// Completed reports a validation that closed the record.
	Completed bool

	// XPAwarded is the XP granted to the explorer on validation.
	XPAwarded shared.XP

	// ModuleCompleted reports whether the validation finished the module.
	ModuleCompleted bool

	// NewlyEarnedBadges were persisted during this review's badge run.
	// The explorer's own client celebrates them on its next read.
	NewlyEarnedBadges []badge.Definition

	ReviewedAt time.Time
}

// ReviewSubmissionHandler handles ReviewSubmissionCommand.
type ReviewSubmissionHandler struct {
	modules      *catalog.Catalog
	explorerRepo explorer.Repository
	progressRepo progression.Repository
	badgeFlow    *saga.BadgeAwardFlow
	eventBus     shared.EventPublisher
	logger       *slog.Logger
}

// NewReviewSubmissionHandler creates a new ReviewSubmissionHandler.
func NewReviewSubmissionHandler(
	modules *catalog.Catalog,
	explorerRepo explorer.Repository,
	progressRepo progression.Repository,
	badgeFlow *saga.BadgeAwardFlow,
	eventBus shared.EventPublisher,
	logger *slog.Logger,
) *ReviewSubmissionHandler {
	return &ReviewSubmissionHandler{
		modules:      modules,
		explorerRepo: explorerRepo,
		progressRepo: progressRepo,
		badgeFlow:    badgeFlow,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Handle executes the review.
func (h *ReviewSubmissionHandler) Handle(ctx context.Context, cmd ReviewSubmissionCommand) (*ReviewSubmissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	exp, err := h.explorerRepo.GetByID(ctx, cmd.ExplorerID)
	if err != nil {
		return nil, fmt.Errorf("review_submission: %w", err)
	}
	if !exp.IsMentoredBy(cmd.MentorID) {
		return nil, shared.ErrNotMentorOf
	}

	record, err := h.progressRepo.Get(ctx, cmd.ExplorerID, cmd.ModuleID, cmd.DefiID)
	if err != nil {
		return nil, fmt.Errorf("review_submission: %w", err)
	}

	switch cmd.Action {
	case ActionValidate:
		defi, err := h.modules.Defi(cmd.ModuleID, cmd.DefiID)
		if err != nil {
			return nil, err
		}
		if err := record.Validate(cmd.Comment, defi.XPValue, now); err != nil {
			return nil, err
		}
	case ActionRequestRevision:
		if err := record.RequestRevision(cmd.Comment, now); err != nil {
			return nil, err
		}
		h.publish(ctx, shared.NewRevisionRequestedEvent(cmd.ExplorerID, cmd.ModuleID, cmd.DefiID, record.AttemptCount))
	}

	stored, err := h.progressRepo.Upsert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("review_submission: %w", err)
	}

	result := &ReviewSubmissionResult{
		Record:     stored,
		Completed:  stored.IsCompleted(),
		XPAwarded:  stored.XPEarned,
		ReviewedAt: now,
	}

	if result.Completed {
		if err := h.onValidated(ctx, cmd, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// onValidated applies completion side effects. The explorer's streak is
// untouched here: the activity day was the submission, not the review.
func (h *ReviewSubmissionHandler) onValidated(ctx context.Context, cmd ReviewSubmissionCommand, result *ReviewSubmissionResult) error {
	if result.XPAwarded > 0 {
		if _, err := h.explorerRepo.AddXP(ctx, cmd.ExplorerID, result.XPAwarded); err != nil {
			return fmt.Errorf("review_submission: award xp: %w", err)
		}
	}

	h.publish(ctx, shared.NewDefiCompletedEvent(cmd.ExplorerID, cmd.ModuleID, cmd.DefiID, result.XPAwarded))

	module, err := h.modules.Module(cmd.ModuleID)
	if err == nil {
		records, err := h.progressRepo.ListByModule(ctx, cmd.ExplorerID, cmd.ModuleID)
		if err == nil {
			completed := make(catalog.CompletedSet, len(records))
			for _, r := range records {
				if r.IsCompleted() {
					completed[r.DefiID] = true
				}
			}
			if catalog.Resolve(module, completed).IsFullyCompleted() {
				result.ModuleCompleted = true
				h.publish(ctx, shared.NewModuleCompletedEvent(cmd.ExplorerID, cmd.ModuleID, module.TotalXP()))
			}
		}
	}

	award, err := h.badgeFlow.Execute(ctx, saga.BadgeAwardInput{
		ExplorerID: cmd.ExplorerID,
		Trigger:    "submission_validated",
	})
	if err != nil {
		return fmt.Errorf("review_submission: %w", err)
	}
	result.NewlyEarnedBadges = award.NewlyEarned

	return nil
}

func (h *ReviewSubmissionHandler) publish(ctx context.Context, event shared.Event) {
	if h.eventBus == nil {
		return
	}
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("event publish failed",
			slog.String("event_type", string(event.EventType())),
			slog.String("error", err.Error()))
	}
}
