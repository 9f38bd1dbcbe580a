// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/explo-hub/explo-progression-hub/internal/application/saga"
	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/entitlement"
	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT RESPONSE COMMAND
// Records an explorer's answer to a defi: multiple choice is graded
// immediately, free text enters the mentor review loop (or completes
// immediately in solo mode). A completion feeds XP, the streak, and the
// badge engine in one pass so the client gets everything in one reply.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitResponseCommand contains the explorer's answer.
type SubmitResponseCommand struct {
	// ExplorerID is the submitting explorer.
	ExplorerID shared.ExplorerID

	// ModuleID and DefiID identify the challenge.
	ModuleID shared.ModuleID
	DefiID   shared.DefiID

	// SelectedOption is the chosen option index for choice defis.
	SelectedOption *int

	// ResponseText is the answer for text defis.
	ResponseText string
}

// Validate validates the command.
func (c SubmitResponseCommand) Validate() error {
	if !c.ExplorerID.IsValid() {
		return errors.New("submit_response: explorer_id is required")
	}
	if !c.ModuleID.IsValid() {
		return errors.New("submit_response: module_id is required")
	}
	if !c.DefiID.IsValid() {
		return errors.New("submit_response: defi_id is required")
	}
	return nil
}

// SubmitResponseResult is what the client renders after a submission.
type SubmitResponseResult struct {
	// Record is the persisted progress record. Nil for an incorrect
	// choice answer: wrong choices leave no trace and may be retried
	// freely.
	Record *progression.Record

	// Correct reports choice grading. Always true for text defis that
	// were accepted.
	Correct bool

	// Completed reports whether this submission completed the defi.
	Completed bool

	// AwaitingReview reports a text submission parked for a mentor.
	AwaitingReview bool

	// XPAwarded is the XP granted by this submission (0 when pending
	// review or incorrect).
	XPAwarded shared.XP

	// ModuleCompleted reports whether this completion finished the
	// whole module.
	ModuleCompleted bool

	// StreakCurrent and StreakExtended describe the streak after this
	// submission.
	StreakCurrent  int
	StreakExtended bool

	// NewlyUnlockedBadges await one-time celebratory presentation.
	NewlyUnlockedBadges []badge.Definition

	SubmittedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitResponseHandler handles SubmitResponseCommand.
type SubmitResponseHandler struct {
	modules      *catalog.Catalog
	explorerRepo explorer.Repository
	progressRepo progression.Repository
	streakRepo   streak.Repository
	gate         entitlement.Gate
	badgeFlow    *saga.BadgeAwardFlow
	eventBus     shared.EventPublisher
	logger       *slog.Logger
}

// NewSubmitResponseHandler creates a new SubmitResponseHandler.
func NewSubmitResponseHandler(
	modules *catalog.Catalog,
	explorerRepo explorer.Repository,
	progressRepo progression.Repository,
	streakRepo streak.Repository,
	gate entitlement.Gate,
	badgeFlow *saga.BadgeAwardFlow,
	eventBus shared.EventPublisher,
	logger *slog.Logger,
) *SubmitResponseHandler {
	return &SubmitResponseHandler{
		modules:      modules,
		explorerRepo: explorerRepo,
		progressRepo: progressRepo,
		streakRepo:   streakRepo,
		gate:         gate,
		badgeFlow:    badgeFlow,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Handle executes the submission.
func (h *SubmitResponseHandler) Handle(ctx context.Context, cmd SubmitResponseCommand) (*SubmitResponseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	exp, err := h.explorerRepo.GetByID(ctx, cmd.ExplorerID)
	if err != nil {
		return nil, fmt.Errorf("submit_response: %w", err)
	}
	if !exp.Active {
		return nil, shared.ErrExplorerInactive
	}

	module, err := h.modules.Module(cmd.ModuleID)
	if err != nil {
		return nil, err
	}
	if module.Locked {
		if err := h.gate.CanAccessModule(ctx, cmd.ExplorerID, cmd.ModuleID); err != nil {
			return nil, err
		}
		// The gate verdict decides the effective lock. Once access is
		// granted, the graph resolves as for any open module.
		module.Locked = false
	}
	defi, err := h.modules.Defi(cmd.ModuleID, cmd.DefiID)
	if err != nil {
		return nil, err
	}

	resolution, err := h.resolveModule(ctx, cmd.ExplorerID, module)
	if err != nil {
		return nil, err
	}
	if stateOf(resolution, cmd.DefiID) == catalog.DefiLocked {
		return nil, shared.ErrDefiLocked
	}

	var result *SubmitResponseResult
	switch defi.Kind {
	case catalog.ResponseChoice:
		result, err = h.handleChoice(ctx, cmd, defi, now)
	case catalog.ResponseText:
		result, err = h.handleText(ctx, cmd, exp, defi, now)
	default:
		return nil, shared.NewDomainError("catalog", "Submit", shared.ErrInvalidEntity,
			fmt.Sprintf("unknown response kind %q", defi.Kind))
	}
	if err != nil {
		return nil, err
	}

	if result.Completed {
		if err := h.onCompleted(ctx, cmd, module, result, now); err != nil {
			return nil, err
		}
	} else if result.AwaitingReview {
		h.publish(ctx, shared.NewDefiSubmittedEvent(cmd.ExplorerID, cmd.ModuleID, cmd.DefiID, result.Record.AttemptCount))
	}

	return result, nil
}

// handleChoice grades a multiple-choice answer. An incorrect answer is
// not an error and not a record: the explorer just tries again.
func (h *SubmitResponseHandler) handleChoice(ctx context.Context, cmd SubmitResponseCommand, defi catalog.Defi, now time.Time) (*SubmitResponseResult, error) {
	if cmd.SelectedOption == nil {
		return nil, shared.NewDomainError("progression", "Submit", shared.ErrInvalidInput,
			"choice defi requires a selected option")
	}

	if *cmd.SelectedOption != defi.CorrectOption {
		return &SubmitResponseResult{Correct: false, SubmittedAt: now}, nil
	}

	// Repeat correct answers are a no-op: the unique key keeps one row
	// and XP is never granted twice.
	existing, err := h.progressRepo.Get(ctx, cmd.ExplorerID, cmd.ModuleID, cmd.DefiID)
	if err == nil && existing.IsCompleted() {
		return &SubmitResponseResult{Record: existing, Correct: true, SubmittedAt: now}, nil
	}
	if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("submit_response: %w", err)
	}

	record := progression.NewChoiceCompletion(uuid.NewString(), cmd.ExplorerID, cmd.ModuleID, cmd.DefiID, defi.XPValue, now)
	stored, err := h.progressRepo.Upsert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("submit_response: %w", err)
	}

	return &SubmitResponseResult{
		Record:      stored,
		Correct:     true,
		Completed:   true,
		XPAwarded:   stored.XPEarned,
		SubmittedAt: now,
	}, nil
}

// handleText records a free-text answer: first submission or a
// resubmission after a revision request.
func (h *SubmitResponseHandler) handleText(ctx context.Context, cmd SubmitResponseCommand, exp *explorer.Explorer, defi catalog.Defi, now time.Time) (*SubmitResponseResult, error) {
	existing, err := h.progressRepo.Get(ctx, cmd.ExplorerID, cmd.ModuleID, cmd.DefiID)
	switch {
	case err == nil:
		if err := existing.Resubmit(cmd.ResponseText, now); err != nil {
			return nil, err
		}
	case shared.IsNotFound(err):
		existing, err = progression.NewTextSubmission(
			uuid.NewString(), cmd.ExplorerID, cmd.ModuleID, cmd.DefiID,
			cmd.ResponseText, exp.IsSolo(), defi.XPValue, now)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("submit_response: %w", err)
	}

	stored, err := h.progressRepo.Upsert(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("submit_response: %w", err)
	}

	return &SubmitResponseResult{
		Record:         stored,
		Correct:        true,
		Completed:      stored.IsCompleted(),
		AwaitingReview: !stored.IsCompleted(),
		XPAwarded:      stored.XPEarned,
		SubmittedAt:    now,
	}, nil
}

// onCompleted runs the side effects of a completion: XP, streak, module
// completion detection, events, and badge evaluation.
func (h *SubmitResponseHandler) onCompleted(ctx context.Context, cmd SubmitResponseCommand, module catalog.Module, result *SubmitResponseResult, now time.Time) error {
	if result.XPAwarded > 0 {
		if _, err := h.explorerRepo.AddXP(ctx, cmd.ExplorerID, result.XPAwarded); err != nil {
			return fmt.Errorf("submit_response: award xp: %w", err)
		}
	}

	extended, current := h.recordStreakActivity(ctx, cmd.ExplorerID, now)
	result.StreakExtended = extended
	result.StreakCurrent = current

	h.publish(ctx, shared.NewDefiCompletedEvent(cmd.ExplorerID, cmd.ModuleID, cmd.DefiID, result.XPAwarded))

	resolution, err := h.resolveModule(ctx, cmd.ExplorerID, module)
	if err == nil && resolution.IsFullyCompleted() {
		result.ModuleCompleted = true
		h.publish(ctx, shared.NewModuleCompletedEvent(cmd.ExplorerID, cmd.ModuleID, module.TotalXP()))
	}

	award, err := h.badgeFlow.Execute(ctx, saga.BadgeAwardInput{
		ExplorerID: cmd.ExplorerID,
		Trigger:    "defi_completed",
	})
	if err != nil {
		return fmt.Errorf("submit_response: %w", err)
	}
	result.NewlyUnlockedBadges = award.NewlyUnlocked

	return nil
}

// recordStreakActivity extends the streak for today. Streak failures are
// logged, not fatal: losing a streak tick must not void a completion.
func (h *SubmitResponseHandler) recordStreakActivity(ctx context.Context, explorerID shared.ExplorerID, now time.Time) (bool, int) {
	st, err := h.streakRepo.Get(ctx, explorerID)
	if err != nil {
		h.logger.Error("streak load failed",
			slog.String("explorer_id", explorerID.String()),
			slog.String("error", err.Error()))
		return false, 0
	}

	extended := st.RecordActivity(shared.DayOf(now))
	if extended {
		if err := h.streakRepo.Upsert(ctx, st); err != nil {
			h.logger.Error("streak save failed",
				slog.String("explorer_id", explorerID.String()),
				slog.String("error", err.Error()))
			return false, st.Current
		}
	}
	return extended, st.Current
}

func (h *SubmitResponseHandler) resolveModule(ctx context.Context, explorerID shared.ExplorerID, module catalog.Module) (catalog.ModuleResolution, error) {
	records, err := h.progressRepo.ListByModule(ctx, explorerID, module.ID)
	if err != nil {
		return catalog.ModuleResolution{}, fmt.Errorf("submit_response: %w", err)
	}

	completed := make(catalog.CompletedSet, len(records))
	for _, r := range records {
		if r.IsCompleted() {
			completed[r.DefiID] = true
		}
	}
	return catalog.Resolve(module, completed), nil
}

func (h *SubmitResponseHandler) publish(ctx context.Context, event shared.Event) {
	if h.eventBus == nil {
		return
	}
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("event publish failed",
			slog.String("event_type", string(event.EventType())),
			slog.String("error", err.Error()))
	}
}

func stateOf(resolution catalog.ModuleResolution, defiID shared.DefiID) catalog.DefiState {
	for _, d := range resolution.Defis {
		if d.Defi.ID == defiID {
			return d.State
		}
	}
	return catalog.DefiLocked
}
