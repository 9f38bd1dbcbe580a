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
	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/entitlement"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD DRILL COMMAND
// Persists one finished timed drill as an immutable fact, recomputes
// the explorer's statistics, extends the streak, and runs the badge
// engine over the enlarged history.
// ══════════════════════════════════════════════════════════════════════════════

// RecordDrillCommand contains one finished drill.
type RecordDrillCommand struct {
	ExplorerID shared.ExplorerID
	Operation  drill.Operation
	Difficulty drill.Difficulty

	// Score is the number of correct answers, 0..drill.MaxScore.
	Score int

	// Accuracy is the percentage of correct answers over attempts.
	Accuracy float64

	// TimeSeconds is the total drill duration.
	TimeSeconds float64
}

// Validate validates the command. Range checks live in the domain
// constructor; this only rejects structurally missing fields.
func (c RecordDrillCommand) Validate() error {
	if !c.ExplorerID.IsValid() {
		return errors.New("record_drill: explorer_id is required")
	}
	if c.Operation == "" || c.Difficulty == "" {
		return errors.New("record_drill: operation and difficulty are required")
	}
	return nil
}

// RecordDrillResult is what the client renders after a drill.
type RecordDrillResult struct {
	Session *drill.Session

	// Stats is the recomputed snapshot including this session.
	Stats drill.Stats

	// NewGlobalBest reports whether this session became the best record.
	NewGlobalBest bool

	StreakCurrent  int
	StreakExtended bool

	// NewlyUnlockedBadges await one-time celebratory presentation.
	NewlyUnlockedBadges []badge.Definition

	RecordedAt time.Time
}

// RecordDrillHandler handles RecordDrillCommand.
type RecordDrillHandler struct {
	drillRepo  drill.Repository
	streakRepo streak.Repository
	gate       entitlement.Gate
	badgeFlow  *saga.BadgeAwardFlow
	eventBus   shared.EventPublisher
	logger     *slog.Logger
}

// NewRecordDrillHandler creates a new RecordDrillHandler.
func NewRecordDrillHandler(
	drillRepo drill.Repository,
	streakRepo streak.Repository,
	gate entitlement.Gate,
	badgeFlow *saga.BadgeAwardFlow,
	eventBus shared.EventPublisher,
	logger *slog.Logger,
) *RecordDrillHandler {
	return &RecordDrillHandler{
		drillRepo:  drillRepo,
		streakRepo: streakRepo,
		gate:       gate,
		badgeFlow:  badgeFlow,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Handle executes the command.
func (h *RecordDrillHandler) Handle(ctx context.Context, cmd RecordDrillCommand) (*RecordDrillResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if err := h.gate.CanAccessDrills(ctx, cmd.ExplorerID); err != nil {
		return nil, err
	}

	session, err := drill.NewSession(
		uuid.NewString(), cmd.ExplorerID, cmd.Operation, cmd.Difficulty,
		cmd.Score, cmd.Accuracy, cmd.TimeSeconds, now)
	if err != nil {
		return nil, err
	}

	// Best-so-far is read before the append so "new record" compares
	// against the history this session joins.
	previous, err := h.drillRepo.ListByExplorer(ctx, cmd.ExplorerID)
	if err != nil {
		return nil, fmt.Errorf("record_drill: %w", err)
	}
	previousStats := drill.Compute(previous)

	if err := h.drillRepo.Append(ctx, session); err != nil {
		return nil, fmt.Errorf("record_drill: %w", err)
	}

	result := &RecordDrillResult{
		Session:    session,
		Stats:      drill.Compute(append(previous, session)),
		RecordedAt: now,
	}
	result.NewGlobalBest = !previousStats.HasData ||
		beatsRecord(session, previousStats.GlobalBest)

	result.StreakExtended, result.StreakCurrent = h.recordStreakActivity(ctx, cmd.ExplorerID, now)

	h.publish(ctx, shared.NewDrillFinishedEvent(
		cmd.ExplorerID, string(cmd.Operation), string(cmd.Difficulty), cmd.Score))

	award, err := h.badgeFlow.Execute(ctx, saga.BadgeAwardInput{
		ExplorerID: cmd.ExplorerID,
		Trigger:    "drill_finished",
	})
	if err != nil {
		return nil, fmt.Errorf("record_drill: %w", err)
	}
	result.NewlyUnlockedBadges = award.NewlyUnlocked

	return result, nil
}

func (h *RecordDrillHandler) recordStreakActivity(ctx context.Context, explorerID shared.ExplorerID, now time.Time) (bool, int) {
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

func (h *RecordDrillHandler) publish(ctx context.Context, event shared.Event) {
	if h.eventBus == nil {
		return
	}
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("event publish failed",
			slog.String("event_type", string(event.EventType())),
			slog.String("error", err.Error()))
	}
}

// beatsRecord applies the same ordering the aggregator uses: score
// first, lower time as tie-break.
func beatsRecord(s *drill.Session, best drill.BestRecord) bool {
	if s.Score != best.Score {
		return s.Score > best.Score
	}
	return s.TimeSeconds < best.TimeSeconds
}
