package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/application/saga"
	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET BADGE BOARD QUERY
// Runs a full badge evaluation and returns the annotated catalog. The
// evaluation goes through the award flow so badges earned while the
// client was offline are persisted on first read, not lost.
// ══════════════════════════════════════════════════════════════════════════════

// GetBadgeBoardQuery identifies whose badges to evaluate.
type GetBadgeBoardQuery struct {
	ExplorerID shared.ExplorerID
}

// BadgeView is one badge row on the board.
type BadgeView struct {
	ID          shared.BadgeID `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Emoji       string         `json:"emoji"`
	Tier        badge.Tier     `json:"tier"`
	Category    badge.Category `json:"category"`
	Rarity      badge.Rarity   `json:"rarity"`
	XPReward    shared.XP      `json:"xp_reward"`
	Earned      bool           `json:"earned"`
	Progress    int            `json:"progress"`
	EarnedAt    *time.Time     `json:"earned_at,omitempty"`
}

// BadgeBoard is the full annotated catalog for one explorer.
type BadgeBoard struct {
	ExplorerID  shared.ExplorerID `json:"explorer_id"`
	EarnedCount int               `json:"earned_count"`
	TotalCount  int               `json:"total_count"`

	Badges []BadgeView `json:"badges"`

	// NewlyUnlocked await one-time celebratory presentation; the client
	// acknowledges them through the mark-displayed command.
	NewlyUnlocked []BadgeView `json:"newly_unlocked,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetBadgeBoardHandler handles GetBadgeBoardQuery.
type GetBadgeBoardHandler struct {
	badgeFlow  *saga.BadgeAwardFlow
	earnedRepo badge.EarnedRepository
}

// NewGetBadgeBoardHandler creates a new GetBadgeBoardHandler.
func NewGetBadgeBoardHandler(badgeFlow *saga.BadgeAwardFlow, earnedRepo badge.EarnedRepository) *GetBadgeBoardHandler {
	return &GetBadgeBoardHandler{badgeFlow: badgeFlow, earnedRepo: earnedRepo}
}

// Handle evaluates and assembles the board.
func (h *GetBadgeBoardHandler) Handle(ctx context.Context, q GetBadgeBoardQuery) (*BadgeBoard, error) {
	if !q.ExplorerID.IsValid() {
		return nil, errors.New("get_badge_board: explorer_id is required")
	}

	award, err := h.badgeFlow.Execute(ctx, saga.BadgeAwardInput{
		ExplorerID: q.ExplorerID,
		Trigger:    "badge_board_read",
	})
	if err != nil {
		return nil, fmt.Errorf("get_badge_board: %w", err)
	}

	earnedAt, err := h.earnedAtIndex(ctx, q.ExplorerID)
	if err != nil {
		return nil, fmt.Errorf("get_badge_board: %w", err)
	}

	board := &BadgeBoard{
		ExplorerID:  q.ExplorerID,
		TotalCount:  len(award.Badges),
		GeneratedAt: award.ProcessedAt,
	}

	for _, status := range award.Badges {
		view := badgeView(status.Definition, status.Earned, status.Progress)
		if at, ok := earnedAt[status.Definition.ID]; ok {
			view.EarnedAt = &at
		}
		if status.Earned {
			board.EarnedCount++
		}
		board.Badges = append(board.Badges, view)
	}

	for _, def := range award.NewlyUnlocked {
		board.NewlyUnlocked = append(board.NewlyUnlocked, badgeView(def, true, 100))
	}

	return board, nil
}

func (h *GetBadgeBoardHandler) earnedAtIndex(ctx context.Context, explorerID shared.ExplorerID) (map[shared.BadgeID]time.Time, error) {
	earned, err := h.earnedRepo.ListByExplorer(ctx, explorerID)
	if err != nil {
		return nil, err
	}
	index := make(map[shared.BadgeID]time.Time, len(earned))
	for _, e := range earned {
		index[e.BadgeID] = e.EarnedAt
	}
	return index, nil
}

func badgeView(def badge.Definition, earned bool, progress int) BadgeView {
	return BadgeView{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Emoji:       def.Emoji,
		Tier:        def.Tier,
		Category:    def.Category,
		Rarity:      def.Rarity,
		XPReward:    def.XPReward,
		Earned:      earned,
		Progress:    progress,
	}
}
