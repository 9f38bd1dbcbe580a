package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK BADGES DISPLAYED COMMAND
// The explicit acknowledgement after a celebratory presentation. This
// is the only place the displayed set grows: the rule engine never
// marks a badge displayed as a side effect of evaluation.
// ══════════════════════════════════════════════════════════════════════════════

// MarkBadgesDisplayedCommand lists the badges whose celebration was
// dismissed by the explorer.
type MarkBadgesDisplayedCommand struct {
	ExplorerID shared.ExplorerID
	BadgeIDs   []shared.BadgeID
}

// Validate validates the command.
func (c MarkBadgesDisplayedCommand) Validate() error {
	if !c.ExplorerID.IsValid() {
		return errors.New("mark_badges_displayed: explorer_id is required")
	}
	if len(c.BadgeIDs) == 0 {
		return errors.New("mark_badges_displayed: at least one badge_id is required")
	}
	for _, id := range c.BadgeIDs {
		if !id.IsValid() {
			return fmt.Errorf("mark_badges_displayed: invalid badge_id %q", id)
		}
	}
	return nil
}

// MarkBadgesDisplayedResult confirms the acknowledgement.
type MarkBadgesDisplayedResult struct {
	ExplorerID shared.ExplorerID
	Marked     []shared.BadgeID
	MarkedAt   time.Time
}

// MarkBadgesDisplayedHandler handles MarkBadgesDisplayedCommand.
type MarkBadgesDisplayedHandler struct {
	catalogByID    map[shared.BadgeID]badge.Definition
	displayedStore badge.DisplayedStore
	logger         *slog.Logger
}

// NewMarkBadgesDisplayedHandler creates a new handler.
func NewMarkBadgesDisplayedHandler(
	catalog []badge.Definition,
	displayedStore badge.DisplayedStore,
	logger *slog.Logger,
) *MarkBadgesDisplayedHandler {
	return &MarkBadgesDisplayedHandler{
		catalogByID:    badge.CatalogByID(catalog),
		displayedStore: displayedStore,
		logger:         logger,
	}
}

// Handle executes the command. Unknown badge ids are rejected so a
// buggy client cannot grow the set without bound.
func (h *MarkBadgesDisplayedHandler) Handle(ctx context.Context, cmd MarkBadgesDisplayedCommand) (*MarkBadgesDisplayedResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	for _, id := range cmd.BadgeIDs {
		if _, ok := h.catalogByID[id]; !ok {
			return nil, shared.ErrBadgeNotFound
		}
	}

	if err := h.displayedStore.MarkDisplayed(ctx, cmd.ExplorerID, cmd.BadgeIDs); err != nil {
		return nil, fmt.Errorf("mark_badges_displayed: %w", err)
	}

	h.logger.Debug("badges marked displayed",
		slog.String("explorer_id", cmd.ExplorerID.String()),
		slog.Int("count", len(cmd.BadgeIDs)))

	return &MarkBadgesDisplayedResult{
		ExplorerID: cmd.ExplorerID,
		Marked:     cmd.BadgeIDs,
		MarkedAt:   time.Now().UTC(),
	}, nil
}
