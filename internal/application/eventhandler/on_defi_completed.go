// Package eventhandler contains domain event handlers wired to the
// event bus. Handlers do read-model upkeep; they never own business
// decisions, those happen in the commands that published the event.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/explo-hub/explo-progression-hub/internal/application/query"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON DEFI COMPLETED HANDLER
// A completion changes the unlock graph, completion rates, XP and the
// streak, all of which live in the cached module board. Drop the cache
// so the next read rebuilds it.
// ═══════════════════════════════════════════════════════════════════════════

// OnDefiCompletedHandler reacts to defi completion events.
type OnDefiCompletedHandler struct {
	boardCache query.ModuleBoardCache
	logger     *slog.Logger
}

// NewOnDefiCompletedHandler creates the handler. boardCache may be nil
// when board caching is disabled.
func NewOnDefiCompletedHandler(boardCache query.ModuleBoardCache, logger *slog.Logger) *OnDefiCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnDefiCompletedHandler{
		boardCache: boardCache,
		logger:     logger.With("handler", "on_defi_completed"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnDefiCompletedHandler) Handle(ctx context.Context, event shared.Event) error {
	completed, ok := event.(shared.DefiCompletedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("defi completed",
		"explorer_id", completed.ExplorerID,
		"module_id", completed.ModuleID,
		"defi_id", completed.DefiID,
		"xp_earned", completed.XPEarned)

	if h.boardCache != nil {
		if err := h.boardCache.Invalidate(ctx, shared.ExplorerID(completed.ExplorerID)); err != nil {
			// A stale board is cosmetic; the TTL bounds the damage.
			h.logger.Warn("board cache invalidation failed",
				"explorer_id", completed.ExplorerID,
				"error", err.Error())
		}
	}

	return nil
}
