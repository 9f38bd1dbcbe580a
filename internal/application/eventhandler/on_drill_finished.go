package eventhandler

import (
	"context"
	"log/slog"

	"github.com/explo-hub/explo-progression-hub/internal/application/query"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON DRILL FINISHED HANDLER
// A finished drill may have extended the streak shown on the module
// board header, so the cached board is dropped here too.
// ═══════════════════════════════════════════════════════════════════════════

// OnDrillFinishedHandler reacts to finished drill events.
type OnDrillFinishedHandler struct {
	boardCache query.ModuleBoardCache
	logger     *slog.Logger
}

// NewOnDrillFinishedHandler creates the handler.
func NewOnDrillFinishedHandler(boardCache query.ModuleBoardCache, logger *slog.Logger) *OnDrillFinishedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnDrillFinishedHandler{
		boardCache: boardCache,
		logger:     logger.With("handler", "on_drill_finished"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnDrillFinishedHandler) Handle(ctx context.Context, event shared.Event) error {
	finished, ok := event.(shared.DrillFinishedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("drill finished",
		"explorer_id", finished.ExplorerID,
		"operation", finished.Operation,
		"difficulty", finished.Difficulty,
		"score", finished.Score)

	if h.boardCache != nil {
		if err := h.boardCache.Invalidate(ctx, shared.ExplorerID(finished.ExplorerID)); err != nil {
			h.logger.Warn("board cache invalidation failed",
				"explorer_id", finished.ExplorerID,
				"error", err.Error())
		}
	}

	return nil
}
