package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/entitlement"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DRILL STATS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetDrillStatsQuery identifies whose statistics to compute.
type GetDrillStatsQuery struct {
	ExplorerID shared.ExplorerID
}

// DrillStatsView is the computed snapshot plus per-operation bests.
type DrillStatsView struct {
	ExplorerID shared.ExplorerID `json:"explorer_id"`

	Stats drill.Stats `json:"stats"`

	// BestPerOperation maps each drilled operation to its best record.
	BestPerOperation map[drill.Operation]drill.BestRecord `json:"best_per_operation,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetDrillStatsHandler handles GetDrillStatsQuery.
type GetDrillStatsHandler struct {
	drillRepo drill.Repository
	gate      entitlement.Gate
}

// NewGetDrillStatsHandler creates a new GetDrillStatsHandler.
func NewGetDrillStatsHandler(drillRepo drill.Repository, gate entitlement.Gate) *GetDrillStatsHandler {
	return &GetDrillStatsHandler{drillRepo: drillRepo, gate: gate}
}

// Handle computes the statistics. An empty history yields HasData=false
// rather than zero-valued records.
func (h *GetDrillStatsHandler) Handle(ctx context.Context, q GetDrillStatsQuery) (*DrillStatsView, error) {
	if !q.ExplorerID.IsValid() {
		return nil, errors.New("get_drill_stats: explorer_id is required")
	}

	if err := h.gate.CanAccessDrills(ctx, q.ExplorerID); err != nil {
		return nil, err
	}

	sessions, err := h.drillRepo.ListByExplorer(ctx, q.ExplorerID)
	if err != nil {
		return nil, fmt.Errorf("get_drill_stats: %w", err)
	}

	view := &DrillStatsView{
		ExplorerID:  q.ExplorerID,
		Stats:       drill.Compute(sessions),
		GeneratedAt: time.Now().UTC(),
	}
	if view.Stats.HasData {
		view.BestPerOperation = drill.BestPerOperation(sessions)
	}

	return view, nil
}
