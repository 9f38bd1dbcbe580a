// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/entitlement"
	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MODULE BOARD QUERY
// The main read model: every module in display order with the
// explorer's derived unlock graph, completion rate, and earned XP.
// ══════════════════════════════════════════════════════════════════════════════

// GetModuleBoardQuery identifies whose board to build.
type GetModuleBoardQuery struct {
	ExplorerID shared.ExplorerID
}

// DefiView is one defi row on the board.
type DefiView struct {
	ID      shared.DefiID     `json:"id"`
	Title   string            `json:"title"`
	State   catalog.DefiState `json:"state"`
	XPValue shared.XP         `json:"xp_value"`
	Kind    string            `json:"kind"`
}

// ModuleView is one module row on the board.
type ModuleView struct {
	ID             shared.ModuleID `json:"id"`
	Title          string          `json:"title"`
	Locked         bool            `json:"locked"`
	Accessible     bool            `json:"accessible"`
	CompletedCount int             `json:"completed_count"`
	TotalCount     int             `json:"total_count"`
	CompletionRate float64         `json:"completion_rate"`
	EarnedXP       shared.XP       `json:"earned_xp"`
	TotalXP        shared.XP       `json:"total_xp"`
	Defis          []DefiView      `json:"defis"`
}

// ModuleBoard is the full board for one explorer.
type ModuleBoard struct {
	ExplorerID shared.ExplorerID `json:"explorer_id"`
	XPTotal    shared.XP         `json:"xp_total"`
	Streak     int               `json:"streak"`

	// GateDegraded reports that the entitlement service was
	// unreachable: locked modules are shown inaccessible but the
	// client should not cache that verdict.
	GateDegraded bool `json:"gate_degraded,omitempty"`

	Modules     []ModuleView `json:"modules"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// ModuleBoardCache caches assembled boards per explorer. Lossy by
// contract: a miss or a failed invalidation only costs a recompute.
type ModuleBoardCache interface {
	Get(ctx context.Context, explorerID shared.ExplorerID) (*ModuleBoard, bool)
	Set(ctx context.Context, explorerID shared.ExplorerID, board *ModuleBoard)
	Invalidate(ctx context.Context, explorerID shared.ExplorerID) error
}

// GetModuleBoardHandler handles GetModuleBoardQuery.
type GetModuleBoardHandler struct {
	modules      *catalog.Catalog
	displayOrder catalog.DisplayOrder
	explorerRepo explorer.Repository
	progressRepo progression.Repository
	streakRepo   streak.Repository
	gate         entitlement.Gate
	cache        ModuleBoardCache
	logger       *slog.Logger
}

// NewGetModuleBoardHandler creates a new GetModuleBoardHandler.
// cache may be nil to disable board caching.
func NewGetModuleBoardHandler(
	modules *catalog.Catalog,
	displayOrder catalog.DisplayOrder,
	explorerRepo explorer.Repository,
	progressRepo progression.Repository,
	streakRepo streak.Repository,
	gate entitlement.Gate,
	cache ModuleBoardCache,
	logger *slog.Logger,
) *GetModuleBoardHandler {
	return &GetModuleBoardHandler{
		modules:      modules,
		displayOrder: displayOrder,
		explorerRepo: explorerRepo,
		progressRepo: progressRepo,
		streakRepo:   streakRepo,
		gate:         gate,
		cache:        cache,
		logger:       logger,
	}
}

// Handle builds the board.
func (h *GetModuleBoardHandler) Handle(ctx context.Context, q GetModuleBoardQuery) (*ModuleBoard, error) {
	if !q.ExplorerID.IsValid() {
		return nil, errors.New("get_module_board: explorer_id is required")
	}

	if h.cache != nil {
		if board, ok := h.cache.Get(ctx, q.ExplorerID); ok {
			return board, nil
		}
	}

	exp, err := h.explorerRepo.GetByID(ctx, q.ExplorerID)
	if err != nil {
		return nil, fmt.Errorf("get_module_board: %w", err)
	}

	completed, err := h.progressRepo.ListCompleted(ctx, q.ExplorerID)
	if err != nil {
		return nil, fmt.Errorf("get_module_board: %w", err)
	}
	byModule := make(map[shared.ModuleID]catalog.CompletedSet)
	for id, set := range progression.CompletedSetsByModule(completed) {
		byModule[id] = catalog.CompletedSet(set)
	}

	st, err := h.streakRepo.Get(ctx, q.ExplorerID)
	if err != nil {
		return nil, fmt.Errorf("get_module_board: %w", err)
	}

	board := &ModuleBoard{
		ExplorerID:  q.ExplorerID,
		XPTotal:     exp.XPTotal,
		Streak:      st.Current,
		GeneratedAt: time.Now().UTC(),
	}

	for _, module := range h.displayOrder.Ordered(h.modules) {
		gated := module.Locked
		accessible := true
		if gated {
			accessible = h.checkAccess(ctx, q.ExplorerID, module.ID, board)
			// The gate verdict decides the effective lock: an entitled
			// explorer sees the module resolve like any open one.
			module.Locked = !accessible
		}

		res := catalog.Resolve(module, byModule[module.ID])
		view := ModuleView{
			ID:             module.ID,
			Title:          module.Title,
			Locked:         gated,
			Accessible:     accessible,
			CompletedCount: res.CompletedCount,
			TotalCount:     len(module.Defis),
			CompletionRate: res.CompletionRate,
			EarnedXP:       res.EarnedXP,
			TotalXP:        module.TotalXP(),
		}

		for _, d := range res.Defis {
			view.Defis = append(view.Defis, DefiView{
				ID:      d.Defi.ID,
				Title:   d.Defi.Title,
				State:   d.State,
				XPValue: d.Defi.XPValue,
				Kind:    string(d.Defi.Kind),
			})
		}

		for _, w := range res.IntegrityWarnings {
			h.logger.Warn("catalog integrity warning",
				slog.String("module_id", w.ModuleID.String()),
				slog.String("defi_id", w.DefiID.String()),
				slog.String("prerequisite", w.Prerequisite.String()))
		}

		board.Modules = append(board.Modules, view)
	}

	// Degraded boards are never cached: the gate verdicts in them are
	// placeholders.
	if h.cache != nil && !board.GateDegraded {
		h.cache.Set(ctx, q.ExplorerID, board)
	}

	return board, nil
}

func (h *GetModuleBoardHandler) checkAccess(ctx context.Context, explorerID shared.ExplorerID, moduleID shared.ModuleID, board *ModuleBoard) bool {
	err := h.gate.CanAccessModule(ctx, explorerID, moduleID)
	if err == nil {
		return true
	}
	if errors.Is(err, shared.ErrServiceUnavailable) {
		board.GateDegraded = true
		h.logger.Warn("entitlement gate unavailable, module shown locked",
			slog.String("module_id", moduleID.String()),
			slog.String("error", err.Error()))
	}
	return false
}
