package progression

import (
	"context"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Contracts for the persistence collaborator. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines persistence for progress records.
type Repository interface {
	// Upsert persists the record keyed on (explorer, module, defi).
	// The write is idempotent: duplicate or concurrent invocations
	// converge to one row. On conflict the attempt count is incremented
	// atomically at the storage layer (not read-then-write), and the
	// returned record carries the authoritative count.
	Upsert(ctx context.Context, record *Record) (*Record, error)

	// Get returns the record for the unique key.
	// Returns shared.ErrRecordNotFound when no record exists.
	Get(ctx context.Context, explorerID shared.ExplorerID, moduleID shared.ModuleID, defiID shared.DefiID) (*Record, error)

	// ListByExplorer returns all records of one explorer.
	ListByExplorer(ctx context.Context, explorerID shared.ExplorerID) ([]*Record, error)

	// ListByModule returns one explorer's records within a module.
	ListByModule(ctx context.Context, explorerID shared.ExplorerID, moduleID shared.ModuleID) ([]*Record, error)

	// ListCompleted returns the completion facts of one explorer,
	// ordered by completion time ascending. This is the history the
	// badge engine evaluates.
	ListCompleted(ctx context.Context, explorerID shared.ExplorerID) ([]CompletedDefi, error)

	// ListAwaitingReview returns the records a mentor still has to
	// review across all of their explorers.
	ListAwaitingReview(ctx context.Context, mentorID shared.ExplorerID) ([]*Record, error)
}

// CompletedSetsByModule groups completion facts into per-module sets of
// defi IDs, the shape the dependency resolver consumes.
func CompletedSetsByModule(completed []CompletedDefi) map[shared.ModuleID]map[shared.DefiID]bool {
	sets := make(map[shared.ModuleID]map[shared.DefiID]bool)
	for _, c := range completed {
		set, ok := sets[c.ModuleID]
		if !ok {
			set = make(map[shared.DefiID]bool)
			sets[c.ModuleID] = set
		}
		set[c.DefiID] = true
	}
	return sets
}
