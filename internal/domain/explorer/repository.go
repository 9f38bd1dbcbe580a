package explorer

import (
	"context"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// Repository defines persistence for explorer profiles.
type Repository interface {
	// Create creates a new explorer.
	// Returns shared.ErrExplorerAlreadyExists on a duplicate ID.
	Create(ctx context.Context, e *Explorer) error

	// GetByID returns an explorer by ID.
	// Returns shared.ErrExplorerNotFound when absent.
	GetByID(ctx context.Context, id shared.ExplorerID) (*Explorer, error)

	// Update persists profile changes (mentor link, solo flag, XP total).
	Update(ctx context.Context, e *Explorer) error

	// AddXP atomically increments the stored XP total and returns the
	// new value. Storage-side increment so two concurrent completions
	// never lose an update.
	AddXP(ctx context.Context, id shared.ExplorerID, delta shared.XP) (shared.XP, error)

	// ListByMentor returns the active explorers supervised by a mentor.
	ListByMentor(ctx context.Context, mentorID shared.ExplorerID) ([]*Explorer, error)

	// ListActive returns all active explorers. Used by the worker's
	// periodic badge sweep.
	ListActive(ctx context.Context) ([]*Explorer, error)
}
