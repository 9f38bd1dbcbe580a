package streak

import (
	"context"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// Repository defines persistence for streaks: one row per explorer,
// upserted in place. Retrying a same-day update is harmless because
// RecordActivity is idempotent within a day.
type Repository interface {
	// Get returns the explorer's streak, or a fresh zero streak when
	// none has been stored yet.
	Get(ctx context.Context, explorerID shared.ExplorerID) (*Streak, error)

	// Upsert persists the streak keyed on explorer ID.
	Upsert(ctx context.Context, s *Streak) error
}
