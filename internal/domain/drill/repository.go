package drill

import (
	"context"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// Repository stores drill sessions. The store is append-only: sessions
// are inserted once and never updated or deleted.
type Repository interface {
	// Append persists a new finished session.
	Append(ctx context.Context, session *Session) error

	// ListByExplorer returns the explorer's full history ordered by
	// CreatedAt ascending. Empty history returns an empty slice, not an error.
	ListByExplorer(ctx context.Context, explorerID shared.ExplorerID) ([]*Session, error)

	// CountByExplorer returns the total number of sessions recorded.
	CountByExplorer(ctx context.Context, explorerID shared.ExplorerID) (int, error)
}
