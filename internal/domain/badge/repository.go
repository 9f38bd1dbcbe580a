package badge

import (
	"context"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// EarnedRepository is the durable source of truth for earned badges.
type EarnedRepository interface {
	// Save persists an earned badge. Must be idempotent under concurrent
	// duplicate attempts: a second save of the same (explorer, badge) is
	// a silent no-op, never an error and never a second row.
	Save(ctx context.Context, earned EarnedBadge) error

	// ListByExplorer returns all earned badges, EarnedAt ascending.
	ListByExplorer(ctx context.Context, explorerID shared.ExplorerID) ([]EarnedBadge, error)

	// EarnedIDs returns just the badge ids earned by the explorer.
	EarnedIDs(ctx context.Context, explorerID shared.ExplorerID) ([]shared.BadgeID, error)
}

// DisplayedStore records which earned badges were already celebrated
// once. It lives in lighter storage and is allowed to be lossy: losing
// it re-shows a celebration, it never affects whether a badge is earned.
type DisplayedStore interface {
	// MarkDisplayed adds badge ids to the explorer's displayed set.
	MarkDisplayed(ctx context.Context, explorerID shared.ExplorerID, ids []shared.BadgeID) error

	// DisplayedIDs returns the explorer's displayed set.
	DisplayedIDs(ctx context.Context, explorerID shared.ExplorerID) ([]shared.BadgeID, error)
}
