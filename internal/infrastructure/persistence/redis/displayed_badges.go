// Package redis implements Redis-backed infrastructure for the
// progression hub.
package redis

import (
	"context"
	"fmt"

	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPLAYED BADGE STORE
// Tracks which earned badges have had their one-time celebration shown.
// The set is presentation bookkeeping, not an achievement fact: losing
// it re-celebrates a badge, it never un-earns one. That is why it lives
// here and not next to earned_badges in PostgreSQL.
// ══════════════════════════════════════════════════════════════════════════════

// DisplayedBadgeStore implements badge.DisplayedStore on a Redis set
// per explorer.
type DisplayedBadgeStore struct {
	cache *Cache
}

// NewDisplayedBadgeStore creates a new DisplayedBadgeStore.
func NewDisplayedBadgeStore(cache *Cache) *DisplayedBadgeStore {
	return &DisplayedBadgeStore{cache: cache}
}

// MarkDisplayed adds badge IDs to the explorer's celebrated set.
func (s *DisplayedBadgeStore) MarkDisplayed(ctx context.Context, explorerID shared.ExplorerID, ids []shared.BadgeID) error {
	if len(ids) == 0 {
		return nil
	}

	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		members = append(members, id.String())
	}

	if err := s.cache.SAdd(ctx, DisplayedBadgesKey(explorerID.String()), members...); err != nil {
		return fmt.Errorf("failed to mark badges displayed: %w", err)
	}

	return nil
}

// DisplayedIDs returns the celebrated badge IDs of an explorer.
func (s *DisplayedBadgeStore) DisplayedIDs(ctx context.Context, explorerID shared.ExplorerID) ([]shared.BadgeID, error) {
	members, err := s.cache.SMembers(ctx, DisplayedBadgesKey(explorerID.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to load displayed badges: %w", err)
	}

	out := make([]shared.BadgeID, 0, len(members))
	for _, m := range members {
		out = append(out, shared.BadgeID(m))
	}

	return out, nil
}

var _ badge.DisplayedStore = (*DisplayedBadgeStore)(nil)
