// Package memory holds process-local stand-ins for stores that
// normally live in Redis. Used when Redis is disabled: acceptable for
// the displayed-badge set because the set is presentation bookkeeping,
// and losing it on restart only repeats a celebration.
package memory

import (
	"context"
	"sync"

	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// DisplayedBadgeStore is a mutex-guarded in-memory badge.DisplayedStore.
type DisplayedBadgeStore struct {
	mu   sync.RWMutex
	sets map[shared.ExplorerID]map[shared.BadgeID]bool
}

// NewDisplayedBadgeStore creates an empty store.
func NewDisplayedBadgeStore() *DisplayedBadgeStore {
	return &DisplayedBadgeStore{
		sets: make(map[shared.ExplorerID]map[shared.BadgeID]bool),
	}
}

// MarkDisplayed adds badge ids to the explorer's displayed set.
func (s *DisplayedBadgeStore) MarkDisplayed(_ context.Context, explorerID shared.ExplorerID, ids []shared.BadgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[explorerID]
	if !ok {
		set = make(map[shared.BadgeID]bool, len(ids))
		s.sets[explorerID] = set
	}
	for _, id := range ids {
		set[id] = true
	}
	return nil
}

// DisplayedIDs returns the explorer's displayed set.
func (s *DisplayedBadgeStore) DisplayedIDs(_ context.Context, explorerID shared.ExplorerID) ([]shared.BadgeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.sets[explorerID]
	ids := make([]shared.BadgeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ badge.DisplayedStore = (*DisplayedBadgeStore)(nil)
