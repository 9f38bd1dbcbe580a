// Package postgres implements the PostgreSQL persistence layer for the
// progression hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements streak.Repository for PostgreSQL.
type StreakRepository struct {
	conn *Connection
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

// Get returns the streak tracker for an explorer. Absence is not an
// error: an explorer with no recorded activity gets a fresh zero streak.
func (r *StreakRepository) Get(ctx context.Context, explorerID shared.ExplorerID) (*streak.Streak, error) {
	query := `
		SELECT current, longest, last_activity
		FROM streaks
		WHERE explorer_id = $1
	`

	var (
		current      int
		longest      int
		lastActivity *time.Time
	)
	err := r.conn.QueryRow(ctx, query, explorerID.String()).
		Scan(&current, &longest, &lastActivity)
	if err != nil {
		if IsNoRows(err) {
			return streak.New(explorerID), nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	s := streak.New(explorerID)
	s.Current = current
	s.Longest = longest
	if lastActivity != nil {
		s.LastActivity = shared.DayOf(*lastActivity)
	}

	return s, nil
}

// Upsert persists the streak tracker.
func (r *StreakRepository) Upsert(ctx context.Context, s *streak.Streak) error {
	query := `
		INSERT INTO streaks (explorer_id, current, longest, last_activity, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (explorer_id) DO UPDATE SET
			current = EXCLUDED.current,
			longest = GREATEST(streaks.longest, EXCLUDED.longest),
			last_activity = EXCLUDED.last_activity,
			updated_at = NOW()
	`

	var lastActivity *time.Time
	if !s.LastActivity.IsZero() {
		t := s.LastActivity.Time()
		lastActivity = &t
	}

	_, err := r.conn.Exec(ctx, query,
		s.ExplorerID.String(), s.Current, s.Longest, lastActivity)
	if err != nil {
		return fmt.Errorf("failed to upsert streak: %w", err)
	}

	return nil
}
