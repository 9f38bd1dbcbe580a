// Package postgres implements the PostgreSQL persistence layer for the
// progression hub.
package postgres

import (
	"context"
	"fmt"

	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EARNED BADGE REPOSITORY IMPLEMENTATION
// An earned badge is permanent. ON CONFLICT DO NOTHING makes repeated
// saves of the same award converge on one row, which is what lets the
// rule engine re-evaluate the full catalog on every trigger without
// double-awarding.
// ══════════════════════════════════════════════════════════════════════════════

// EarnedBadgeRepository implements badge.EarnedRepository for PostgreSQL.
type EarnedBadgeRepository struct {
	conn *Connection
}

// NewEarnedBadgeRepository creates a new EarnedBadgeRepository.
func NewEarnedBadgeRepository(conn *Connection) *EarnedBadgeRepository {
	return &EarnedBadgeRepository{conn: conn}
}

// Save stores one earned badge. Idempotent.
func (r *EarnedBadgeRepository) Save(ctx context.Context, e badge.EarnedBadge) error {
	query := `
		INSERT INTO earned_badges (explorer_id, badge_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (explorer_id, badge_id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query,
		e.ExplorerID.String(), e.BadgeID.String(), e.EarnedAt)
	if err != nil {
		return fmt.Errorf("failed to save earned badge: %w", err)
	}

	return nil
}

// ListByExplorer returns an explorer's earned badges, oldest first.
func (r *EarnedBadgeRepository) ListByExplorer(ctx context.Context, explorerID shared.ExplorerID) ([]badge.EarnedBadge, error) {
	query := `
		SELECT explorer_id, badge_id, earned_at
		FROM earned_badges
		WHERE explorer_id = $1
		ORDER BY earned_at
	`

	rows, err := r.conn.Query(ctx, query, explorerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list earned badges: %w", err)
	}
	defer rows.Close()

	var out []badge.EarnedBadge
	for rows.Next() {
		var (
			e        badge.EarnedBadge
			explorer string
			badgeID  string
		)
		if err := rows.Scan(&explorer, &badgeID, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan earned badge: %w", err)
		}
		e.ExplorerID = shared.ExplorerID(explorer)
		e.BadgeID = shared.BadgeID(badgeID)
		out = append(out, e)
	}

	return out, rows.Err()
}

// EarnedIDs returns just the badge IDs an explorer has earned.
func (r *EarnedBadgeRepository) EarnedIDs(ctx context.Context, explorerID shared.ExplorerID) ([]shared.BadgeID, error) {
	rows, err := r.conn.Query(ctx,
		"SELECT badge_id FROM earned_badges WHERE explorer_id = $1",
		explorerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list earned badge ids: %w", err)
	}
	defer rows.Close()

	var out []shared.BadgeID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan badge id: %w", err)
		}
		out = append(out, shared.BadgeID(id))
	}

	return out, rows.Err()
}
