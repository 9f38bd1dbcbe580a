// Package postgres implements the PostgreSQL persistence layer for the
// progression hub.
package postgres

import (
	"context"
	"fmt"

	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DRILL REPOSITORY IMPLEMENTATION
// Sessions are append-only facts; statistics are recomputed from the
// full history on read.
// ══════════════════════════════════════════════════════════════════════════════

// DrillRepository implements drill.Repository for PostgreSQL.
type DrillRepository struct {
	conn *Connection
}

// NewDrillRepository creates a new DrillRepository.
func NewDrillRepository(conn *Connection) *DrillRepository {
	return &DrillRepository{conn: conn}
}

// Append stores one finished session.
func (r *DrillRepository) Append(ctx context.Context, s *drill.Session) error {
	query := `
		INSERT INTO drill_sessions (
			id, explorer_id, operation, difficulty, score, accuracy, time_seconds, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.ExplorerID.String(),
		string(s.Operation),
		string(s.Difficulty),
		s.Score,
		s.Accuracy,
		s.TimeSeconds,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append drill session: %w", err)
	}

	return nil
}

// ListByExplorer returns an explorer's sessions ordered oldest first.
func (r *DrillRepository) ListByExplorer(ctx context.Context, explorerID shared.ExplorerID) ([]*drill.Session, error) {
	query := `
		SELECT id, explorer_id, operation, difficulty, score, accuracy, time_seconds, created_at
		FROM drill_sessions
		WHERE explorer_id = $1
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, explorerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list drill sessions: %w", err)
	}
	defer rows.Close()

	var out []*drill.Session
	for rows.Next() {
		var (
			s          drill.Session
			explorer   string
			operation  string
			difficulty string
		)
		err := rows.Scan(
			&s.ID,
			&explorer,
			&operation,
			&difficulty,
			&s.Score,
			&s.Accuracy,
			&s.TimeSeconds,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drill session: %w", err)
		}
		s.ExplorerID = shared.ExplorerID(explorer)
		s.Operation = drill.Operation(operation)
		s.Difficulty = drill.Difficulty(difficulty)
		out = append(out, &s)
	}

	return out, rows.Err()
}

// CountByExplorer returns the number of recorded sessions.
func (r *DrillRepository) CountByExplorer(ctx context.Context, explorerID shared.ExplorerID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT count(*) FROM drill_sessions WHERE explorer_id = $1",
		explorerID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count drill sessions: %w", err)
	}
	return count, nil
}
