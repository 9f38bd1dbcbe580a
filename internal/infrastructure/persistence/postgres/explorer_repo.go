// Package postgres implements the PostgreSQL persistence layer for the
// progression hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPLORER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ExplorerRepository implements explorer.Repository for PostgreSQL.
type ExplorerRepository struct {
	conn *Connection
}

// NewExplorerRepository creates a new ExplorerRepository.
func NewExplorerRepository(conn *Connection) *ExplorerRepository {
	return &ExplorerRepository{conn: conn}
}

// Create creates a new explorer.
func (r *ExplorerRepository) Create(ctx context.Context, e *explorer.Explorer) error {
	query := `
		INSERT INTO explorers (
			id, name, mentor_id, solo, pin_hash, xp_total, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		e.ID.String(),
		e.Name,
		mentorIDValue(e.MentorID),
		e.Solo,
		e.PinHash,
		e.XPTotal.Int(),
		e.Active,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrExplorerAlreadyExists
		}
		return fmt.Errorf("failed to create explorer: %w", err)
	}

	return nil
}

// GetByID returns an explorer by ID.
func (r *ExplorerRepository) GetByID(ctx context.Context, id shared.ExplorerID) (*explorer.Explorer, error) {
	query := `
		SELECT id, name, mentor_id, solo, pin_hash, xp_total, active, created_at, updated_at
		FROM explorers
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())
	return r.scanExplorer(row)
}

// Update persists profile changes.
func (r *ExplorerRepository) Update(ctx context.Context, e *explorer.Explorer) error {
	query := `
		UPDATE explorers SET
			name = $1,
			mentor_id = $2,
			solo = $3,
			pin_hash = $4,
			xp_total = $5,
			active = $6,
			updated_at = $7
		WHERE id = $8
	`

	result, err := r.conn.Exec(ctx, query,
		e.Name,
		mentorIDValue(e.MentorID),
		e.Solo,
		e.PinHash,
		e.XPTotal.Int(),
		e.Active,
		time.Now().UTC(),
		e.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update explorer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrExplorerNotFound
	}

	return nil
}

// AddXP increments the stored XP total in a single statement and
// returns the new value. The increment runs on the stored row, so two
// concurrent completions both land.
func (r *ExplorerRepository) AddXP(ctx context.Context, id shared.ExplorerID, delta shared.XP) (shared.XP, error) {
	query := `
		UPDATE explorers
		SET xp_total = xp_total + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING xp_total
	`

	var total int
	err := r.conn.QueryRow(ctx, query, delta.Int(), id.String()).Scan(&total)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrExplorerNotFound
		}
		return 0, fmt.Errorf("failed to add xp: %w", err)
	}

	return shared.XP(total), nil
}

// ListByMentor returns the active explorers supervised by a mentor.
func (r *ExplorerRepository) ListByMentor(ctx context.Context, mentorID shared.ExplorerID) ([]*explorer.Explorer, error) {
	query := `
		SELECT id, name, mentor_id, solo, pin_hash, xp_total, active, created_at, updated_at
		FROM explorers
		WHERE mentor_id = $1 AND active
		ORDER BY name
	`

	rows, err := r.conn.Query(ctx, query, mentorID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list explorers by mentor: %w", err)
	}
	defer rows.Close()

	return r.scanExplorers(rows)
}

// ListActive returns all active explorers.
func (r *ExplorerRepository) ListActive(ctx context.Context) ([]*explorer.Explorer, error) {
	query := `
		SELECT id, name, mentor_id, solo, pin_hash, xp_total, active, created_at, updated_at
		FROM explorers
		WHERE active
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active explorers: %w", err)
	}
	defer rows.Close()

	return r.scanExplorers(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *ExplorerRepository) scanExplorer(row pgx.Row) (*explorer.Explorer, error) {
	var (
		e        explorer.Explorer
		id       string
		mentorID *string
		xpTotal  int
	)

	err := row.Scan(
		&id,
		&e.Name,
		&mentorID,
		&e.Solo,
		&e.PinHash,
		&xpTotal,
		&e.Active,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrExplorerNotFound
		}
		return nil, fmt.Errorf("failed to scan explorer: %w", err)
	}

	e.ID = shared.ExplorerID(id)
	e.XPTotal = shared.XP(xpTotal)
	if mentorID != nil {
		m := shared.ExplorerID(*mentorID)
		e.MentorID = &m
	}

	return &e, nil
}

func (r *ExplorerRepository) scanExplorers(rows pgx.Rows) ([]*explorer.Explorer, error) {
	var out []*explorer.Explorer
	for rows.Next() {
		e, err := r.scanExplorer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func mentorIDValue(id *shared.ExplorerID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
