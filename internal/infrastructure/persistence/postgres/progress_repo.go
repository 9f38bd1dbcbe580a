// Package postgres implements the PostgreSQL persistence layer for the
// progression hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progression.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

const progressColumns = `
	id, explorer_id, module_id, defi_id, status, evaluation, xp_earned,
	response_text, mentor_comment, attempt_count, completed_at, created_at, updated_at
`

// Upsert persists the record keyed on (explorer, module, defi).
//
// The attempt counter is maintained inside the conflict clause. A
// resubmission (an incoming SUBMITTED over a stored REVISION_REQUESTED)
// increments the stored counter; every other write keeps the larger of
// the two values, so replaying the same upsert converges instead of
// counting twice. The RETURNING clause carries the authoritative row
// back to the caller.
func (r *ProgressRepository) Upsert(ctx context.Context, record *progression.Record) (*progression.Record, error) {
	query := `
		INSERT INTO progress_records (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (explorer_id, module_id, defi_id) DO UPDATE SET
			status = EXCLUDED.status,
			evaluation = EXCLUDED.evaluation,
			xp_earned = EXCLUDED.xp_earned,
			response_text = EXCLUDED.response_text,
			mentor_comment = EXCLUDED.mentor_comment,
			attempt_count = CASE
				WHEN EXCLUDED.evaluation = 'SUBMITTED'
				 AND progress_records.evaluation = 'REVISION_REQUESTED'
				THEN progress_records.attempt_count + 1
				ELSE GREATEST(progress_records.attempt_count, EXCLUDED.attempt_count)
			END,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + progressColumns

	row := r.conn.QueryRow(ctx, query,
		record.ID,
		record.ExplorerID.String(),
		record.ModuleID.String(),
		record.DefiID.String(),
		string(record.Status),
		string(record.Evaluation),
		record.XPEarned.Int(),
		record.ResponseText,
		record.MentorComment,
		record.AttemptCount,
		record.CompletedAt,
		record.CreatedAt,
		record.UpdatedAt,
	)

	saved, err := r.scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert progress record: %w", err)
	}

	return saved, nil
}

// Get returns the record for the unique key.
func (r *ProgressRepository) Get(ctx context.Context, explorerID shared.ExplorerID, moduleID shared.ModuleID, defiID shared.DefiID) (*progression.Record, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress_records
		WHERE explorer_id = $1 AND module_id = $2 AND defi_id = $3
	`

	row := r.conn.QueryRow(ctx, query,
		explorerID.String(), moduleID.String(), defiID.String())

	record, err := r.scanRecord(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get progress record: %w", err)
	}

	return record, nil
}

// ListByExplorer returns all records of one explorer.
func (r *ProgressRepository) ListByExplorer(ctx context.Context, explorerID shared.ExplorerID) ([]*progression.Record, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress_records
		WHERE explorer_id = $1
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, explorerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list progress records: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// ListByModule returns one explorer's records within a module.
func (r *ProgressRepository) ListByModule(ctx context.Context, explorerID shared.ExplorerID, moduleID shared.ModuleID) ([]*progression.Record, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress_records
		WHERE explorer_id = $1 AND module_id = $2
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, explorerID.String(), moduleID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list progress records by module: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// ListCompleted returns the completion facts of one explorer, ordered
// by completion time ascending.
func (r *ProgressRepository) ListCompleted(ctx context.Context, explorerID shared.ExplorerID) ([]progression.CompletedDefi, error) {
	query := `
		SELECT module_id, defi_id, xp_earned, completed_at
		FROM progress_records
		WHERE explorer_id = $1 AND status = 'completed'
		ORDER BY completed_at
	`

	rows, err := r.conn.Query(ctx, query, explorerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list completed defis: %w", err)
	}
	defer rows.Close()

	var out []progression.CompletedDefi
	for rows.Next() {
		var (
			moduleID    string
			defiID      string
			xpEarned    int
			completedAt time.Time
		)
		if err := rows.Scan(&moduleID, &defiID, &xpEarned, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completed defi: %w", err)
		}
		out = append(out, progression.CompletedDefi{
			ModuleID:    shared.ModuleID(moduleID),
			DefiID:      shared.DefiID(defiID),
			XPEarned:    shared.XP(xpEarned),
			CompletedAt: completedAt,
		})
	}

	return out, rows.Err()
}

// ListAwaitingReview returns the records a mentor still has to review
// across all of their explorers, oldest submission first.
func (r *ProgressRepository) ListAwaitingReview(ctx context.Context, mentorID shared.ExplorerID) ([]*progression.Record, error) {
	query := `
		SELECT ` + qualifiedProgressColumns("p") + `
		FROM progress_records p
		JOIN explorers e ON e.id = p.explorer_id
		WHERE e.mentor_id = $1 AND p.evaluation = 'SUBMITTED'
		ORDER BY p.updated_at
	`

	rows, err := r.conn.Query(ctx, query, mentorID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list records awaiting review: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *ProgressRepository) scanRecord(row pgx.Row) (*progression.Record, error) {
	var (
		record     progression.Record
		explorerID string
		moduleID   string
		defiID     string
		status     string
		evaluation string
		xpEarned   int
	)

	err := row.Scan(
		&record.ID,
		&explorerID,
		&moduleID,
		&defiID,
		&status,
		&evaluation,
		&xpEarned,
		&record.ResponseText,
		&record.MentorComment,
		&record.AttemptCount,
		&record.CompletedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.ExplorerID = shared.ExplorerID(explorerID)
	record.ModuleID = shared.ModuleID(moduleID)
	record.DefiID = shared.DefiID(defiID)
	record.Status = progression.CompletionStatus(status)
	record.Evaluation = progression.EvaluationStatus(evaluation)
	record.XPEarned = shared.XP(xpEarned)

	return &record, nil
}

func (r *ProgressRepository) scanRecords(rows pgx.Rows) ([]*progression.Record, error) {
	var out []*progression.Record
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func qualifiedProgressColumns(alias string) string {
	return fmt.Sprintf(`
		%[1]s.id, %[1]s.explorer_id, %[1]s.module_id, %[1]s.defi_id, %[1]s.status,
		%[1]s.evaluation, %[1]s.xp_earned, %[1]s.response_text, %[1]s.mentor_comment,
		%[1]s.attempt_count, %[1]s.completed_at, %[1]s.created_at, %[1]s.updated_at`, alias)
}
