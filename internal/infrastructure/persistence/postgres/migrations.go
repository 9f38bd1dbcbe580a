// Package postgres implements the PostgreSQL persistence layer for the
// progression hub.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_explorers",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_progress_and_streaks",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_drills_and_badges",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE EXPLORERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create explorers table
-- Version: 001

CREATE TABLE IF NOT EXISTS explorers (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    mentor_id UUID REFERENCES explorers(id),
    solo BOOLEAN NOT NULL DEFAULT TRUE,
    pin_hash TEXT NOT NULL,
    xp_total INTEGER NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (xp_total >= 0),
    CONSTRAINT no_self_mentoring CHECK (mentor_id IS NULL OR mentor_id <> id)
);

CREATE INDEX IF NOT EXISTS idx_explorers_mentor_id ON explorers(mentor_id) WHERE mentor_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_explorers_active ON explorers(active) WHERE active;
`

const migration001Down = `
DROP TABLE IF EXISTS explorers;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PROGRESS RECORDS AND STREAKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create progress_records and streaks tables
-- Version: 002

-- One row per (explorer, module, defi). Writes go through an upsert;
-- the attempt counter is maintained inside the conflict clause so
-- concurrent submissions never lose an increment.
CREATE TABLE IF NOT EXISTS progress_records (
    id UUID PRIMARY KEY,
    explorer_id UUID NOT NULL REFERENCES explorers(id) ON DELETE CASCADE,
    module_id VARCHAR(100) NOT NULL,
    defi_id VARCHAR(100) NOT NULL,
    status VARCHAR(20) NOT NULL,
    evaluation VARCHAR(30) NOT NULL,
    xp_earned INTEGER NOT NULL DEFAULT 0,
    response_text TEXT NOT NULL DEFAULT '',
    mentor_comment TEXT,
    attempt_count INTEGER NOT NULL DEFAULT 1,
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uniq_progress UNIQUE (explorer_id, module_id, defi_id),
    CONSTRAINT valid_status CHECK (status IN ('submitted', 'completed')),
    CONSTRAINT valid_evaluation CHECK (evaluation IN ('SUBMITTED', 'REVISION_REQUESTED', 'VALIDATED', 'IMMEDIATE_COMPLETION')),
    CONSTRAINT valid_xp_earned CHECK (xp_earned >= 0),
    CONSTRAINT valid_attempts CHECK (attempt_count >= 1),
    CONSTRAINT xp_only_when_completed CHECK (xp_earned = 0 OR evaluation IN ('VALIDATED', 'IMMEDIATE_COMPLETION'))
);

CREATE INDEX IF NOT EXISTS idx_progress_explorer ON progress_records(explorer_id);
CREATE INDEX IF NOT EXISTS idx_progress_explorer_module ON progress_records(explorer_id, module_id);
CREATE INDEX IF NOT EXISTS idx_progress_completed ON progress_records(explorer_id, completed_at) WHERE status = 'completed';
CREATE INDEX IF NOT EXISTS idx_progress_pending ON progress_records(evaluation) WHERE evaluation = 'SUBMITTED';

CREATE TABLE IF NOT EXISTS streaks (
    explorer_id UUID PRIMARY KEY REFERENCES explorers(id) ON DELETE CASCADE,
    current INTEGER NOT NULL DEFAULT 0,
    longest INTEGER NOT NULL DEFAULT 0,
    last_activity DATE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_streak CHECK (current >= 0 AND longest >= current)
);
`

const migration002Down = `
DROP TABLE IF EXISTS streaks;
DROP TABLE IF EXISTS progress_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE DRILL SESSIONS AND EARNED BADGES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create drill_sessions and earned_badges tables
-- Version: 003

-- Append-only facts. Statistics are recomputed from the full history,
-- so rows are never updated or deleted.
CREATE TABLE IF NOT EXISTS drill_sessions (
    id UUID PRIMARY KEY,
    explorer_id UUID NOT NULL REFERENCES explorers(id) ON DELETE CASCADE,
    operation VARCHAR(20) NOT NULL,
    difficulty VARCHAR(10) NOT NULL,
    score INTEGER NOT NULL,
    accuracy DOUBLE PRECISION NOT NULL,
    time_seconds DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_operation CHECK (operation IN ('addition', 'subtraction', 'multiplication', 'division')),
    CONSTRAINT valid_difficulty CHECK (difficulty IN ('easy', 'medium', 'hard')),
    CONSTRAINT valid_score CHECK (score >= 0 AND score <= 10),
    CONSTRAINT valid_accuracy CHECK (accuracy >= 0 AND accuracy <= 100),
    CONSTRAINT valid_time CHECK (time_seconds > 0)
);

CREATE INDEX IF NOT EXISTS idx_drills_explorer ON drill_sessions(explorer_id, created_at);

-- An earned badge is a permanent fact. The unique constraint plus
-- ON CONFLICT DO NOTHING makes every save idempotent.
CREATE TABLE IF NOT EXISTS earned_badges (
    explorer_id UUID NOT NULL REFERENCES explorers(id) ON DELETE CASCADE,
    badge_id VARCHAR(100) NOT NULL,
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uniq_earned_badge UNIQUE (explorer_id, badge_id)
);

CREATE INDEX IF NOT EXISTS idx_earned_badges_explorer ON earned_badges(explorer_id, earned_at);
`

const migration003Down = `
DROP TABLE IF EXISTS earned_badges;
DROP TABLE IF EXISTS drill_sessions;
`
