// Package postgres implements the PostgreSQL persistence layer for the
// progress engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE EXERCISE ATTEMPTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create exercise_attempts table
-- Version: 001

CREATE TABLE IF NOT EXISTS exercise_attempts (
    id UUID PRIMARY KEY,
    user_id TEXT NOT NULL,
    category TEXT NOT NULL,
    exercise_type TEXT NOT NULL,
    exercise_id TEXT,
    score DOUBLE PRECISION NOT NULL,
    max_score DOUBLE PRECISION NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    duration_ms BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_category CHECK (category IN ('reading', 'writing', 'comprehension')),
    CONSTRAINT valid_score CHECK (score >= 0 AND score <= max_score),
    CONSTRAINT valid_max_score CHECK (max_score >= 1),
    CONSTRAINT valid_duration CHECK (duration_ms >= 0)
);

-- Indexes for the query patterns: per-user time-range scans, optionally
-- narrowed to one category.
CREATE INDEX IF NOT EXISTS idx_attempts_user_created ON exercise_attempts(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_attempts_user_category_created ON exercise_attempts(user_id, category, created_at DESC);
`

const migration001Down = `
DROP INDEX IF EXISTS idx_attempts_user_category_created;
DROP INDEX IF EXISTS idx_attempts_user_created;
DROP TABLE IF EXISTS exercise_attempts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_exercise_attempts",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
	}
}
