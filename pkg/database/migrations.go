package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text/array search GIN indexes for
// PostgreSQL that ent's schema declarations don't express directly.
func CreateGINIndexes(ctx context.Context, db *stdsql.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_raw_messages_raw_text_gin
			ON raw_messages USING gin(to_tsvector('english', raw_text))`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_subjects_canonical_gin
			ON assignments USING gin(subjects_canonical)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_levels_gin
			ON assignments USING gin(levels)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
