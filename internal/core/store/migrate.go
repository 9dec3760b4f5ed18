package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		plate TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		email TEXT,
		zip TEXT,
		created_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS renewals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plate TEXT NOT NULL,
		kind TEXT NOT NULL,
		due_date INTEGER NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		UNIQUE(plate, kind, due_date)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_renewals_plate ON renewals(plate);`,
	`CREATE INDEX IF NOT EXISTS idx_renewals_due ON renewals(due_date, completed);`,
}

// Migrate applies the schema, creating missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, statement := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Healthy verifies the connection is usable.
func (s *Store) Healthy(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	var one int
	row := s.DB.QueryRowContext(ctx, `SELECT 1`)
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("store health check: %w", err)
	}
	return nil
}
