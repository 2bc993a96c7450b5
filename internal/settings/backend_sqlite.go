package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteBackend keeps the record in the single-row config_record table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend returns a backend on an open, migrated database.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

// Read returns the stored record.
func (b *SQLiteBackend) Read(ctx context.Context) ([]byte, error) {
	var record []byte
	err := b.db.QueryRowContext(ctx, "SELECT record FROM config_record WHERE id = 1").Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying config record: %w", err)
	}
	return record, nil
}

// Write upserts the record in one transaction.
func (b *SQLiteBackend) Write(ctx context.Context, record []byte) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO config_record (id, record, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		record,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing config record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing config record: %w", err)
	}
	return nil
}
