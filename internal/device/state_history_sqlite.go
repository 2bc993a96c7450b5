package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// History limits for GetHistory.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

var (
	errNoDeviceID       = errors.New("device: history needs a device id")
	errRetentionInvalid = errors.New("device: retention must be positive")
)

// SQLiteStateHistoryRepository keeps actuator changes in state_history.
type SQLiteStateHistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStateHistoryRepository wraps an open, migrated database.
func NewSQLiteStateHistoryRepository(db *sql.DB) *SQLiteStateHistoryRepository {
	return &SQLiteStateHistoryRepository{db: db, now: time.Now}
}

// RecordStateChange appends one change. An empty source means "command".
func (r *SQLiteStateHistoryRepository) RecordStateChange(ctx context.Context, deviceID string, state State, source string) error {
	if deviceID == "" {
		return errNoDeviceID
	}
	if source == "" {
		source = StateHistorySourceCommand
	}

	var level sql.NullInt64
	if state.Level != nil {
		level = sql.NullInt64{Int64: int64(*state.Level), Valid: true}
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO state_history (device_id, is_on, level, source, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		deviceID, state.On, level, source, r.now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("recording %s state: %w", deviceID, err)
	}
	return nil
}

// GetHistory returns the newest changes for deviceID first. A limit
// outside 1..MaxHistoryLimit is replaced by the nearest bound, or by
// DefaultHistoryLimit when it is not positive.
func (r *SQLiteStateHistoryRepository) GetHistory(ctx context.Context, deviceID string, limit int) ([]StateHistoryEntry, error) {
	if deviceID == "" {
		return nil, errNoDeviceID
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, is_on, level, source, recorded_at
		 FROM state_history
		 WHERE device_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s history: %w", deviceID, err)
	}
	defer rows.Close()

	var entries []StateHistoryEntry
	for rows.Next() {
		var (
			e     StateHistoryEntry
			level sql.NullInt64
			ms    int64
		)
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.State.On, &level, &e.Source, &ms); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if level.Valid {
			v := int(level.Int64)
			e.State.Level = &v
		}
		e.CreatedAt = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneHistory deletes changes older than retention and reports how many
// rows went.
func (r *SQLiteStateHistoryRepository) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errRetentionInvalid
	}

	cutoff := r.now().Add(-retention).UnixMilli()
	res, err := r.db.ExecContext(ctx, "DELETE FROM state_history WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning state history: %w", err)
	}
	return res.RowsAffected()
}
