package automation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/device"
)

// Repository persists the rule list in evaluation order.
type Repository interface {
	// List returns every stored rule ordered by position.
	List(ctx context.Context) ([]Rule, error)

	// Append stores r at position (0-based).
	Append(ctx context.Context, position int, r Rule) error

	// Clear removes every rule.
	Clear(ctx context.Context) error
}

// SQLiteRepository implements Repository on the automation_rules table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List retrieves all rules ordered by position.
func (r *SQLiteRepository) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT enabled, trigger_device, comparator, threshold,
		       action_device, action_on, action_value
		FROM automation_rules
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var (
			rule           Rule
			trigger, acted string
			comparator     string
		)
		if err := rows.Scan(&rule.Enabled, &trigger, &comparator, &rule.Threshold,
			&acted, &rule.ActionOn, &rule.ActionValue); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		rule.TriggerDeviceID = device.ID(trigger)
		rule.ActionDeviceID = device.ID(acted)
		rule.Comparator = Comparator(comparator)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}
	return rules, nil
}

// Append inserts r at position, replacing any row already there.
func (r *SQLiteRepository) Append(ctx context.Context, position int, rule Rule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO automation_rules (
			position, enabled, trigger_device, comparator, threshold,
			action_device, action_on, action_value, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		position,
		rule.Enabled,
		string(rule.TriggerDeviceID),
		string(rule.Comparator),
		rule.Threshold,
		string(rule.ActionDeviceID),
		rule.ActionOn,
		rule.ActionValue,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// Clear deletes every rule.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM automation_rules"); err != nil {
		return fmt.Errorf("clearing rules: %w", err)
	}
	return nil
}
