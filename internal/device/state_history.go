package device

import (
	"context"
	"time"
)

// State history source values.
const (
	StateHistorySourceCommand    = "command"
	StateHistorySourceAutomation = "automation"
	StateHistorySourceConsole    = "console"
	StateHistorySourceMQTT       = "mqtt"
)

// State is the persisted form of an actuator state.
type State struct {
	On    bool `json:"on"`
	Level *int `json:"level,omitempty"`
}

// StateHistoryEntry is one recorded actuator change.
type StateHistoryEntry struct {
	ID        int64     `json:"id"`
	DeviceID  string    `json:"device_id"`
	State     State     `json:"state"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// StateHistoryRepository stores and retrieves actuator state changes.
//
// Implementations must be thread-safe and use UTC timestamps.
type StateHistoryRepository interface {
	// RecordStateChange appends one entry.
	RecordStateChange(ctx context.Context, deviceID string, state State, source string) error

	// GetHistory returns entries for deviceID, newest first. limit is
	// clamped by the implementation.
	GetHistory(ctx context.Context, deviceID string, limit int) ([]StateHistoryEntry, error)
}
