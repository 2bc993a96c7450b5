package automation

import (
	"sync"

	"github.com/nerrad567/gray-logic-hub/internal/device"
)

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is what Evaluate needs from the device registry.
type Registry interface {
	SensorValue(id device.ID) (float64, bool)
	SetState(id device.ID, on bool, value int) error
}

// Engine holds an ordered, bounded list of rules.
//
// Thread Safety: all methods are safe for concurrent use. Evaluate works on
// a copy of the rule list, so rules added during a pass apply to the next.
type Engine struct {
	mu       sync.RWMutex
	rules    []Rule
	capacity int
	logger   Logger
}

// NewEngine creates an empty engine. A capacity <= 0 uses DefaultCapacity.
func NewEngine(capacity int) *Engine {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Engine{
		rules:    make([]Rule, 0, capacity),
		capacity: capacity,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// AddRule appends r, enabled, and returns the new rule count.
func (e *Engine) AddRule(r Rule) (int, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.rules) >= e.capacity {
		return len(e.rules), ErrCapacityExceeded
	}
	r.Enabled = true
	e.rules = append(e.rules, r)

	e.logger.Info("rule added",
		"trigger", r.TriggerDeviceID,
		"condition", string(r.Comparator),
		"threshold", r.Threshold,
		"action", r.ActionDeviceID,
		"count", len(e.rules),
	)
	return len(e.rules), nil
}

// Restore replaces the rule list, dropping invalid rules and anything past
// capacity. It returns the number kept.
func (e *Engine) Restore(rules []Rule) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = e.rules[:0]
	for _, r := range rules {
		if len(e.rules) >= e.capacity {
			e.logger.Warn("restored rules exceed capacity", "capacity", e.capacity, "total", len(rules))
			break
		}
		if err := r.Validate(); err != nil {
			e.logger.Warn("skipping invalid stored rule", "error", err)
			continue
		}
		e.rules = append(e.rules, r)
	}
	return len(e.rules)
}

// Evaluate checks every enabled rule in insertion order and applies the
// action of each match. A sensor with no reading counts as 0.
func (e *Engine) Evaluate(reg Registry) {
	for _, r := range e.Rules() {
		if !r.Enabled {
			continue
		}
		v, _ := reg.SensorValue(r.TriggerDeviceID)
		if !r.Comparator.Compare(v, r.Threshold) {
			continue
		}
		if err := reg.SetState(r.ActionDeviceID, r.ActionOn, r.ActionValue); err != nil {
			e.logger.Warn("rule action failed",
				"trigger", r.TriggerDeviceID,
				"action", r.ActionDeviceID,
				"error", err,
			)
		}
	}
}

// Rules returns a copy of the rule list.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Count returns the number of rules.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Capacity returns the rule limit.
func (e *Engine) Capacity() int {
	return e.capacity
}
