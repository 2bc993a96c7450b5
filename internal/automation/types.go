package automation

import (
	"fmt"
	"math"

	"github.com/nerrad567/gray-logic-hub/internal/device"
)

// DefaultCapacity is the rule limit when none is given.
const DefaultCapacity = 10

// EqualityEpsilon is the tolerance of the == comparator.
const EqualityEpsilon = 0.01

// Comparator relates a sensor reading to a threshold.
type Comparator string

// Supported comparators.
const (
	Greater      Comparator = ">"
	Less         Comparator = "<"
	Equal        Comparator = "=="
	GreaterEqual Comparator = ">="
	LessEqual    Comparator = "<="
)

// ParseComparator converts the wire form into a Comparator.
func ParseComparator(s string) (Comparator, error) {
	c := Comparator(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: comparator %q", ErrInvalidRule, s)
	}
	return c, nil
}

// Valid reports whether c is a supported comparator.
func (c Comparator) Valid() bool {
	switch c {
	case Greater, Less, Equal, GreaterEqual, LessEqual:
		return true
	}
	return false
}

// Compare applies c to v and threshold.
func (c Comparator) Compare(v, threshold float64) bool {
	switch c {
	case Greater:
		return v > threshold
	case Less:
		return v < threshold
	case Equal:
		return math.Abs(v-threshold) < EqualityEpsilon
	case GreaterEqual:
		return v >= threshold
	case LessEqual:
		return v <= threshold
	default:
		return false
	}
}

// Rule fires ActionDeviceID when the trigger sensor satisfies Comparator
// against Threshold.
type Rule struct {
	Enabled         bool       `json:"enabled"`
	TriggerDeviceID device.ID  `json:"trigger"`
	Comparator      Comparator `json:"condition"`
	Threshold       float64    `json:"value"`
	ActionDeviceID  device.ID  `json:"action"`
	ActionOn        bool       `json:"actionState"`

	// ActionValue is the PWM level, or device.NoValue to keep the current one.
	ActionValue int `json:"actionValue"`
}

// Validate checks the comparator and that both ids are set.
func (r Rule) Validate() error {
	if !r.Comparator.Valid() {
		return fmt.Errorf("%w: comparator %q", ErrInvalidRule, r.Comparator)
	}
	if r.TriggerDeviceID == "" {
		return fmt.Errorf("%w: trigger is required", ErrInvalidRule)
	}
	if r.ActionDeviceID == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidRule)
	}
	return nil
}
