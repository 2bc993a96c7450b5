package automation

import "errors"

var (
	// ErrCapacityExceeded is returned by AddRule when the engine is full.
	ErrCapacityExceeded = errors.New("automation: rule capacity exceeded")

	// ErrInvalidRule is returned when a rule has an unknown comparator or
	// an empty device id.
	ErrInvalidRule = errors.New("automation: invalid rule")
)
