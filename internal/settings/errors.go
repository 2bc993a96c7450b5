package settings

import "errors"

var (
	// ErrRecordInvalid means the persisted bytes are not a usable record.
	// Load recovers from it by resetting.
	ErrRecordInvalid = errors.New("settings: persisted record invalid")

	// ErrRecordNotFound means nothing has been persisted yet.
	ErrRecordNotFound = errors.New("settings: no persisted record")

	// ErrInvalidPin is returned for a pin outside the board's range.
	ErrInvalidPin = errors.New("settings: pin outside board range")

	// ErrInvalidBoard is returned for an unsupported board type.
	ErrInvalidBoard = errors.New("settings: unsupported board type")

	// ErrInvalidInterval is returned for a zero or oversized interval.
	ErrInvalidInterval = errors.New("settings: interval out of range")

	// ErrFieldTooLong is returned when a string does not fit its slot.
	ErrFieldTooLong = errors.New("settings: value too long")
)
