package device

import "errors"

var (
	// ErrUnknownDevice is returned when an id is not one of the fixed roles.
	ErrUnknownDevice = errors.New("device: unknown id")

	// ErrHardware wraps a failed pin write.
	ErrHardware = errors.New("device: hardware write failed")
)
