package board

import "errors"

var (
	// ErrDuplicatePin is returned when two roles share a pin.
	ErrDuplicatePin = errors.New("board: pin assigned to more than one role")

	// ErrUnknownType is returned by Parse for unrecognised input.
	ErrUnknownType = errors.New("board: unknown board type")

	// ErrUnknownRole is returned by ParseRole for unrecognised input.
	ErrUnknownRole = errors.New("board: unknown pin role")
)
