package hardware

import "errors"

var (
	// ErrUnsupported is returned for an operation the backend cannot do.
	ErrUnsupported = errors.New("hardware: operation not supported by backend")

	// ErrNotConfigured is returned when a pin is used before being configured.
	ErrNotConfigured = errors.New("hardware: pin not configured")

	// ErrChecksum is returned when a climate sensor frame fails its checksum.
	ErrChecksum = errors.New("hardware: sensor checksum mismatch")

	// ErrNoResponse is returned when a climate sensor does not answer.
	ErrNoResponse = errors.New("hardware: sensor did not respond")

	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("hardware: unknown backend")
)
