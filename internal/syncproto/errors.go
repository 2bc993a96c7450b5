package syncproto

import "errors"

var (
	// ErrMalformed is returned for frames that are not a JSON object with a
	// string type, or whose fields have the wrong JSON types.
	ErrMalformed = errors.New("syncproto: malformed message")

	// ErrUnknownType is returned for well-formed frames with an
	// unrecognised type.
	ErrUnknownType = errors.New("syncproto: unknown message type")
)
