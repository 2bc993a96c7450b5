package remotelog

import "errors"

var (
	// ErrUpstream is returned when the endpoint answers with a non-2xx status.
	ErrUpstream = errors.New("remotelog: endpoint returned an error status")

	// ErrInvalidEndpoint is returned for endpoints that are not absolute
	// http or https URLs.
	ErrInvalidEndpoint = errors.New("remotelog: invalid endpoint")
)
