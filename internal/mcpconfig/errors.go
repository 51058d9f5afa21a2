package mcpconfig

import "errors"

var (
	// ErrInvalidPath is returned when the target config path is empty.
	ErrInvalidPath = errors.New("invalid config path")
	// ErrInvalidKeyPath is returned for an empty dotted key path or one
	// containing an empty segment.
	ErrInvalidKeyPath = errors.New("invalid key path")
	// ErrSerialization is returned when the value to install cannot be
	// encoded as JSON. Nothing is written.
	ErrSerialization = errors.New("value is not serializable")
	// ErrMalformedDocument is returned for existing content that is not a
	// JSON object, under the strict policy.
	ErrMalformedDocument = errors.New("malformed config document")
)
