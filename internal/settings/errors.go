package settings

import "errors"

// Validation errors returned by Load once all layers are merged.
var (
	// ErrConflictingModes means -serve and -healthcheck were both set.
	ErrConflictingModes = errors.New("serve and healthcheck are mutually exclusive")
	// ErrInvalidInputSettings means one-shot mode has no input.
	ErrInvalidInputSettings = errors.New("invalid input settings")
	// ErrInvalidServerSettings covers an empty listen address and
	// non-positive server timeouts or body limits.
	ErrInvalidServerSettings = errors.New("invalid server settings")
	// ErrInvalidFetchSettings covers a non-positive fetch timeout and a
	// negative retry count.
	ErrInvalidFetchSettings = errors.New("invalid fetch settings")
	// ErrInvalidLogSettings means the log level is not a zerolog level.
	ErrInvalidLogSettings = errors.New("invalid log settings")
)
