package logweave

import "errors"

var (
	// ErrNotConfigured marks logger requests made before Configure has run.
	// Callers get an error, never a silent no-op logger.
	ErrNotConfigured = errors.New("logging is not configured")

	// ErrMissingBackend marks a resolution onto a backend whose package was
	// never imported into the process.
	ErrMissingBackend = errors.New("logging backend is not installed")
)
