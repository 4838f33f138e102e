// Package logweave resolves a declarative, backend-agnostic logging
// configuration into a ready-to-use logger accessor.
//
// Two config models exist: LoggingConfig describes dict-configured backends
// (the always-available slog-based standard backend, or the zap-based
// high-performance backend when backend/zaplog is imported), and
// StructLoggingConfig wraps a LoggingConfig with a processor pipeline for the
// structured backend. Construction fills mutually consistent defaults across
// both models; Configure detects the installed backends once, invokes the
// selected backend's native configuration entry point, and hands back a
// GetLoggerFunc that is safe to share process-wide.
//
// Until Configure has run, requesting a logger fails with ErrNotConfigured;
// selecting a backend whose package was never imported fails with
// ErrMissingBackend.
package logweave
