// Package slogcore is the standard dict-configured logging backend, built on
// log/slog. It interprets one nested settings map (formatters, handlers,
// loggers, root) into a graph of slog handlers: a stream handler that formats
// and writes records, and a queue listener handler that defers delivery to a
// background consumer so log call sites never pay sink latency.
//
// Importing the package registers the backend; it is the always-available
// fallback every other backend measures against.
package slogcore
