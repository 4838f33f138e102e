package logweave_test

import (
	"fmt"
	"strings"
	"testing"

	"logweave"
	"logweave/backend"
)

type captureLogger struct {
	msg  string
	args []any
}

func (l *captureLogger) Log(_ backend.Level, msg string, args ...any) {
	l.msg = msg
	l.args = args
}

func (l *captureLogger) Exception(msg string, args ...any) {
	l.Log(backend.LevelError, msg, args...)
}

func (l *captureLogger) SetLevel(backend.Level) {}

func (l *captureLogger) field(key string) (string, bool) {
	for i := 0; i+1 < len(l.args); i += 2 {
		if l.args[i] == key {
			s, ok := l.args[i+1].(string)
			return s, ok
		}
	}
	return "", false
}

func tracebackLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%02d\n", i)
	}
	return lines
}

func TestExceptionHandlerNever(t *testing.T) {
	if h := logweave.NewLoggingConfig(logweave.WithExceptionPolicy(logweave.LogNever)).ExceptionHandler; h != nil {
		t.Fatal("LogNever must leave the standard config without a handler")
	}
	cfg := logweave.NewStructLoggingConfig(
		logweave.WithStructuredExceptionPolicy(logweave.LogNever),
		logweave.WithTerminalOverride(true),
	)
	if cfg.ExceptionHandler != nil {
		t.Fatal("LogNever must leave the structured config without a handler")
	}
}

func TestStructuredTracebackTailBound(t *testing.T) {
	conn := logweave.ConnectionContext{Type: "http", Path: "/orders"}
	lines := tracebackLines(25)

	cases := []struct {
		limit     int
		wantLines int
	}{
		{0, 0},
		{1, 1},
		{20, 20},
	}
	for _, tc := range cases {
		cfg := logweave.NewStructLoggingConfig(
			logweave.WithStructuredTracebackLineLimit(tc.limit),
			logweave.WithTerminalOverride(true),
		)
		logger := &captureLogger{}
		cfg.ExceptionHandler(logger, conn, lines)

		if logger.msg != "Uncaught Exception" {
			t.Fatalf("limit %d: unexpected event %q", tc.limit, logger.msg)
		}
		traceback, ok := logger.field("traceback")
		if !ok {
			t.Fatalf("limit %d: missing traceback field", tc.limit)
		}
		if got := strings.Count(traceback, "\n"); got != tc.wantLines {
			t.Fatalf("limit %d: emitted %d lines, want %d", tc.limit, got, tc.wantLines)
		}
		if ct, _ := logger.field("connection_type"); ct != "http" {
			t.Fatalf("limit %d: unexpected connection_type %q", tc.limit, ct)
		}
		if path, _ := logger.field("path"); path != "/orders" {
			t.Fatalf("limit %d: unexpected path %q", tc.limit, path)
		}
	}
}

func TestDictTracebackTailBound(t *testing.T) {
	conn := logweave.ConnectionContext{Type: "http", Path: "/orders"}
	lines := tracebackLines(25)

	cfg := logweave.NewLoggingConfig(logweave.WithTracebackLineLimit(20))
	logger := &captureLogger{}
	cfg.ExceptionHandler(logger, conn, lines)

	msg := logger.msg
	if !strings.Contains(msg, "exception raised on http connection to route /orders") {
		t.Fatalf("unexpected message %q", msg)
	}
	// The discarded first line is prepended back for readability.
	if !strings.Contains(msg, "line00") {
		t.Fatalf("first line missing from message %q", msg)
	}
	// Tail keeps the 20 lines nearest the fault site: 05 through 24.
	if strings.Contains(msg, "line04") {
		t.Fatalf("older frame should be dropped: %q", msg)
	}
	if !strings.Contains(msg, "line05") || !strings.Contains(msg, "line24") {
		t.Fatalf("expected newest frames in message %q", msg)
	}
}

func TestDictTracebackZeroLimit(t *testing.T) {
	cfg := logweave.NewLoggingConfig(logweave.WithTracebackLineLimit(0))
	logger := &captureLogger{}
	cfg.ExceptionHandler(logger, logweave.ConnectionContext{Type: "ws", Path: "/feed"}, tracebackLines(25))

	if strings.Contains(logger.msg, "line01") || strings.Contains(logger.msg, "line24") {
		t.Fatalf("zero limit must drop every tail line: %q", logger.msg)
	}
	if !strings.Contains(logger.msg, "line00") {
		t.Fatalf("first line still expected in message %q", logger.msg)
	}
}

type panickyLogger struct{}

func (panickyLogger) Log(backend.Level, string, ...any) { panic("sink exploded") }
func (panickyLogger) Exception(string, ...any)          { panic("sink exploded") }
func (panickyLogger) SetLevel(backend.Level)            {}

func TestExceptionHandlerNeverPanics(t *testing.T) {
	cfg := logweave.NewLoggingConfig()
	conn := logweave.ConnectionContext{Type: "http", Path: "/"}

	// A failing sink degrades to stderr instead of propagating.
	cfg.ExceptionHandler(panickyLogger{}, conn, tracebackLines(3))

	// Nil logger and empty traceback are quiet no-ops.
	cfg.ExceptionHandler(nil, conn, tracebackLines(3))
	cfg.ExceptionHandler(&captureLogger{}, conn, nil)
}
