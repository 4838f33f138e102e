package zaplog

import (
	"bytes"
	"strings"
	"testing"

	"logweave/backend"
)

func streamSettings(buf *bytes.Buffer) map[string]any {
	return map[string]any{
		"version": 1,
		"handlers": map[string]map[string]any{
			"console": {
				"class":  ClassStreamHandler,
				"level":  "DEBUG",
				"stream": buf,
			},
		},
		"loggers": map[string]map[string]any{
			"app": {
				"level":     "DEBUG",
				"handlers":  []string{"console"},
				"propagate": false,
			},
		},
	}
}

func TestConfigureRejectsIncremental(t *testing.T) {
	b := New()
	err := b.Configure(map[string]any{"incremental": true})
	if err == nil {
		t.Fatal("expected incremental settings to be rejected")
	}
	if !strings.Contains(err.Error(), "incremental") {
		t.Fatalf("error %q does not name the rejected field", err)
	}
}

func TestConfigureAndLog(t *testing.T) {
	var buf bytes.Buffer
	b := New()
	if err := b.Configure(streamSettings(&buf)); err != nil {
		t.Fatalf("configure returned error: %v", err)
	}

	b.GetLogger("app").Log(backend.LevelInfo, "service started", "port", 8080)

	line := buf.String()
	if !strings.Contains(line, "INFO") || !strings.Contains(line, "service started") {
		t.Fatalf("unexpected output %q", line)
	}
	if !strings.Contains(line, "app") {
		t.Fatalf("expected logger name in output, got %q", line)
	}
}

func TestSetLevelSticks(t *testing.T) {
	var buf bytes.Buffer
	b := New()
	if err := b.Configure(streamSettings(&buf)); err != nil {
		t.Fatalf("configure returned error: %v", err)
	}

	logger := b.GetLogger("app")
	logger.SetLevel(backend.LevelError)
	logger.Log(backend.LevelInfo, "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info record should be dropped after SetLevel, got %q", buf.String())
	}
	logger.Log(backend.LevelError, "kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("error record should emit, got %q", buf.String())
	}
}

func TestDottedNamesResolveAncestors(t *testing.T) {
	var buf bytes.Buffer
	b := New()
	if err := b.Configure(streamSettings(&buf)); err != nil {
		t.Fatalf("configure returned error: %v", err)
	}

	b.GetLogger("app.db.pool").Log(backend.LevelInfo, "checkout")
	if !strings.Contains(buf.String(), "checkout") {
		t.Fatalf("expected ancestor settings to apply, got %q", buf.String())
	}
}

func TestUnresolvedLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	b := New()
	if err := b.Configure(streamSettings(&buf)); err != nil {
		t.Fatalf("configure returned error: %v", err)
	}

	b.GetLogger("orphan").Log(backend.LevelError, "nobody listens")
	if buf.Len() != 0 {
		t.Fatalf("unresolved logger must be a no-op, got %q", buf.String())
	}
}

func TestQueueListenerFlushesOnSync(t *testing.T) {
	var buf bytes.Buffer
	settings := map[string]any{
		"handlers": map[string]map[string]any{
			"queue_listener": {
				"class":  ClassQueueListenerHandler,
				"level":  "DEBUG",
				"stream": &buf,
			},
		},
		"loggers": map[string]map[string]any{
			"app": {"level": "DEBUG", "handlers": []string{"queue_listener"}, "propagate": false},
		},
	}
	b := New()
	if err := b.Configure(settings); err != nil {
		t.Fatalf("configure returned error: %v", err)
	}

	b.GetLogger("app").Log(backend.LevelInfo, "buffered record")
	b.Sync()

	if !strings.Contains(buf.String(), "buffered record") {
		t.Fatalf("queue listener did not flush, got %q", buf.String())
	}
}

func TestReconfigureRebindsCachedLoggers(t *testing.T) {
	var first, second bytes.Buffer
	b := New()
	if err := b.Configure(streamSettings(&first)); err != nil {
		t.Fatalf("configure returned error: %v", err)
	}
	logger := b.GetLogger("app")

	if err := b.Configure(streamSettings(&second)); err != nil {
		t.Fatalf("reconfigure returned error: %v", err)
	}
	logger.Log(backend.LevelInfo, "after reconfigure")

	if first.Len() != 0 {
		t.Fatalf("old sink still receiving records: %q", first.String())
	}
	if !strings.Contains(second.String(), "after reconfigure") {
		t.Fatalf("cached logger not rebound, got %q", second.String())
	}
}

func TestBuildRuntimeErrors(t *testing.T) {
	cases := []struct {
		name     string
		settings map[string]any
		wantErr  string
	}{
		{
			name: "unsupported handler class",
			settings: map[string]any{
				"handlers": map[string]map[string]any{
					"console": {"class": "smoke.Signals"},
				},
			},
			wantErr: "unsupported class",
		},
		{
			name: "logger references unknown handler",
			settings: map[string]any{
				"loggers": map[string]map[string]any{
					"app": {"handlers": []string{"missing"}},
				},
			},
			wantErr: "unknown handler",
		},
		{
			name: "root references unknown handler",
			settings: map[string]any{
				"root": map[string]any{"handlers": []string{"missing"}},
			},
			wantErr: "unknown handler",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildRuntime(tc.settings)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

type recordFormatterFunc func(rec backend.Record) ([]byte, error)

func (f recordFormatterFunc) FormatRecord(rec backend.Record) ([]byte, error) { return f(rec) }

func TestBridgeFormatterRoutesThroughRecordFormatter(t *testing.T) {
	var buf bytes.Buffer
	settings := map[string]any{
		"formatters": map[string]map[string]any{
			"standard": {"()": recordFormatterFunc(func(rec backend.Record) ([]byte, error) {
				return []byte("bridged: " + rec.Message), nil
			})},
		},
		"handlers": map[string]map[string]any{
			"console": {
				"class":     ClassStreamHandler,
				"level":     "DEBUG",
				"formatter": "standard",
				"stream":    &buf,
			},
		},
		"loggers": map[string]map[string]any{
			"app": {"level": "DEBUG", "handlers": []string{"console"}, "propagate": false},
		},
	}
	b := New()
	if err := b.Configure(settings); err != nil {
		t.Fatalf("configure returned error: %v", err)
	}

	b.GetLogger("app").Log(backend.LevelInfo, "event")
	if !strings.Contains(buf.String(), "bridged: event") {
		t.Fatalf("bridge formatter not applied, got %q", buf.String())
	}
}
