package logweave_test

import (
	"testing"

	"logweave"
	"logweave/backend"
	"logweave/structured"
)

func stepNames(procs []structured.Processor) []string {
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		names = append(names, p.Name())
	}
	return names
}

func lastStep(t *testing.T, procs []structured.Processor) string {
	t.Helper()
	if len(procs) == 0 {
		t.Fatal("expected a non-empty pipeline")
	}
	return procs[len(procs)-1].Name()
}

func TestDefaultProcessorsTerminalStep(t *testing.T) {
	caps := backend.Set{backend.Standard: true, backend.Structured: true}

	if got := lastStep(t, logweave.DefaultProcessors(caps, true)); got != "render_json" {
		t.Fatalf("JSON pipeline ends in %q", got)
	}
	if got := lastStep(t, logweave.DefaultProcessors(caps, false)); got != "render_console" {
		t.Fatalf("console pipeline ends in %q", got)
	}
}

func TestDefaultProcessorsComposition(t *testing.T) {
	caps := backend.Set{backend.Structured: true}

	jsonNames := stepNames(logweave.DefaultProcessors(caps, true))
	wantJSON := []string{"merge_context_vars", "add_log_level", "format_exc_info", "timestamper", "render_json"}
	if len(jsonNames) != len(wantJSON) {
		t.Fatalf("JSON pipeline %v, want %v", jsonNames, wantJSON)
	}
	for i := range wantJSON {
		if jsonNames[i] != wantJSON[i] {
			t.Fatalf("JSON pipeline %v, want %v", jsonNames, wantJSON)
		}
	}

	consoleNames := stepNames(logweave.DefaultProcessors(caps, false))
	for _, name := range consoleNames {
		if name == "format_exc_info" {
			t.Fatal("console pipeline must not format exc_info; the renderer handles exceptions")
		}
	}
}

func TestDefaultBridgeProcessorsTerminalStep(t *testing.T) {
	caps := backend.Set{backend.Structured: true}

	if got := lastStep(t, logweave.DefaultBridgeProcessors(caps, true)); got != "render_json" {
		t.Fatalf("JSON bridge pipeline ends in %q", got)
	}
	if got := lastStep(t, logweave.DefaultBridgeProcessors(caps, false)); got != "render_console" {
		t.Fatalf("console bridge pipeline ends in %q", got)
	}

	names := stepNames(logweave.DefaultBridgeProcessors(caps, true))
	var sawFilter, sawMeta bool
	for _, name := range names {
		if name == "event_filter" {
			sawFilter = true
		}
		if name == "remove_processors_meta" {
			sawMeta = true
		}
	}
	if !sawFilter || !sawMeta {
		t.Fatalf("bridge pipeline %v must filter console fields and strip meta keys", names)
	}
}

func TestPipelinesEmptyWithoutStructuredBackend(t *testing.T) {
	caps := backend.Set{backend.Standard: true}

	if procs := logweave.DefaultProcessors(caps, true); procs != nil {
		t.Fatalf("expected empty native pipeline, got %v", stepNames(procs))
	}
	if procs := logweave.DefaultBridgeProcessors(caps, false); procs != nil {
		t.Fatalf("expected empty bridge pipeline, got %v", stepNames(procs))
	}
	if f := logweave.DefaultLoggerFactory(caps, true); f != nil {
		t.Fatal("expected nil factory without the structured backend")
	}
}

func TestDefaultLoggerFactory(t *testing.T) {
	caps := backend.Set{backend.Structured: true}
	if logweave.DefaultLoggerFactory(caps, true) == nil {
		t.Fatal("expected byte-oriented factory for JSON output")
	}
	if logweave.DefaultLoggerFactory(caps, false) == nil {
		t.Fatal("expected text-oriented factory for console output")
	}
}
