package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logweave"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Backend", "Installed"},
		[][]string{{"standard", "yes"}, {"structured", "no"}},
	)
	if !strings.Contains(out, "Backend") || !strings.Contains(out, "standard") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output for empty headers")
	}
}

func TestLoadModelDefaults(t *testing.T) {
	model, err := loadModel("", false)
	if err != nil {
		t.Fatalf("loadModel returned error: %v", err)
	}
	if _, ok := model.(*logweave.LoggingConfig); !ok {
		t.Fatalf("expected *LoggingConfig, got %T", model)
	}

	model, err = loadModel("", true)
	if err != nil {
		t.Fatalf("loadModel returned error: %v", err)
	}
	if _, ok := model.(*logweave.StructLoggingConfig); !ok {
		t.Fatalf("expected *StructLoggingConfig, got %T", model)
	}
}

func TestLoadModelFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.toml")
	if err := os.WriteFile(path, []byte("level = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	model, err := loadModel(path, false)
	if err != nil {
		t.Fatalf("loadModel returned error: %v", err)
	}
	cfg, ok := model.(*logweave.LoggingConfig)
	if !ok {
		t.Fatalf("expected *LoggingConfig, got %T", model)
	}
	if got := cfg.Loggers[logweave.AppLoggerName]["level"]; got != "DEBUG" {
		t.Fatalf("file level not applied, got %v", got)
	}
}
