package structured

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"logweave/backend"
)

func TestAddLogLevel(t *testing.T) {
	event := map[string]any{EventKey: "hello"}
	event, err := AddLogLevel().Process(backend.LevelWarn, event)
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if event["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", event["level"])
	}
}

func TestMergeContextVars(t *testing.T) {
	ResetContextVars()
	t.Cleanup(ResetContextVars)

	BindContextVars("request_id", "abc", "tenant", "acme")
	event := map[string]any{EventKey: "hello", "tenant": "explicit"}
	event, err := MergeContextVars().Process(backend.LevelInfo, event)
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if event["request_id"] != "abc" {
		t.Fatalf("expected bound var merged, got %v", event["request_id"])
	}
	if event["tenant"] != "explicit" {
		t.Fatalf("explicit field must win over bound var, got %v", event["tenant"])
	}

	UnbindContextVars("request_id")
	event2 := map[string]any{}
	event2, _ = MergeContextVars().Process(backend.LevelInfo, event2)
	if _, ok := event2["request_id"]; ok {
		t.Fatal("unbound var must not merge")
	}
}

func TestFormatExcInfo(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"error", errors.New("boom"), "boom"},
		{"string", "trace text", "trace text"},
		{"other", 42, "42"},
	}
	for _, tc := range cases {
		event := map[string]any{"exc_info": tc.in}
		event, err := FormatExcInfo().Process(backend.LevelError, event)
		if err != nil {
			t.Fatalf("%s: process returned error: %v", tc.name, err)
		}
		if _, ok := event["exc_info"]; ok {
			t.Fatalf("%s: exc_info must be removed", tc.name)
		}
		if event["exception"] != tc.want {
			t.Fatalf("%s: exception = %v, want %v", tc.name, event["exception"], tc.want)
		}
	}

	event := map[string]any{EventKey: "hello"}
	event, _ = FormatExcInfo().Process(backend.LevelInfo, event)
	if _, ok := event["exception"]; ok {
		t.Fatal("no exc_info must not produce an exception field")
	}

	event = map[string]any{"exc_info": nil}
	event, _ = FormatExcInfo().Process(backend.LevelInfo, event)
	if _, ok := event["exception"]; ok {
		t.Fatal("nil exc_info must not produce an exception field")
	}
}

func TestTimeStamperUsesPinnedClock(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	step := NewTimeStamper(func() time.Time { return at })

	event, err := step.Process(backend.LevelInfo, map[string]any{})
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if event["timestamp"] != "2024-05-01T10:30:00Z" {
		t.Fatalf("expected UTC RFC3339 timestamp, got %v", event["timestamp"])
	}
}

func TestEventFilterRemovesKeysIdempotently(t *testing.T) {
	filter := NewEventFilter("color_message")
	event := map[string]any{"color_message": "x", EventKey: "y"}

	event, err := filter.Process(backend.LevelInfo, event)
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if !reflect.DeepEqual(event, map[string]any{EventKey: "y"}) {
		t.Fatalf("unexpected event after filtering: %v", event)
	}

	event, err = filter.Process(backend.LevelInfo, event)
	if err != nil {
		t.Fatalf("second pass returned error: %v", err)
	}
	if !reflect.DeepEqual(event, map[string]any{EventKey: "y"}) {
		t.Fatalf("filter must be idempotent, got %v", event)
	}
}

func TestAddExtraFields(t *testing.T) {
	event := map[string]any{
		EventKey: "hello",
		"count":  1,
		KeyExtra: map[string]any{"count": 2, "host": "db1"},
	}
	event, err := AddExtraFields().Process(backend.LevelInfo, event)
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if _, ok := event[KeyExtra]; ok {
		t.Fatal("extra meta key must be consumed")
	}
	if event["count"] != 1 {
		t.Fatalf("explicit field must win over extra, got %v", event["count"])
	}
	if event["host"] != "db1" {
		t.Fatalf("extra field missing, got %v", event["host"])
	}
}

func TestRemoveProcessorsMeta(t *testing.T) {
	event := map[string]any{
		EventKey:          "hello",
		KeyRecord:         backend.Record{},
		KeyFromStructured: false,
		KeyExtra:          map[string]any{},
	}
	event, err := RemoveProcessorsMeta().Process(backend.LevelInfo, event)
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if !reflect.DeepEqual(event, map[string]any{EventKey: "hello"}) {
		t.Fatalf("meta keys must be stripped, got %v", event)
	}
}

func TestRunPipelineHonorsOnlyTerminalRenderer(t *testing.T) {
	procs := []Processor{
		NewJSONRenderer(nil),
		AddLogLevel(),
		NewJSONRenderer(func(v any) ([]byte, error) { return []byte("terminal"), nil }),
	}
	out, err := runPipeline(procs, backend.LevelInfo, map[string]any{EventKey: "x"})
	if err != nil {
		t.Fatalf("pipeline returned error: %v", err)
	}
	if string(out) != "terminal" {
		t.Fatalf("expected terminal renderer output, got %q", out)
	}
}

func TestRunPipelineWithoutRendererDegrades(t *testing.T) {
	out, err := runPipeline([]Processor{AddLogLevel()}, backend.LevelInfo, map[string]any{EventKey: "x"})
	if err != nil {
		t.Fatalf("pipeline returned error: %v", err)
	}
	if !strings.Contains(string(out), "x") {
		t.Fatalf("fallback rendering must include the event, got %q", out)
	}
}
