package structured

import (
	"fmt"
	"strings"
	"time"

	"logweave/backend"
)

// Meta keys injected by the bridge formatter and consumed (then removed) by
// dedicated pipeline steps. They must never survive into rendered output.
const (
	KeyRecord         = "_record"
	KeyFromStructured = "_from_structured"
	KeyExtra          = "_extra"
)

// EventKey holds the human message of an event.
const EventKey = "event"

// Processor is one transformation step applied to a log event's field map.
// Steps run left to right; each receives the event produced by its
// predecessor.
type Processor interface {
	Name() string
	Process(level backend.Level, event map[string]any) (map[string]any, error)
}

// Renderer is a terminal pipeline step that turns the event map into its
// final byte form. A renderer placed anywhere but last behaves as a no-op
// processor.
type Renderer interface {
	Processor
	Render(level backend.Level, event map[string]any) ([]byte, error)
}

type mergeContextVars struct{}

// MergeContextVars returns the step that folds process-global bound variables
// into the event. Explicit event fields win over bound ones.
func MergeContextVars() Processor { return mergeContextVars{} }

func (mergeContextVars) Name() string { return "merge_context_vars" }

func (mergeContextVars) Process(_ backend.Level, event map[string]any) (map[string]any, error) {
	for k, v := range contextVarsSnapshot() {
		if _, ok := event[k]; !ok {
			event[k] = v
		}
	}
	return event, nil
}

type addLogLevel struct{}

// AddLogLevel returns the step that records the event severity under "level".
func AddLogLevel() Processor { return addLogLevel{} }

func (addLogLevel) Name() string { return "add_log_level" }

func (addLogLevel) Process(level backend.Level, event map[string]any) (map[string]any, error) {
	event["level"] = strings.ToLower(level.String())
	return event, nil
}

type formatExcInfo struct{}

// FormatExcInfo returns the step that converts an "exc_info" field (an error
// or a string) into a rendered "exception" field.
func FormatExcInfo() Processor { return formatExcInfo{} }

func (formatExcInfo) Name() string { return "format_exc_info" }

func (formatExcInfo) Process(_ backend.Level, event map[string]any) (map[string]any, error) {
	raw, ok := event["exc_info"]
	if !ok {
		return event, nil
	}
	delete(event, "exc_info")
	switch v := raw.(type) {
	case nil:
	case error:
		event["exception"] = v.Error()
	case string:
		event["exception"] = v
	default:
		event["exception"] = fmt.Sprint(v)
	}
	return event, nil
}

type timeStamper struct {
	now func() time.Time
}

// NewTimeStamper returns the step that stamps events with an ISO-8601 UTC
// timestamp. now may be nil; it exists so tests can pin the clock.
func NewTimeStamper(now func() time.Time) Processor {
	if now == nil {
		now = time.Now
	}
	return timeStamper{now: now}
}

func (timeStamper) Name() string { return "timestamper" }

func (t timeStamper) Process(_ backend.Level, event map[string]any) (map[string]any, error) {
	event["timestamp"] = t.now().UTC().Format(time.RFC3339)
	return event, nil
}

type eventFilter struct {
	keys []string
}

// NewEventFilter returns the step that removes the given keys from the event.
// Fields injected for console rendering must not leak into machine-readable
// output; running the filter twice is a no-op.
func NewEventFilter(keys ...string) Processor {
	return eventFilter{keys: append([]string(nil), keys...)}
}

func (eventFilter) Name() string { return "event_filter" }

func (f eventFilter) Process(_ backend.Level, event map[string]any) (map[string]any, error) {
	for _, key := range f.keys {
		delete(event, key)
	}
	return event, nil
}

type addExtraFields struct{}

// AddExtraFields returns the bridge step that merges the originating record's
// extra fields into the event top level. Explicit event fields win.
func AddExtraFields() Processor { return addExtraFields{} }

func (addExtraFields) Name() string { return "add_extra_fields" }

func (addExtraFields) Process(_ backend.Level, event map[string]any) (map[string]any, error) {
	raw, ok := event[KeyExtra]
	if !ok {
		return event, nil
	}
	delete(event, KeyExtra)
	extra, ok := raw.(map[string]any)
	if !ok {
		return event, nil
	}
	for k, v := range extra {
		if _, exists := event[k]; !exists {
			event[k] = v
		}
	}
	return event, nil
}

type removeProcessorsMeta struct{}

// RemoveProcessorsMeta returns the bridge step that strips formatter
// bookkeeping keys before rendering.
func RemoveProcessorsMeta() Processor { return removeProcessorsMeta{} }

func (removeProcessorsMeta) Name() string { return "remove_processors_meta" }

func (removeProcessorsMeta) Process(_ backend.Level, event map[string]any) (map[string]any, error) {
	delete(event, KeyRecord)
	delete(event, KeyFromStructured)
	delete(event, KeyExtra)
	return event, nil
}

// runPipeline executes the steps against the event. The final step, when it is
// a Renderer, produces the returned bytes; without a terminal renderer the
// event degrades to its fmt representation so a misassembled pipeline still
// emits something inspectable.
func runPipeline(procs []Processor, level backend.Level, event map[string]any) ([]byte, error) {
	for i, p := range procs {
		if i == len(procs)-1 {
			if r, ok := p.(Renderer); ok {
				return r.Render(level, event)
			}
		}
		var err error
		event, err = p.Process(level, event)
		if err != nil {
			return nil, err
		}
	}
	return []byte(fmt.Sprint(event)), nil
}
