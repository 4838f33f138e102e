package structured

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"logweave/backend"
)

// EncodeFunc serializes an event map to bytes. The JSON renderer treats it as
// an injected collaborator; pass nil to use encoding/json.
type EncodeFunc func(v any) ([]byte, error)

type jsonRenderer struct {
	encode EncodeFunc
}

// NewJSONRenderer returns the machine-readable terminal step.
func NewJSONRenderer(encode EncodeFunc) Renderer {
	if encode == nil {
		encode = func(v any) ([]byte, error) { return json.Marshal(v) }
	}
	return jsonRenderer{encode: encode}
}

func (jsonRenderer) Name() string { return "render_json" }

func (jsonRenderer) Process(_ backend.Level, event map[string]any) (map[string]any, error) {
	return event, nil
}

func (r jsonRenderer) Render(_ backend.Level, event map[string]any) ([]byte, error) {
	return r.encode(event)
}

type consoleRenderer struct {
	colors    bool
	maxFrames int
}

// NewConsoleRenderer returns the human-readable terminal step. maxFrames
// bounds how many trailing exception lines are shown; values below one keep a
// single line.
func NewConsoleRenderer(colors bool, maxFrames int) Renderer {
	if maxFrames < 1 {
		maxFrames = 1
	}
	return consoleRenderer{colors: colors, maxFrames: maxFrames}
}

func (consoleRenderer) Name() string { return "render_console" }

func (consoleRenderer) Process(_ backend.Level, event map[string]any) (map[string]any, error) {
	return event, nil
}

func (r consoleRenderer) Render(level backend.Level, event map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(128 + len(event)*24)

	if ts, ok := event["timestamp"].(string); ok {
		buf.WriteString(ts)
		buf.WriteByte(' ')
	}
	buf.WriteString(r.levelLabel(level, event))
	buf.WriteByte(' ')

	if msg, ok := event[EventKey].(string); ok && msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}

	var exception string
	for _, key := range sortedKeys(event) {
		switch key {
		case EventKey, "timestamp", "level":
			continue
		case "exception":
			exception, _ = event[key].(string)
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(formatConsoleValue(event[key]))
	}

	if exception != "" {
		for _, line := range tailLines(exception, r.maxFrames) {
			buf.WriteByte('\n')
			buf.WriteString("    ")
			buf.WriteString(line)
		}
	}
	return buf.Bytes(), nil
}

func (r consoleRenderer) levelLabel(level backend.Level, event map[string]any) string {
	label := level.String()
	if s, ok := event["level"].(string); ok && s != "" {
		label = strings.ToUpper(s)
	}
	if !r.colors {
		return label
	}
	switch {
	case level >= backend.LevelError:
		return color.New(color.FgRed).Sprint(label)
	case level >= backend.LevelWarn:
		return color.New(color.FgYellow).Sprint(label)
	case level >= backend.LevelInfo:
		return color.New(color.FgBlue).Sprint(label)
	default:
		return color.New(color.FgMagenta).Sprint(label)
	}
}

func sortedKeys(event map[string]any) []string {
	keys := make([]string, 0, len(event))
	for k := range event {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func tailLines(text string, limit int) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}

func formatConsoleValue(v any) string {
	switch val := v.(type) {
	case string:
		if needsQuotes(val) {
			return strconv.Quote(val)
		}
		return val
	case error:
		msg := val.Error()
		if needsQuotes(msg) {
			return strconv.Quote(msg)
		}
		return msg
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		s := strings.ReplaceAll(strings.TrimSpace(fmt.Sprint(val)), "\n", " ")
		if needsQuotes(s) {
			return strconv.Quote(s)
		}
		return s
	}
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
