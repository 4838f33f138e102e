package slogcore

import (
	"fmt"
	"io"
	"os"

	"logweave/backend"
)

// Handler class names this backend accepts in handler descriptors.
const (
	ClassStreamHandler        = "slog.StreamHandler"
	ClassQueueListenerHandler = "slog.QueueListenerHandler"
)

type loggerSettings struct {
	level     backend.Level
	handlers  []string
	propagate bool
}

type runtimeState struct {
	formatters map[string]formatter
	handlers   map[string]handler
	loggers    map[string]loggerSettings
	root       *loggerSettings
}

func (s *runtimeState) close() {
	if s == nil {
		return
	}
	for _, h := range s.handlers {
		h.close()
	}
}

// buildRuntime turns the compiled settings map into live formatter and handler
// graphs. Malformed graphs (unknown classes, dangling references) surface as
// errors with the original key names so host tooling sees the real diagnostic.
func buildRuntime(settings map[string]any) (*runtimeState, error) {
	rt := &runtimeState{
		formatters: map[string]formatter{},
		handlers:   map[string]handler{},
		loggers:    map[string]loggerSettings{},
	}

	for name, desc := range sectionMap(settings["formatters"]) {
		f, err := buildFormatter(desc)
		if err != nil {
			return nil, fmt.Errorf("formatter %q: %w", name, err)
		}
		rt.formatters[name] = f
	}

	handlerDescs := sectionMap(settings["handlers"])
	queueChildren := map[string][]string{}
	for name, desc := range handlerDescs {
		class, _ := desc["class"].(string)
		level := backend.ParseLevel(stringValue(desc["level"]))
		fmtName := stringValue(desc["formatter"])
		f, ok := rt.formatters[fmtName]
		if fmtName != "" && !ok {
			return nil, fmt.Errorf("handler %q: unknown formatter %q", name, fmtName)
		}
		if f == nil {
			f = lineFormatter{layout: defaultLayout}
		}

		switch class {
		case ClassStreamHandler:
			rt.handlers[name] = newStreamHandler(streamWriter(desc["stream"]), level, f)
		case ClassQueueListenerHandler:
			rt.handlers[name] = newQueueHandler(streamWriter(desc["stream"]), level, f)
			queueChildren[name] = stringSlice(desc["handlers"])
		default:
			return nil, fmt.Errorf("handler %q: unsupported class %q", name, class)
		}
	}

	// Queue listeners fan out to other named handlers; resolve the references
	// once every handler exists so ordering in the map cannot matter.
	for name, children := range queueChildren {
		q := rt.handlers[name].(*queueHandler)
		for _, child := range children {
			ch, ok := rt.handlers[child]
			if !ok {
				return nil, fmt.Errorf("handler %q: unknown downstream handler %q", name, child)
			}
			if ch == rt.handlers[name] {
				return nil, fmt.Errorf("handler %q: cyclic handler reference", name)
			}
			q.children = append(q.children, ch)
		}
		q.start()
	}

	for name, desc := range sectionMap(settings["loggers"]) {
		ls, err := buildLoggerSettings(desc)
		if err != nil {
			return nil, fmt.Errorf("logger %q: %w", name, err)
		}
		if err := checkHandlerRefs(rt, ls.handlers); err != nil {
			return nil, fmt.Errorf("logger %q: %w", name, err)
		}
		rt.loggers[name] = ls
	}

	if rootDesc, ok := settings["root"].(map[string]any); ok {
		ls, err := buildLoggerSettings(rootDesc)
		if err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		if err := checkHandlerRefs(rt, ls.handlers); err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		rt.root = &ls
	}

	return rt, nil
}

func buildLoggerSettings(desc map[string]any) (loggerSettings, error) {
	ls := loggerSettings{
		level:     backend.ParseLevel(stringValue(desc["level"])),
		handlers:  stringSlice(desc["handlers"]),
		propagate: true,
	}
	if p, ok := desc["propagate"].(bool); ok {
		ls.propagate = p
	}
	return ls, nil
}

func buildFormatter(desc map[string]any) (formatter, error) {
	if factory, ok := desc["()"]; ok {
		rf, ok := factory.(backend.RecordFormatter)
		if !ok {
			return nil, fmt.Errorf("factory %T does not implement RecordFormatter", factory)
		}
		return bridgeFormatter{rf: rf}, nil
	}
	layout := stringValue(desc["format"])
	if layout == "" {
		layout = defaultLayout
	}
	return lineFormatter{layout: layout}, nil
}

func checkHandlerRefs(rt *runtimeState, names []string) error {
	for _, name := range names {
		if _, ok := rt.handlers[name]; !ok {
			return fmt.Errorf("unknown handler %q", name)
		}
	}
	return nil
}

// sectionMap tolerates both the typed maps the config model compiles and the
// loosely typed maps produced by file decoding.
func sectionMap(v any) map[string]map[string]any {
	switch m := v.(type) {
	case map[string]map[string]any:
		return m
	case map[string]any:
		out := make(map[string]map[string]any, len(m))
		for k, raw := range m {
			if nested, ok := raw.(map[string]any); ok {
				out[k] = nested
			}
		}
		return out
	default:
		return nil
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...)
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// streamWriter resolves a handler's "stream" setting. Tests may place an
// io.Writer directly in the descriptor; string values name the process
// streams. The default matches the console handler convention: stderr.
func streamWriter(v any) io.Writer {
	switch s := v.(type) {
	case io.Writer:
		return s
	case string:
		if s == "stdout" {
			return os.Stdout
		}
		return os.Stderr
	default:
		return os.Stderr
	}
}
