package slogcore

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"logweave/backend"
)

func init() {
	backend.Register(Default())
}

var std = New()

// Default returns the process-wide backend instance the registry serves.
func Default() *Backend { return std }

// Backend interprets dict settings into slog handler graphs. The zero of its
// lifecycle is usable: loggers fetched before Configure fall back to a
// last-resort stderr handler at warn level.
type Backend struct {
	mu      sync.RWMutex
	rt      *runtimeState
	loggers map[string]*slogLogger
}

// New returns an unconfigured backend.
func New() *Backend {
	return &Backend{loggers: map[string]*slogLogger{}}
}

// Kind reports backend.Standard.
func (b *Backend) Kind() backend.Kind { return backend.Standard }

// Configure applies a settings map, replacing any prior configuration.
// Existing loggers are re-leveled to match; with disable_existing_loggers set,
// loggers absent from the new map stop emitting.
func (b *Backend) Configure(settings map[string]any) error {
	rt, err := buildRuntime(settings)
	if err != nil {
		return err
	}
	disable, _ := settings["disable_existing_loggers"].(bool)

	b.mu.Lock()
	old := b.rt
	b.rt = rt
	for name, l := range b.loggers {
		if ls, ok := resolveSettings(rt, name); ok {
			l.level.Set(toSlogLevel(ls.level))
		} else if disable {
			l.level.Set(disabledLevel)
		}
	}
	b.mu.Unlock()

	old.close()
	return nil
}

// GetLogger returns the named logger. Loggers are cached so level changes
// survive repeat lookups.
func (b *Backend) GetLogger(name string) backend.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.loggers[name]; ok {
		return l
	}
	level := new(slog.LevelVar)
	if ls, ok := resolveSettings(b.rt, name); ok {
		level.Set(toSlogLevel(ls.level))
	}
	l := &slogLogger{
		name:   name,
		level:  level,
		logger: slog.New(&dispatchHandler{b: b, name: name, level: level}),
	}
	b.loggers[name] = l
	return l
}

// Sync blocks until every queue listener has delivered its backlog.
func (b *Backend) Sync() {
	b.mu.RLock()
	rt := b.rt
	b.mu.RUnlock()
	if rt == nil {
		return
	}
	for _, h := range rt.handlers {
		if q, ok := h.(*queueHandler); ok {
			q.sync()
		}
	}
}

func (b *Backend) dispatch(name string, rec backend.Record) {
	b.mu.RLock()
	rt := b.rt
	b.mu.RUnlock()
	if rt == nil {
		lastResort(rec)
		return
	}

	ls, ok := resolveSettings(rt, name)
	if !ok {
		lastResort(rec)
		return
	}
	for _, hname := range ls.handlers {
		if h, ok := rt.handlers[hname]; ok {
			h.emit(rec)
		}
	}
	if ls.propagate && rt.root != nil {
		for _, hname := range rt.root.handlers {
			if h, ok := rt.handlers[hname]; ok {
				h.emit(rec)
			}
		}
	}
}

// resolveSettings finds the most specific configured entry for a dotted
// logger name, walking ancestors before falling back to the root entry.
func resolveSettings(rt *runtimeState, name string) (loggerSettings, bool) {
	if rt == nil {
		return loggerSettings{}, false
	}
	candidate := name
	for {
		if ls, ok := rt.loggers[candidate]; ok {
			return ls, true
		}
		idx := strings.LastIndex(candidate, ".")
		if idx < 0 {
			break
		}
		candidate = candidate[:idx]
	}
	if rt.root != nil {
		// The root entry's own handlers already apply; no second propagation.
		return loggerSettings{level: rt.root.level, handlers: rt.root.handlers, propagate: false}, true
	}
	return loggerSettings{}, false
}

var lastResortHandler = newStreamHandler(streamWriter(nil), backend.LevelWarn, lineFormatter{layout: defaultLayout})

func lastResort(rec backend.Record) {
	lastResortHandler.emit(rec)
}

const disabledLevel = slog.LevelError + 128

type slogLogger struct {
	name   string
	level  *slog.LevelVar
	logger *slog.Logger
}

func (l *slogLogger) Log(level backend.Level, msg string, args ...any) {
	l.logger.Log(context.Background(), toSlogLevel(level), msg, args...)
}

func (l *slogLogger) Exception(msg string, args ...any) {
	l.Log(backend.LevelError, msg, args...)
}

func (l *slogLogger) SetLevel(level backend.Level) {
	l.level.Set(toSlogLevel(level))
}

// dispatchHandler adapts slog records into backend records and routes them
// through the configured handler graph.
type dispatchHandler struct {
	b      *Backend
	name   string
	level  *slog.LevelVar
	attrs  []slog.Attr
	groups []string
}

func (h *dispatchHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *dispatchHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make(map[string]any, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		flattenAttr(fields, h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(fields, h.groups, attr)
		return true
	})
	if len(fields) == 0 {
		fields = nil
	}
	h.b.dispatch(h.name, backend.Record{
		Time:    record.Time,
		Level:   fromSlogLevel(record.Level),
		Logger:  h.name,
		Message: record.Message,
		Fields:  fields,
	})
	return nil
}

func (h *dispatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *dispatchHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *dispatchHandler) clone() *dispatchHandler {
	clone := &dispatchHandler{b: h.b, name: h.name, level: h.level}
	if len(h.attrs) > 0 {
		clone.attrs = append([]slog.Attr(nil), h.attrs...)
	}
	if len(h.groups) > 0 {
		clone.groups = append([]string(nil), h.groups...)
	}
	return clone
}

func flattenAttr(dst map[string]any, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, nested := range attr.Value.Group() {
			flattenAttr(dst, next, nested)
		}
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), attr.Key), ".")
	}
	if key == "" {
		return
	}
	dst[key] = attr.Value.Any()
}

func toSlogLevel(level backend.Level) slog.Level {
	switch {
	case level >= backend.LevelError:
		return slog.LevelError
	case level >= backend.LevelWarn:
		return slog.LevelWarn
	case level >= backend.LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func fromSlogLevel(level slog.Level) backend.Level {
	switch {
	case level >= slog.LevelError:
		return backend.LevelError
	case level >= slog.LevelWarn:
		return backend.LevelWarn
	case level >= slog.LevelInfo:
		return backend.LevelInfo
	default:
		return backend.LevelDebug
	}
}
