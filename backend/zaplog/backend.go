package zaplog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"logweave/backend"
)

func init() {
	backend.Register(Default())
}

var std = New()

// Default returns the process-wide backend instance the registry serves.
func Default() *Backend { return std }

// Handler class names this backend accepts in handler descriptors.
const (
	ClassStreamHandler        = "zap.StreamHandler"
	ClassQueueListenerHandler = "zap.QueueListenerHandler"
)

type loggerSettings struct {
	level     backend.Level
	handlers  []string
	propagate bool
}

type runtimeState struct {
	handlers map[string]zapcore.Core
	buffered []*zapcore.BufferedWriteSyncer
	loggers  map[string]loggerSettings
	root     *loggerSettings
}

func (s *runtimeState) stop() {
	if s == nil {
		return
	}
	for _, ws := range s.buffered {
		ws.Stop() //nolint:errcheck // draining a dead runtime is best effort
	}
}

// Backend compiles dict settings into zap cores.
type Backend struct {
	mu      sync.Mutex
	rt      *runtimeState
	loggers map[string]*zapLogger
}

// New returns an unconfigured backend.
func New() *Backend {
	return &Backend{loggers: map[string]*zapLogger{}}
}

// Kind reports backend.HighPerformance.
func (b *Backend) Kind() backend.Kind { return backend.HighPerformance }

// Configure applies a settings map. Incremental configuration is not
// supported here and is rejected outright rather than half-applied.
func (b *Backend) Configure(settings map[string]any) error {
	if inc, ok := settings["incremental"].(bool); ok && inc {
		return fmt.Errorf("zaplog: incremental configuration is not supported")
	}
	rt, err := buildRuntime(settings)
	if err != nil {
		return err
	}

	b.mu.Lock()
	old := b.rt
	b.rt = rt
	for name, l := range b.loggers {
		l.rebind(b.buildLogger(name, rt))
	}
	b.mu.Unlock()

	old.stop()
	return nil
}

// GetLogger returns the named logger, cached so SetLevel sticks across
// lookups and reconfiguration.
func (b *Backend) GetLogger(name string) backend.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.loggers[name]; ok {
		return l
	}
	l := &zapLogger{}
	l.rebind(b.buildLogger(name, b.rt))
	b.loggers[name] = l
	return l
}

// Sync flushes every buffered queue listener.
func (b *Backend) Sync() {
	b.mu.Lock()
	rt := b.rt
	b.mu.Unlock()
	if rt == nil {
		return
	}
	for _, ws := range rt.buffered {
		ws.Sync() //nolint:errcheck
	}
}

func (b *Backend) buildLogger(name string, rt *runtimeState) (*zap.SugaredLogger, zap.AtomicLevel) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if rt == nil {
		return zap.New(zapcore.NewNopCore()).Named(name).Sugar(), level
	}
	ls, ok := resolveSettings(rt, name)
	if !ok {
		return zap.New(zapcore.NewNopCore()).Named(name).Sugar(), level
	}
	level.SetLevel(toZapLevel(ls.level))

	names := append([]string(nil), ls.handlers...)
	if ls.propagate && rt.root != nil {
		names = append(names, rt.root.handlers...)
	}
	cores := make([]zapcore.Core, 0, len(names))
	for _, hname := range names {
		if core, ok := rt.handlers[hname]; ok {
			cores = append(cores, core)
		}
	}
	core := zapcore.NewTee(cores...)
	return zap.New(&leveledCore{Core: core, level: level}).Named(name).Sugar(), level
}

func resolveSettings(rt *runtimeState, name string) (loggerSettings, bool) {
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
		return loggerSettings{level: rt.root.level, handlers: rt.root.handlers, propagate: false}, true
	}
	return loggerSettings{}, false
}

type zapLogger struct {
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

func (l *zapLogger) rebind(sugar *zap.SugaredLogger, level zap.AtomicLevel) {
	l.mu.Lock()
	l.sugar = sugar
	l.level = level
	l.mu.Unlock()
}

func (l *zapLogger) Log(level backend.Level, msg string, args ...any) {
	l.mu.RLock()
	sugar := l.sugar
	l.mu.RUnlock()
	sugar.Logw(toZapLevel(level), msg, args...)
}

func (l *zapLogger) Exception(msg string, args ...any) {
	l.Log(backend.LevelError, msg, args...)
}

func (l *zapLogger) SetLevel(level backend.Level) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.level.SetLevel(toZapLevel(level))
}

// leveledCore gates a tee of handler cores behind one atomic per-logger
// level, so SetLevel applies without rebuilding cores.
type leveledCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *leveledCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

func (c *leveledCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}

func buildRuntime(settings map[string]any) (*runtimeState, error) {
	rt := &runtimeState{
		handlers: map[string]zapcore.Core{},
		loggers:  map[string]loggerSettings{},
	}

	formatters := sectionMap(settings["formatters"])
	for name, desc := range sectionMap(settings["handlers"]) {
		class, _ := desc["class"].(string)
		min := toZapLevel(backend.ParseLevel(stringValue(desc["level"])))
		ws := zapcore.Lock(zapcore.AddSync(streamWriter(desc["stream"])))

		if class != ClassStreamHandler && class != ClassQueueListenerHandler {
			return nil, fmt.Errorf("handler %q: unsupported class %q", name, class)
		}
		if class == ClassQueueListenerHandler {
			buffered := &zapcore.BufferedWriteSyncer{WS: ws, FlushInterval: 100 * time.Millisecond}
			rt.buffered = append(rt.buffered, buffered)
			ws = buffered
		}

		if rf := bridgeFor(formatters, stringValue(desc["formatter"])); rf != nil {
			rt.handlers[name] = &bridgeCore{min: min, rf: rf, ws: ws}
			continue
		}
		rt.handlers[name] = zapcore.NewCore(consoleEncoder(), ws, min)
	}

	for name, desc := range sectionMap(settings["loggers"]) {
		ls := parseLoggerSettings(desc)
		if err := checkHandlerRefs(rt, ls.handlers); err != nil {
			return nil, fmt.Errorf("logger %q: %w", name, err)
		}
		rt.loggers[name] = ls
	}
	if rootDesc, ok := settings["root"].(map[string]any); ok {
		ls := parseLoggerSettings(rootDesc)
		if err := checkHandlerRefs(rt, ls.handlers); err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		rt.root = &ls
	}
	return rt, nil
}

func bridgeFor(formatters map[string]map[string]any, name string) backend.RecordFormatter {
	if name == "" {
		return nil
	}
	desc, ok := formatters[name]
	if !ok {
		return nil
	}
	rf, _ := desc["()"].(backend.RecordFormatter)
	return rf
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		NameKey:          "logger",
		TimeKey:          "time",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " - ",
	})
}

func parseLoggerSettings(desc map[string]any) loggerSettings {
	ls := loggerSettings{
		level:     backend.ParseLevel(stringValue(desc["level"])),
		handlers:  stringSlice(desc["handlers"]),
		propagate: true,
	}
	if p, ok := desc["propagate"].(bool); ok {
		ls.propagate = p
	}
	return ls
}

func checkHandlerRefs(rt *runtimeState, names []string) error {
	for _, name := range names {
		if _, ok := rt.handlers[name]; !ok {
			return fmt.Errorf("unknown handler %q", name)
		}
	}
	return nil
}

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

func toZapLevel(level backend.Level) zapcore.Level {
	switch {
	case level >= backend.LevelError:
		return zapcore.ErrorLevel
	case level >= backend.LevelWarn:
		return zapcore.WarnLevel
	case level >= backend.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func fromZapLevel(level zapcore.Level) backend.Level {
	switch {
	case level >= zapcore.ErrorLevel:
		return backend.LevelError
	case level >= zapcore.WarnLevel:
		return backend.LevelWarn
	case level >= zapcore.InfoLevel:
		return backend.LevelInfo
	default:
		return backend.LevelDebug
	}
}
