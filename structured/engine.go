package structured

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"logweave/backend"
)

// Wrapper decides which levels a bound logger emits, the role the original
// wrapper class plays: SetLevel swaps in a FilteringWrapper engine-wide.
type Wrapper interface {
	Enabled(level backend.Level) bool
}

type filterWrapper struct {
	min backend.Level
}

func (w filterWrapper) Enabled(level backend.Level) bool { return level >= w.min }

// FilteringWrapper returns a Wrapper that drops events below min.
func FilteringWrapper(min backend.Level) Wrapper { return filterWrapper{min: min} }

// Settings is the keyword set the structured backend is configured with. It
// deliberately carries no exception-policy or bridge bookkeeping; those stay
// in the config model.
type Settings struct {
	Processors            []Processor
	Wrapper               Wrapper
	Context               map[string]any
	LoggerFactory         LoggerFactory
	CacheLoggerOnFirstUse bool
}

// Engine is the structured backend. Register its singleton to make the
// backend detectable; Configure may be re-run and replaces prior settings
// wholesale.
type Engine struct {
	mu       sync.RWMutex
	settings Settings
	cache    map[string]*BoundLogger
}

// NewEngine returns an unconfigured engine.
func NewEngine() *Engine {
	return &Engine{cache: map[string]*BoundLogger{}}
}

// Register installs a fresh engine in the backend registry, enabling the
// structured backend. Unlike the dict backends this cannot happen on import:
// the root package imports this one for its processor types, which must not
// by itself make the backend count as installed.
func Register() *Engine {
	e := NewEngine()
	backend.Register(e)
	return e
}

// Kind reports backend.Structured.
func (e *Engine) Kind() backend.Kind { return backend.Structured }

// Configure installs settings and invalidates cached loggers.
func (e *Engine) Configure(s Settings) error {
	if s.LoggerFactory == nil {
		s.LoggerFactory = BytesLoggerFactory(os.Stdout)
	}
	e.mu.Lock()
	e.settings = s
	e.cache = map[string]*BoundLogger{}
	e.mu.Unlock()
	return nil
}

// GetLogger returns the bound logger for name, cached on first use when the
// active settings ask for it. Safe for concurrent callers.
func (e *Engine) GetLogger(name string) backend.Logger {
	e.mu.RLock()
	if e.settings.CacheLoggerOnFirstUse {
		if l, ok := e.cache[name]; ok {
			e.mu.RUnlock()
			return l
		}
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settings.CacheLoggerOnFirstUse {
		if l, ok := e.cache[name]; ok {
			return l
		}
	}
	if e.settings.LoggerFactory == nil {
		e.settings.LoggerFactory = BytesLoggerFactory(os.Stdout)
	}
	l := &BoundLogger{
		engine:  e,
		name:    name,
		sink:    e.settings.LoggerFactory(name),
		context: cloneEvent(e.settings.Context),
	}
	if e.settings.CacheLoggerOnFirstUse {
		e.cache[name] = l
	}
	return l
}

// SetLevel installs an engine-wide filtering wrapper at min, the uniform
// level-setting mechanism for this backend.
func (e *Engine) SetLevel(min backend.Level) {
	e.mu.Lock()
	e.settings.Wrapper = FilteringWrapper(min)
	e.mu.Unlock()
}

func (e *Engine) snapshot() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// BoundLogger is a named logger carrying bound context through the pipeline.
type BoundLogger struct {
	engine  *Engine
	name    string
	sink    WrappedLogger
	context map[string]any
	level   atomic.Pointer[backend.Level]
}

// Bind returns a derived logger with additional context key/value pairs.
func (l *BoundLogger) Bind(args ...any) *BoundLogger {
	next := &BoundLogger{
		engine:  l.engine,
		name:    l.name,
		sink:    l.sink,
		context: cloneEvent(l.context),
	}
	next.level.Store(l.level.Load())
	if next.context == nil {
		next.context = map[string]any{}
	}
	for i := 0; i+1 < len(args); i += 2 {
		next.context[fmt.Sprint(args[i])] = args[i+1]
	}
	return next
}

// Log runs the event through the configured pipeline and writes the rendered
// form. It never panics: a failing step or sink degrades to a best-effort
// plain line on stderr.
func (l *BoundLogger) Log(level backend.Level, msg string, args ...any) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "%s %s (structured logging failed: %v)\n", level, msg, r)
		}
	}()

	settings := l.engine.snapshot()
	if min := l.level.Load(); min != nil && level < *min {
		return
	}
	if settings.Wrapper != nil && !settings.Wrapper.Enabled(level) {
		return
	}

	event := cloneEvent(l.context)
	if event == nil {
		event = map[string]any{}
	}
	for i := 0; i+1 < len(args); i += 2 {
		event[fmt.Sprint(args[i])] = args[i+1]
	}
	event["logger"] = l.name
	event[EventKey] = msg

	out, err := runPipeline(settings.Processors, level, event)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s (structured logging failed: %v)\n", level, msg, err)
		return
	}
	if err := l.sink.WriteEntry(out); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s (structured logging failed: %v)\n", level, msg, err)
	}
}

// Exception logs at error level; callers attach traceback context as fields.
func (l *BoundLogger) Exception(msg string, args ...any) {
	l.Log(backend.LevelError, msg, args...)
}

// SetLevel overrides the minimum level for this logger only.
func (l *BoundLogger) SetLevel(level backend.Level) {
	min := level
	l.level.Store(&min)
}

func cloneEvent(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
