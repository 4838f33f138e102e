package logweave

import (
	"fmt"
	"strings"

	"logweave/backend"
	_ "logweave/backend/slogcore" // the standard backend is always installed
)

// LoggingConfig is the declarative, backend-agnostic configuration for the
// dict-configured backends. Build it with NewLoggingConfig so the defaulting
// rules run; after construction the queue_listener handler, the
// application-root logger entry, and (policy permitting) the exception
// handler are always present.
type LoggingConfig struct {
	// Version is the settings-schema version; only 1 is valid.
	Version int
	// Incremental marks the settings as additions to the existing
	// configuration. The high-performance backend does not support it.
	Incremental bool
	// DisableExistingLoggers stops loggers absent from the new settings from
	// emitting after reconfiguration.
	DisableExistingLoggers bool
	// Filters maps filter ids to their settings.
	Filters map[string]map[string]any
	// Propagate lets records travel to handlers higher up the logger
	// hierarchy.
	Propagate bool
	// Formatters maps formatter ids to their settings; "standard" is the
	// entry the default handlers reference.
	Formatters map[string]map[string]any
	// Handlers maps handler ids to their settings.
	Handlers map[string]map[string]any
	// Loggers maps logger names to their settings.
	Loggers map[string]map[string]any
	// Root configures the process root logger, applied only when
	// ConfigureRootLogger is set.
	Root map[string]any
	// ConfigureRootLogger gates whether Root reaches the backend at all.
	ConfigureRootLogger bool
	// LogExceptions picks the exception-logging policy.
	LogExceptions ExceptionPolicy
	// TracebackLineLimit bounds how many traceback lines reach the log.
	TracebackLineLimit int
	// ExceptionHandler emits uncaught exceptions; auto-populated unless the
	// policy is LogNever.
	ExceptionHandler ExceptionHandler
}

// LoggingOption adjusts a LoggingConfig before defaulting runs.
type LoggingOption func(*LoggingConfig)

// WithFormatters replaces the formatter table.
func WithFormatters(formatters map[string]map[string]any) LoggingOption {
	return func(c *LoggingConfig) { c.Formatters = formatters }
}

// WithHandlers replaces the handler table. A missing queue_listener entry is
// re-inserted from the default table during construction.
func WithHandlers(handlers map[string]map[string]any) LoggingOption {
	return func(c *LoggingConfig) { c.Handlers = handlers }
}

// WithLoggers replaces the logger table. A missing application-root entry is
// re-inserted during construction.
func WithLoggers(loggers map[string]map[string]any) LoggingOption {
	return func(c *LoggingConfig) { c.Loggers = loggers }
}

// WithFilters sets the filter table.
func WithFilters(filters map[string]map[string]any) LoggingOption {
	return func(c *LoggingConfig) { c.Filters = filters }
}

// WithRoot replaces the root logger settings.
func WithRoot(root map[string]any) LoggingOption {
	return func(c *LoggingConfig) { c.Root = root }
}

// WithoutRootLogger leaves the backend's root logger untouched: the root
// entry never reaches the compiled settings.
func WithoutRootLogger() LoggingOption {
	return func(c *LoggingConfig) { c.ConfigureRootLogger = false }
}

// WithIncremental marks the settings as incremental.
func WithIncremental() LoggingOption {
	return func(c *LoggingConfig) { c.Incremental = true }
}

// WithoutPropagation stops records from propagating up the hierarchy.
func WithoutPropagation() LoggingOption {
	return func(c *LoggingConfig) { c.Propagate = false }
}

// WithDisableExistingLoggers disables loggers absent from these settings.
func WithDisableExistingLoggers() LoggingOption {
	return func(c *LoggingConfig) { c.DisableExistingLoggers = true }
}

// WithExceptionPolicy sets the exception-logging policy.
func WithExceptionPolicy(policy ExceptionPolicy) LoggingOption {
	return func(c *LoggingConfig) { c.LogExceptions = policy }
}

// WithTracebackLineLimit bounds logged traceback length.
func WithTracebackLineLimit(limit int) LoggingOption {
	return func(c *LoggingConfig) { c.TracebackLineLimit = limit }
}

// WithExceptionHandler supplies a custom exception handler.
func WithExceptionHandler(h ExceptionHandler) LoggingOption {
	return func(c *LoggingConfig) { c.ExceptionHandler = h }
}

// NewLoggingConfig constructs a LoggingConfig and runs the defaulting
// algorithm against the currently detected backend set.
func NewLoggingConfig(opts ...LoggingOption) *LoggingConfig {
	c := &LoggingConfig{
		Version:             1,
		Propagate:           true,
		Formatters:          defaultFormatters(),
		Root:                defaultRoot(),
		ConfigureRootLogger: true,
		LogExceptions:       LogOnDebug,
		TracebackLineLimit:  20,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.applyDefaults(backend.Detect())
	return c
}

func (c *LoggingConfig) applyDefaults(caps backend.Set) {
	if c.Formatters == nil {
		c.Formatters = defaultFormatters()
	}
	if c.Handlers == nil {
		c.Handlers = detectedHandlers(caps)
	}
	if _, ok := c.Handlers["queue_listener"]; !ok {
		c.Handlers["queue_listener"] = detectedHandlers(caps)["queue_listener"]
	}
	if c.Loggers == nil {
		c.Loggers = map[string]map[string]any{}
	}
	if _, ok := c.Loggers[AppLoggerName]; !ok {
		c.Loggers[AppLoggerName] = defaultAppLogger()
	}
	if c.LogExceptions != LogNever && c.ExceptionHandler == nil {
		c.ExceptionHandler = newExceptionHandler(false, c.TracebackLineLimit)
	}
}

// compileDrops is the per-backend field projection: every dropped field is a
// deliberate, visible decision instead of reflective filtering.
var compileDrops = map[backend.Kind]map[string]bool{
	backend.Standard: {
		"configure_root_logger": true,
	},
	backend.HighPerformance: {
		"configure_root_logger": true,
		"incremental":           true,
	},
}

// Compile produces the backend-native settings map: nil-valued sections are
// stripped, the per-kind deny list is applied, and the root entry is omitted
// entirely when ConfigureRootLogger is false.
func (c *LoggingConfig) Compile(kind backend.Kind) map[string]any {
	values := map[string]any{
		"version":                  c.Version,
		"incremental":              c.Incremental,
		"disable_existing_loggers": c.DisableExistingLoggers,
		"propagate":                c.Propagate,
		"configure_root_logger":    c.ConfigureRootLogger,
		"log_exceptions":           string(c.LogExceptions),
		"traceback_line_limit":     c.TracebackLineLimit,
	}
	if c.Filters != nil {
		values["filters"] = c.Filters
	}
	if c.Formatters != nil {
		values["formatters"] = c.Formatters
	}
	if c.Handlers != nil {
		values["handlers"] = c.Handlers
	}
	if c.Loggers != nil {
		values["loggers"] = c.Loggers
	}
	if c.Root != nil {
		values["root"] = c.Root
	}
	if c.ExceptionHandler != nil {
		values["exception_logging_handler"] = c.ExceptionHandler
	}

	for field := range compileDrops[kind] {
		delete(values, field)
	}
	if !c.ConfigureRootLogger {
		delete(values, "root")
	}
	return values
}

// BackendKind inspects the handler classes to decide which dict backend these
// settings target: any zap-class handler routes the whole config to the
// high-performance backend.
func (c *LoggingConfig) BackendKind() backend.Kind {
	for _, desc := range c.Handlers {
		if class, ok := desc["class"].(string); ok && strings.HasPrefix(class, "zap.") {
			return backend.HighPerformance
		}
	}
	return backend.Standard
}

// Configure invokes the selected backend's native configuration entry point
// and returns its logger accessor.
func (c *LoggingConfig) Configure() (GetLoggerFunc, error) {
	kind := c.BackendKind()
	b, ok := backend.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBackend, kind)
	}
	db, ok := b.(backend.DictBackend)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend does not accept dict settings", ErrMissingBackend, kind)
	}
	if err := db.Configure(c.Compile(kind)); err != nil {
		return nil, err
	}
	return db.GetLogger, nil
}

// SetLevel adjusts one logger's level, the uniform cross-backend operation.
func (c *LoggingConfig) SetLevel(logger backend.Logger, level backend.Level) error {
	if logger == nil {
		return fmt.Errorf("%w: no logger to set level on", ErrNotConfigured)
	}
	logger.SetLevel(level)
	return nil
}
