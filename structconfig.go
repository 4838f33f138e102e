package logweave

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"logweave/backend"
	"logweave/structured"
)

// StructLoggingConfig configures the structured backend. It wraps a
// LoggingConfig (StandardLibConfig) used when structured output bridges
// through a dict-configured backend's formatter chain. Build it with
// NewStructLoggingConfig so the defaulting rules run.
type StructLoggingConfig struct {
	// Processors is the ordered pipeline applied to every event.
	Processors []structured.Processor
	// StandardLibConfig configures the dict backend the bridge renders
	// through. Auto-built around the bridge pipeline when left nil.
	StandardLibConfig *LoggingConfig
	// WrapperClass decides which levels bound loggers emit.
	WrapperClass structured.Wrapper
	// ContextClass seeds the initial bound context of every logger.
	ContextClass map[string]any
	// LoggerFactory produces the output sink per logger.
	LoggerFactory structured.LoggerFactory
	// CacheLoggerOnFirstUse reuses bound loggers across lookups.
	CacheLoggerOnFirstUse bool
	// LogExceptions picks the exception-logging policy.
	LogExceptions ExceptionPolicy
	// TracebackLineLimit bounds how many traceback lines reach the log.
	TracebackLineLimit int
	// ExceptionHandler emits uncaught exceptions; auto-populated unless the
	// policy is LogNever.
	ExceptionHandler ExceptionHandler
	// PrettyPrintTTY renders human-readable console output instead of JSON
	// when the output stream is an interactive terminal.
	PrettyPrintTTY bool

	interactive *bool
	asJSON      bool
}

// StructLoggingOption adjusts a StructLoggingConfig before defaulting runs.
type StructLoggingOption func(*StructLoggingConfig)

// WithProcessors supplies a custom pipeline.
func WithProcessors(procs []structured.Processor) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.Processors = procs }
}

// WithWrappedConfig supplies a customized standard config for the bridge.
func WithWrappedConfig(cfg *LoggingConfig) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.StandardLibConfig = cfg }
}

// WithWrapper supplies the level-gating wrapper.
func WithWrapper(w structured.Wrapper) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.WrapperClass = w }
}

// WithInitialContext seeds every logger's bound context.
func WithInitialContext(ctx map[string]any) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.ContextClass = ctx }
}

// WithLoggerFactory supplies a custom sink factory.
func WithLoggerFactory(f structured.LoggerFactory) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.LoggerFactory = f }
}

// WithoutLoggerCache disables first-use logger caching.
func WithoutLoggerCache() StructLoggingOption {
	return func(c *StructLoggingConfig) { c.CacheLoggerOnFirstUse = false }
}

// WithoutPrettyPrint keeps machine-readable output even on a terminal.
func WithoutPrettyPrint() StructLoggingOption {
	return func(c *StructLoggingConfig) { c.PrettyPrintTTY = false }
}

// WithStructuredExceptionPolicy sets the exception-logging policy.
func WithStructuredExceptionPolicy(policy ExceptionPolicy) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.LogExceptions = policy }
}

// WithStructuredTracebackLineLimit bounds logged traceback length.
func WithStructuredTracebackLineLimit(limit int) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.TracebackLineLimit = limit }
}

// WithStructuredExceptionHandler supplies a custom exception handler.
func WithStructuredExceptionHandler(h ExceptionHandler) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.ExceptionHandler = h }
}

// WithTerminalOverride fixes the interactivity decision instead of probing
// the output stream, for hosts that force a mode and for tests.
func WithTerminalOverride(interactive bool) StructLoggingOption {
	return func(c *StructLoggingConfig) { c.interactive = &interactive }
}

// NewStructLoggingConfig constructs a StructLoggingConfig and runs the
// defaulting algorithm. Interactivity is read once, here, from the output
// stream's terminal attachment; it is never re-evaluated later.
func NewStructLoggingConfig(opts ...StructLoggingOption) *StructLoggingConfig {
	c := &StructLoggingConfig{
		CacheLoggerOnFirstUse: true,
		LogExceptions:         LogOnDebug,
		TracebackLineLimit:    20,
		PrettyPrintTTY:        true,
	}
	for _, opt := range opts {
		opt(c)
	}

	caps := backend.Detect()
	interactive := stderrIsTerminal()
	if c.interactive != nil {
		interactive = *c.interactive
	}
	c.asJSON = !interactive && c.PrettyPrintTTY

	if c.Processors == nil {
		c.Processors = DefaultProcessors(caps, c.asJSON)
	}
	if c.LoggerFactory == nil {
		c.LoggerFactory = DefaultLoggerFactory(caps, c.asJSON)
	}
	if c.LogExceptions != LogNever && c.ExceptionHandler == nil {
		c.ExceptionHandler = newExceptionHandler(true, c.TracebackLineLimit)
	}
	if c.StandardLibConfig == nil {
		if caps.Has(backend.Structured) {
			c.StandardLibConfig = NewLoggingConfig(WithFormatters(map[string]map[string]any{
				"standard": {
					"()": structured.NewProcessorFormatter(DefaultBridgeProcessors(caps, c.asJSON)),
				},
			}))
		} else {
			// The downgrade is deliberate but must be observable: supplied
			// processors are discarded along with the structured path.
			slog.Warn("structured logging backend is not installed; falling back to standard logging defaults")
			c.StandardLibConfig = NewLoggingConfig()
		}
	}
	return c
}

// AsJSON reports the output mode fixed at construction time.
func (c *StructLoggingConfig) AsJSON() bool { return c.asJSON }

// Settings projects the model onto the structured backend's keyword set. The
// bookkeeping fields (StandardLibConfig, the exception policy knobs,
// PrettyPrintTTY) deliberately never cross this boundary.
func (c *StructLoggingConfig) Settings() structured.Settings {
	return structured.Settings{
		Processors:            c.Processors,
		Wrapper:               c.WrapperClass,
		Context:               c.ContextClass,
		LoggerFactory:         c.LoggerFactory,
		CacheLoggerOnFirstUse: c.CacheLoggerOnFirstUse,
	}
}

// Configure invokes the structured backend's native configuration entry
// point and returns its logger accessor.
func (c *StructLoggingConfig) Configure() (GetLoggerFunc, error) {
	eng, err := structuredEngine()
	if err != nil {
		return nil, err
	}
	if err := eng.Configure(c.Settings()); err != nil {
		return nil, err
	}
	return eng.GetLogger, nil
}

// SetLevel installs an engine-wide filtering wrapper at level. The logger
// argument is accepted for interface uniformity; structured level gating is
// global by design.
func (c *StructLoggingConfig) SetLevel(_ backend.Logger, level backend.Level) error {
	eng, err := structuredEngine()
	if err != nil {
		return err
	}
	eng.SetLevel(level)
	return nil
}

func structuredEngine() (*structured.Engine, error) {
	b, ok := backend.Lookup(backend.Structured)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBackend, backend.Structured)
	}
	eng, ok := b.(*structured.Engine)
	if !ok {
		return nil, fmt.Errorf("%w: registered structured backend has unexpected type %T", ErrMissingBackend, b)
	}
	return eng, nil
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
