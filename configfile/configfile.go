// Package configfile loads a declarative logging description from TOML or
// YAML and builds the matching config model. It exists so hosts can keep
// logging behavior in the same file format as the rest of their
// configuration; everything it produces goes through the same defaulting
// rules as hand-built configs.
package configfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"logweave"
)

// EnvLevel overrides the application-root logger level when set, regardless
// of what the file says.
const EnvLevel = "LOGWEAVE_LEVEL"

// File is the declarative on-disk schema. Pointer fields distinguish "absent"
// from an explicit false/zero so file values only override defaults when
// actually written.
type File struct {
	Structured             bool                         `toml:"structured" yaml:"structured"`
	Level                  string                       `toml:"level" yaml:"level"`
	LogExceptions          string                       `toml:"log_exceptions" yaml:"log_exceptions"`
	TracebackLineLimit     *int                         `toml:"traceback_line_limit" yaml:"traceback_line_limit"`
	PrettyPrintTTY         *bool                        `toml:"pretty_print_tty" yaml:"pretty_print_tty"`
	ConfigureRootLogger    *bool                        `toml:"configure_root_logger" yaml:"configure_root_logger"`
	Propagate              *bool                        `toml:"propagate" yaml:"propagate"`
	Incremental            bool                         `toml:"incremental" yaml:"incremental"`
	DisableExistingLoggers bool                         `toml:"disable_existing_loggers" yaml:"disable_existing_loggers"`
	Formatters             map[string]map[string]any    `toml:"formatters" yaml:"formatters"`
	Handlers               map[string]map[string]any    `toml:"handlers" yaml:"handlers"`
	Loggers                map[string]map[string]any    `toml:"loggers" yaml:"loggers"`
	Root                   map[string]any               `toml:"root" yaml:"root"`
}

// Load reads path and builds the config model it describes. The file format
// follows the extension: .toml, .yaml, or .yml.
func Load(path string) (logweave.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logging config %s: %w", path, err)
	}
	return Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// Parse decodes data in the named format ("toml", "yaml", or "yml") and
// builds the config model.
func Parse(data []byte, format string) (logweave.Config, error) {
	var f File
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode toml logging config: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode yaml logging config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported logging config format %q", format)
	}
	return f.Build(), nil
}

// Build assembles the config model, applying the environment level override.
func (f File) Build() logweave.Config {
	if f.Structured {
		return logweave.NewStructLoggingConfig(f.structOptions()...)
	}
	return logweave.NewLoggingConfig(f.standardOptions()...)
}

func (f File) standardOptions() []logweave.LoggingOption {
	var opts []logweave.LoggingOption
	if f.Formatters != nil {
		opts = append(opts, logweave.WithFormatters(f.Formatters))
	}
	if f.Handlers != nil {
		opts = append(opts, logweave.WithHandlers(f.Handlers))
	}
	if loggers := f.leveledLoggers(); loggers != nil {
		opts = append(opts, logweave.WithLoggers(loggers))
	}
	if f.Root != nil {
		opts = append(opts, logweave.WithRoot(f.Root))
	}
	if f.ConfigureRootLogger != nil && !*f.ConfigureRootLogger {
		opts = append(opts, logweave.WithoutRootLogger())
	}
	if f.Propagate != nil && !*f.Propagate {
		opts = append(opts, logweave.WithoutPropagation())
	}
	if f.Incremental {
		opts = append(opts, logweave.WithIncremental())
	}
	if f.DisableExistingLoggers {
		opts = append(opts, logweave.WithDisableExistingLoggers())
	}
	if f.LogExceptions != "" {
		opts = append(opts, logweave.WithExceptionPolicy(logweave.ExceptionPolicy(f.LogExceptions)))
	}
	if f.TracebackLineLimit != nil {
		opts = append(opts, logweave.WithTracebackLineLimit(*f.TracebackLineLimit))
	}
	return opts
}

func (f File) structOptions() []logweave.StructLoggingOption {
	var opts []logweave.StructLoggingOption
	if f.PrettyPrintTTY != nil && !*f.PrettyPrintTTY {
		opts = append(opts, logweave.WithoutPrettyPrint())
	}
	if f.LogExceptions != "" {
		opts = append(opts, logweave.WithStructuredExceptionPolicy(logweave.ExceptionPolicy(f.LogExceptions)))
	}
	if f.TracebackLineLimit != nil {
		opts = append(opts, logweave.WithStructuredTracebackLineLimit(*f.TracebackLineLimit))
	}
	if f.wantsWrappedConfig() {
		opts = append(opts, logweave.WithWrappedConfig(logweave.NewLoggingConfig(f.standardOptions()...)))
	}
	return opts
}

func (f File) wantsWrappedConfig() bool {
	return f.Formatters != nil || f.Handlers != nil || f.Loggers != nil ||
		f.Root != nil || f.Level != "" || os.Getenv(EnvLevel) != ""
}

// leveledLoggers folds the file-level (or environment) level override into
// the application-root logger entry.
func (f File) leveledLoggers() map[string]map[string]any {
	level := f.Level
	if env := strings.TrimSpace(os.Getenv(EnvLevel)); env != "" {
		level = env
	}
	if f.Loggers == nil && level == "" {
		return nil
	}

	loggers := make(map[string]map[string]any, len(f.Loggers)+1)
	for name, desc := range f.Loggers {
		loggers[name] = desc
	}
	if level != "" {
		entry, ok := loggers[logweave.AppLoggerName]
		if !ok {
			entry = map[string]any{
				"handlers":  []string{"queue_listener"},
				"propagate": false,
			}
		}
		entry["level"] = strings.ToUpper(strings.TrimSpace(level))
		loggers[logweave.AppLoggerName] = entry
	}
	return loggers
}
