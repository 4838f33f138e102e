package logweave

import "logweave/backend"

// AppLoggerName is the application-root logger entry every LoggingConfig
// carries after defaulting.
const AppLoggerName = "logweave"

const defaultLineFormat = "{level} - {time} - {name} - {message}"

// DefaultHandlers returns the baseline console and queue_listener handler
// descriptors for a dict-configured backend kind. It is a pure function:
// callers compute it per configure pass so the table always matches the
// backend the resolver actually selects.
func DefaultHandlers(kind backend.Kind) map[string]map[string]any {
	if kind == backend.HighPerformance {
		return map[string]map[string]any{
			"console": {
				"class":     "zap.StreamHandler",
				"level":     "DEBUG",
				"formatter": "standard",
			},
			"queue_listener": {
				"class":     "zap.QueueListenerHandler",
				"level":     "DEBUG",
				"formatter": "standard",
				"handlers":  []string{"console"},
			},
		}
	}
	return map[string]map[string]any{
		"console": {
			"class":     "slog.StreamHandler",
			"level":     "DEBUG",
			"formatter": "standard",
		},
		"queue_listener": {
			"class":     "slog.QueueListenerHandler",
			"level":     "DEBUG",
			"formatter": "standard",
			"handlers":  []string{"console"},
		},
	}
}

// detectedHandlers picks the handler table for the preferred dict backend:
// the high-performance backend when installed, the standard one otherwise.
func detectedHandlers(caps backend.Set) map[string]map[string]any {
	if caps.Has(backend.HighPerformance) {
		return DefaultHandlers(backend.HighPerformance)
	}
	return DefaultHandlers(backend.Standard)
}

func defaultFormatters() map[string]map[string]any {
	return map[string]map[string]any{
		"standard": {"format": defaultLineFormat},
	}
}

func defaultAppLogger() map[string]any {
	return map[string]any{
		"level":     "INFO",
		"handlers":  []string{"queue_listener"},
		"propagate": false,
	}
}

func defaultRoot() map[string]any {
	return map[string]any{
		"handlers": []string{"queue_listener"},
		"level":    "INFO",
	}
}
