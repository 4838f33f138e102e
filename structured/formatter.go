package structured

import "logweave/backend"

// ProcessorFormatter renders records originating from a dict-configured
// backend through a bridge processor pipeline. Dict backends call FormatRecord
// whenever a formatter descriptor names it via the "()" factory key.
type ProcessorFormatter struct {
	processors []Processor
}

// NewProcessorFormatter builds a bridge formatter around the given steps.
func NewProcessorFormatter(procs []Processor) *ProcessorFormatter {
	return &ProcessorFormatter{processors: append([]Processor(nil), procs...)}
}

// Processors exposes the configured steps for inspection.
func (f *ProcessorFormatter) Processors() []Processor {
	return append([]Processor(nil), f.processors...)
}

// FormatRecord implements backend.RecordFormatter.
func (f *ProcessorFormatter) FormatRecord(rec backend.Record) ([]byte, error) {
	event := map[string]any{
		EventKey:          rec.Message,
		"logger":          rec.Logger,
		KeyExtra:          rec.Fields,
		KeyRecord:         rec,
		KeyFromStructured: false,
	}
	return runPipeline(f.processors, rec.Level, event)
}
