package logweave

import (
	"logweave/backend"
	"logweave/structured"
)

// DefaultProcessors builds the native structured pipeline. With asJSON the
// pipeline terminates in the JSON renderer; otherwise in the colored console
// renderer. When the structured backend is not installed the result is empty,
// which callers must read as "structured logging unavailable", not "no
// processing needed".
func DefaultProcessors(caps backend.Set, asJSON bool) []structured.Processor {
	if !caps.Has(backend.Structured) {
		return nil
	}
	if asJSON {
		return []structured.Processor{
			structured.MergeContextVars(),
			structured.AddLogLevel(),
			structured.FormatExcInfo(),
			structured.NewTimeStamper(nil),
			structured.NewJSONRenderer(nil),
		}
	}
	return []structured.Processor{
		structured.MergeContextVars(),
		structured.AddLogLevel(),
		structured.NewTimeStamper(nil),
		structured.NewConsoleRenderer(true, 1),
	}
}

// DefaultBridgeProcessors builds the pipeline applied when the structured
// backend formats records originating from a dict-configured backend. The
// event filter keeps console-only fields (color_message) out of
// machine-readable output.
func DefaultBridgeProcessors(caps backend.Set, asJSON bool) []structured.Processor {
	if !caps.Has(backend.Structured) {
		return nil
	}
	procs := []structured.Processor{
		structured.NewTimeStamper(nil),
		structured.AddLogLevel(),
		structured.AddExtraFields(),
		structured.NewEventFilter("color_message"),
		structured.RemoveProcessorsMeta(),
	}
	if asJSON {
		return append(procs, structured.NewJSONRenderer(nil))
	}
	return append(procs, structured.NewConsoleRenderer(true, 1))
}

// DefaultLoggerFactory picks the sink factory: byte-oriented for JSON output,
// text-oriented for console output. Nil when the structured backend is not
// installed.
func DefaultLoggerFactory(caps backend.Set, asJSON bool) structured.LoggerFactory {
	if !caps.Has(backend.Structured) {
		return nil
	}
	if asJSON {
		return structured.BytesLoggerFactory(nil)
	}
	return structured.WriteLoggerFactory(nil)
}
