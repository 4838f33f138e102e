package logweave

import (
	"fmt"
	"os"
	"strings"

	"logweave/backend"
)

// ExceptionPolicy governs whether an exception-logging handler is
// auto-populated during config defaulting.
type ExceptionPolicy string

const (
	// LogAlways logs every uncaught exception.
	LogAlways ExceptionPolicy = "always"
	// LogOnDebug logs uncaught exceptions only when the host runs in debug
	// mode. This is the default.
	LogOnDebug ExceptionPolicy = "debug"
	// LogNever disables exception logging; no handler is populated.
	LogNever ExceptionPolicy = "never"
)

// ConnectionContext identifies the connection an uncaught exception was
// raised on. It is the only call shape the host's exception notifier needs to
// supply.
type ConnectionContext struct {
	Type string
	Path string
}

// ExceptionHandler formats and emits an uncaught-exception traceback. The
// traceback arrives as ordered lines with the most specific frame last.
type ExceptionHandler func(logger backend.Logger, conn ConnectionContext, traceback []string)

// newExceptionHandler builds the default handler for either backend family.
// The first traceback line is import framing noise and is dropped from the
// tail budget; at most lineLimit lines nearest the fault site survive. The
// handler runs inside already-exceptional control flow and must never panic:
// emission failures degrade to a plain line on stderr.
func newExceptionHandler(isStructured bool, lineLimit int) ExceptionHandler {
	return func(logger backend.Logger, conn ConnectionContext, traceback []string) {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "exception logging failed (%v) on %s connection to route %s\n", r, conn.Type, conn.Path)
			}
		}()
		if logger == nil || len(traceback) == 0 {
			return
		}

		first := traceback[0]
		tail := traceback[1:]
		if lineLimit >= 0 && len(tail) > lineLimit {
			tail = tail[len(tail)-lineLimit:]
		}

		if isStructured {
			logger.Exception("Uncaught Exception",
				"connection_type", conn.Type,
				"path", conn.Path,
				"traceback", strings.Join(tail, ""),
			)
			return
		}
		stackTrace := first + strings.Join(tail, "")
		logger.Exception(fmt.Sprintf("exception raised on %s connection to route %s\n\n%s", conn.Type, conn.Path, stackTrace))
	}
}
