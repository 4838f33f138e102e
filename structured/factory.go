package structured

import (
	"io"
	"os"
	"sync"
)

// WrappedLogger is the sink a bound logger writes rendered entries to.
type WrappedLogger interface {
	WriteEntry(line []byte) error
}

// LoggerFactory produces the sink for a named logger.
type LoggerFactory func(name string) WrappedLogger

type writerSink struct {
	mu *sync.Mutex
	w  io.Writer
}

func (s *writerSink) WriteEntry(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return err
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		if _, err := s.w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}

// BytesLoggerFactory returns a factory whose sinks write rendered bytes (the
// JSON path) to w. A nil writer means stdout. All sinks from one factory share
// a mutex so concurrent loggers never interleave lines.
func BytesLoggerFactory(w io.Writer) LoggerFactory {
	return sharedWriterFactory(w)
}

// WriteLoggerFactory returns a factory whose sinks write rendered text (the
// console path) to w. A nil writer means stdout.
func WriteLoggerFactory(w io.Writer) LoggerFactory {
	return sharedWriterFactory(w)
}

func sharedWriterFactory(w io.Writer) LoggerFactory {
	if w == nil {
		w = os.Stdout
	}
	mu := new(sync.Mutex)
	return func(string) WrappedLogger {
		return &writerSink{mu: mu, w: w}
	}
}
