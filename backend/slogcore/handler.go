package slogcore

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"logweave/backend"
)

const defaultLayout = "{level} - {time} - {name} - {message}"

type formatter interface {
	format(rec backend.Record) ([]byte, error)
}

type lineFormatter struct {
	layout string
}

func (f lineFormatter) format(rec backend.Record) ([]byte, error) {
	line := f.layout
	line = strings.ReplaceAll(line, "{time}", rec.Time.UTC().Format(time.RFC3339))
	line = strings.ReplaceAll(line, "{level}", rec.Level.String())
	line = strings.ReplaceAll(line, "{name}", rec.Logger)
	line = strings.ReplaceAll(line, "{message}", rec.Message)

	var buf bytes.Buffer
	buf.Grow(len(line) + len(rec.Fields)*24)
	buf.WriteString(line)
	for _, key := range sortedFieldKeys(rec.Fields) {
		buf.WriteByte(' ')
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(fieldValue(rec.Fields[key]))
	}
	return buf.Bytes(), nil
}

type bridgeFormatter struct {
	rf backend.RecordFormatter
}

func (f bridgeFormatter) format(rec backend.Record) ([]byte, error) {
	return f.rf.FormatRecord(rec)
}

type handler interface {
	emit(rec backend.Record)
	close()
}

type streamHandler struct {
	mu  sync.Mutex
	w   io.Writer
	min backend.Level
	fmt formatter
}

func newStreamHandler(w io.Writer, min backend.Level, f formatter) *streamHandler {
	return &streamHandler{w: w, min: min, fmt: f}
}

func (h *streamHandler) emit(rec backend.Record) {
	if rec.Level < h.min {
		return
	}
	line, err := h.fmt.format(rec)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.w.Write(line) //nolint:errcheck // sink failures must not reach log call sites
	if len(line) == 0 || line[len(line)-1] != '\n' {
		h.w.Write([]byte{'\n'}) //nolint:errcheck
	}
}

func (h *streamHandler) close() {}

type queueItem struct {
	rec   backend.Record
	flush chan struct{}
}

// queueHandler decouples log-call latency from sink latency: emit enqueues and
// returns, a single background goroutine delivers to the downstream handlers.
// Enqueueing blocks when the buffer is full rather than dropping records.
type queueHandler struct {
	min      backend.Level
	fmt      formatter
	fallback io.Writer
	children []handler

	// mu orders enqueues against close: once closed is set no sender can be
	// inside a channel send, so closing ch is safe even with a logger racing
	// a reconfigure that retires this handler.
	mu     sync.Mutex
	closed bool

	ch        chan queueItem
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

func newQueueHandler(fallback io.Writer, min backend.Level, f formatter) *queueHandler {
	return &queueHandler{
		min:      min,
		fmt:      f,
		fallback: fallback,
		ch:       make(chan queueItem, 1024),
		done:     make(chan struct{}),
	}
}

func (h *queueHandler) start() {
	h.startOnce.Do(func() {
		go h.run()
	})
}

func (h *queueHandler) run() {
	defer close(h.done)
	for item := range h.ch {
		if item.flush != nil {
			close(item.flush)
			continue
		}
		if len(h.children) == 0 {
			h.deliverDirect(item.rec)
			continue
		}
		for _, child := range h.children {
			child.emit(item.rec)
		}
	}
}

// deliverDirect writes through the queue's own formatter when no downstream
// handlers were configured, so a bare queue listener still produces output.
func (h *queueHandler) deliverDirect(rec backend.Record) {
	line, err := h.fmt.format(rec)
	if err != nil {
		return
	}
	h.fallback.Write(line) //nolint:errcheck
	if len(line) == 0 || line[len(line)-1] != '\n' {
		h.fallback.Write([]byte{'\n'}) //nolint:errcheck
	}
}

func (h *queueHandler) emit(rec backend.Record) {
	if rec.Level < h.min {
		return
	}
	h.mu.Lock()
	if !h.closed {
		h.ch <- queueItem{rec: rec}
	}
	h.mu.Unlock()
}

// sync blocks until every record enqueued before the call has been delivered.
func (h *queueHandler) sync() {
	flushed := make(chan struct{})
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.ch <- queueItem{flush: flushed}
	h.mu.Unlock()
	<-flushed
}

func (h *queueHandler) close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		close(h.ch)
		<-h.done
	})
}

func sortedFieldKeys(fields map[string]any) []string {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fieldValue(v any) string {
	s := strings.TrimSpace(valueString(v))
	if s == "" || strings.ContainsAny(s, " =\"") {
		return strconv.Quote(s)
	}
	return s
}

func valueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.ReplaceAll(fmt.Sprint(val), "\n", " ")
	}
}
