package backend

import "time"

// Logger is the minimal surface every backend logger exposes. Args are
// alternating key/value pairs in the slog style; dict-configured backends may
// flatten them into the formatted line while the structured backend merges
// them into the event map.
type Logger interface {
	Log(level Level, msg string, args ...any)
	Exception(msg string, args ...any)
	SetLevel(level Level)
}

// Backend is the black-box contract the resolver drives. Configuration entry
// points are kind-specific (see DictBackend and the structured engine) because
// the call shapes differ: dict backends take one nested settings map, the
// structured backend takes a keyword set.
type Backend interface {
	Kind() Kind
	GetLogger(name string) Logger
}

// DictBackend is a backend configured through a single nested settings map
// applied in one call.
type DictBackend interface {
	Backend
	Configure(settings map[string]any) error
}

// Record is the normalized shape of one log event crossing the bridge from a
// dict-configured backend into an external record formatter.
type Record struct {
	Time    time.Time
	Level   Level
	Logger  string
	Message string
	Fields  map[string]any
}

// RecordFormatter renders a Record to its final byte form. The structured
// backend's bridge formatter implements this; dict backends call it whenever a
// formatter descriptor carries a "()" factory instead of a format string.
type RecordFormatter interface {
	FormatRecord(rec Record) ([]byte, error)
}
