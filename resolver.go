package logweave

import (
	"fmt"
	"sync"

	"logweave/backend"
)

// GetLoggerFunc is the bound accessor a successful Configure returns. It is
// safe to call from arbitrarily many goroutines for the life of the process.
type GetLoggerFunc func(name string) backend.Logger

// Config is the contract both config models satisfy: configure the backend
// they resolve to and expose the uniform level-setting operation.
type Config interface {
	Configure() (GetLoggerFunc, error)
	SetLevel(logger backend.Logger, level backend.Level) error
}

// Resolver owns the Unconfigured to Configured transition. Configure may be
// called again and idempotently re-runs the whole resolution; the mutex keeps
// re-runs from interleaving. Before the first successful Configure every
// GetLogger call fails with ErrNotConfigured.
type Resolver struct {
	mu    sync.Mutex
	model Config
	get   GetLoggerFunc
}

// NewResolver returns a resolver in the Unconfigured state.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Configure runs the model's resolution and caches the returned accessor. A
// failed resolution leaves the previous state untouched.
func (r *Resolver) Configure(model Config) (GetLoggerFunc, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no logging config provided", ErrNotConfigured)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	get, err := model.Configure()
	if err != nil {
		return nil, err
	}
	r.model = model
	r.get = get
	return get, nil
}

// GetLogger returns a logger from the configured backend.
func (r *Resolver) GetLogger(name string) (backend.Logger, error) {
	r.mu.Lock()
	get := r.get
	r.mu.Unlock()
	if get == nil {
		return nil, fmt.Errorf("%w: call Configure with a logging config before requesting loggers", ErrNotConfigured)
	}
	return get(name), nil
}

// SetLevel dispatches to the configured model's level-setting mechanism.
func (r *Resolver) SetLevel(logger backend.Logger, level backend.Level) error {
	r.mu.Lock()
	model := r.model
	r.mu.Unlock()
	if model == nil {
		return fmt.Errorf("%w: call Configure before adjusting levels", ErrNotConfigured)
	}
	return model.SetLevel(logger, level)
}

var defaultResolver = NewResolver()

// Configure resolves the process-wide default resolver.
func Configure(model Config) (GetLoggerFunc, error) {
	return defaultResolver.Configure(model)
}

// GetLogger fetches a logger from the process-wide default resolver.
func GetLogger(name string) (backend.Logger, error) {
	return defaultResolver.GetLogger(name)
}

// SetLevel adjusts a logger through the process-wide default resolver.
func SetLevel(logger backend.Logger, level backend.Level) error {
	return defaultResolver.SetLevel(logger, level)
}
