// Package zaplog is the optional high-performance dict-configured logging
// backend, built on go.uber.org/zap. It accepts the same nested settings map
// as the standard backend but with zap handler classes; the queue listener
// maps onto a buffered write syncer so call sites stay off the sink's latency
// path.
//
// Importing the package registers the backend, which is what makes the
// capability probe report it as installed. The backend does not support
// incremental configuration; the config model's compile step never forwards
// that field here.
package zaplog
