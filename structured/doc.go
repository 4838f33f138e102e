// Package structured implements the processor-pipeline logging backend: an
// ordered sequence of transformation steps applied to every log event's field
// map before a terminal renderer emits it.
//
// The package owns the pipeline step implementations, the bound-logger engine,
// the logger factories that pick the output sink, and the bridge formatter
// used when structured rendering is applied to records that originate from a
// dict-configured backend. Step selection and ordering live in the root
// logweave package; everything here is mechanism.
package structured
