// Package backend defines the black-box contract every logging backend must
// satisfy, the backend kind enumeration, and the process-wide registry the
// capability probe queries.
//
// Backends enable themselves by calling Register from an init function, the
// same way database/sql drivers do; importing a backend package is what makes
// it "installed". Absence of an optional backend is an expected outcome, not
// an error, so Detect is a pure query with no failure mode.
package backend
