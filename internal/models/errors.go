package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to API clients. Machine-readable; paired with a
// human-readable message. Internal paths and stack traces never leak
// into payloads.
const (
	KindSchemaMismatch  = "schema_mismatch"
	KindModelNotReady   = "model_not_ready"
	KindInvalidGeometry = "invalid_geometry"
	KindDegenerateInput = "degenerate_input"
	KindUpstreamData    = "upstream_data"
)

// SchemaMismatchError reports a feature vector or stack that does not
// match the model's expected shape or order. Fatal to the request.
type SchemaMismatchError struct {
	Expected string
	Got      string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature schema mismatch: expected %s, got %s", e.Expected, e.Got)
}

func (e *SchemaMismatchError) Kind() string { return KindSchemaMismatch }

// IsTransient returns false; the request must be corrected, not retried.
func (e *SchemaMismatchError) IsTransient() bool { return false }

// ModelNotReadyError reports a predict/explain call before any model
// was loaded or trained.
type ModelNotReadyError struct {
	Model string
}

func (e *ModelNotReadyError) Error() string {
	return fmt.Sprintf("model %s is not loaded or trained", e.Model)
}

func (e *ModelNotReadyError) Kind() string { return KindModelNotReady }

func (e *ModelNotReadyError) IsTransient() bool { return false }

// InvalidGeometryError reports a malformed or oversized area polygon.
// Raised before any imagery or model work begins.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid area geometry: %s", e.Reason)
}

func (e *InvalidGeometryError) Kind() string { return KindInvalidGeometry }

func (e *InvalidGeometryError) IsTransient() bool { return false }

// DegenerateInputError reports a statistic over zero valid samples.
type DegenerateInputError struct {
	Statistic string
	Reason    string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input for %s: %s", e.Statistic, e.Reason)
}

func (e *DegenerateInputError) Kind() string { return KindDegenerateInput }

func (e *DegenerateInputError) IsTransient() bool { return false }

// UpstreamDataError reports a failed external data provider. The core
// classifies and propagates; it never retries internally.
type UpstreamDataError struct {
	Provider string
	Err      error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("upstream provider %s failed: %v", e.Provider, e.Err)
}

func (e *UpstreamDataError) Unwrap() error { return e.Err }

func (e *UpstreamDataError) Kind() string { return KindUpstreamData }

// IsTransient returns true; upstream failures are retryable by the caller.
func (e *UpstreamDataError) IsTransient() bool { return true }

// ErrorKind extracts the machine-readable kind from a classified error,
// or "internal" for anything outside the taxonomy.
func ErrorKind(err error) string {
	type kinder interface{ Kind() string }
	for e := err; e != nil; e = errors.Unwrap(e) {
		if k, ok := e.(kinder); ok {
			return k.Kind()
		}
	}
	return "internal"
}

// IsTransient reports whether an error is retryable by the caller.
func IsTransient(err error) bool {
	type transient interface{ IsTransient() bool }
	for e := err; e != nil; e = errors.Unwrap(e) {
		if t, ok := e.(transient); ok {
			return t.IsTransient()
		}
	}
	return false
}
