package engine

import (
	"errors"
	"fmt"
)

// ErrLockTimeout means another instance holds the startup lock. The run is
// skipped on the assumption that the holder is doing the same work; the
// hosting process starts anyway.
var ErrLockTimeout = errors.New("startup lock not acquired within timeout")

// ErrDisabled means reconciliation was switched off in config.
var ErrDisabled = errors.New("reconciliation disabled by config")

// IntrospectionError means live metadata could not be read (connectivity,
// permissions). Fatal to the run only: the schema is assumed unchanged and
// the process still starts.
type IntrospectionError struct {
	Err error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("live schema introspection failed: %v", e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// OperationError is a single statement failing for a reason other than
// already-exists. It is isolated to its operation and never aborts siblings.
type OperationError struct {
	Table  string
	Object string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation failed on %s.%s: %v", e.Table, e.Object, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }
