package domain

import (
	"errors"
	"fmt"
)

// ErrPersistenceFailure is returned when a store operation fails during a mutation.
var ErrPersistenceFailure = errors.New("persistence failure")

// PersistenceError records which store operation failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistenceFailure, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailure, e.Err}
}

// NewPersistenceError wraps err as a failure of op.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// SideEffectFailure reports a best-effort operation that did not complete.
// It is not an error: the surrounding operation still succeeds.
type SideEffectFailure struct {
	Op  string
	Err error
}

func (f *SideEffectFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}
