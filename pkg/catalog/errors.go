package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a product or category does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownAttribute is returned when writing an attribute the schema
	// does not define.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrStoreUnavailable marks failures where the store could not answer.
	// Callers may retry these.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError wraps a failed store operation. It matches both
// ErrStoreUnavailable and the underlying cause with errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// Unavailable wraps err as a StoreError for op. A nil err stays nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsRetryable reports whether err is a transient store failure, including
// an expired request deadline.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
