// internal/faults/faults.go
package faults

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected input. The operation that raised it
// left all state untouched; callers should not retry with the same inputs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports a lookup miss: unknown RG number, unknown
// transaction, or a chain that has already been fully superseded.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// StoreError wraps a failure to read or durably write the backing store.
// Fatal to the mutation that hit it; nothing was partially applied.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

func Store(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
