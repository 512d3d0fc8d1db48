// Package errs defines the two failure kinds surfaced to users: a precondition that was not met
// and a failed call to the generative capability.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports a precondition that blocked an operation.
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

// CapabilityError reports that the external completion capability failed, returned nothing or
// returned a payload that did not match the expected shape.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s capability failed", e.Capability)
	}
	return fmt.Sprintf("%s capability failed: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Capability wraps err as a CapabilityError. An error that already is one is returned as is.
func Capability(name string, err error) error {
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return err
	}
	return &CapabilityError{Capability: name, Err: err}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsCapability(err error) bool {
	var target *CapabilityError
	return errors.As(err, &target)
}
