package twolevel

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by IntegrationError.
var (
	// ErrEmptyGrid is returned when no sample times were supplied.
	ErrEmptyGrid = errors.New("time grid is empty")
	// ErrNonMonotonicGrid is returned when sample times are not strictly ascending.
	ErrNonMonotonicGrid = errors.New("time grid is not strictly ascending")
	// ErrStepBudgetExhausted is returned when the adaptive solver runs out of steps.
	ErrStepBudgetExhausted = errors.New("adaptive step budget exhausted")
	// ErrStepTooSmall is returned when the adaptive step underflows the time resolution.
	ErrStepTooSmall = errors.New("adaptive step size below time resolution")
	// ErrNonFiniteState is returned when an amplitude becomes NaN or infinite.
	ErrNonFiniteState = errors.New("state contains NaN or infinite amplitude")
)

// ConfigurationError reports an invalid input value.
type ConfigurationError struct {
	// Field names the offending parameter.
	Field string
	// Value is the rejected value.
	Value any
	// Reason explains which constraint was violated.
	Reason string
	// Cause is an optional sentinel classifying the violation.
	Cause error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap exposes Cause to errors.Is.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// IntegrationError reports a failure of a single Evolve invocation.
type IntegrationError struct {
	// Step is the number of solver steps taken before the failure.
	Step int
	// Time is the integration time reached when the failure occurred.
	Time float64
	// Wrapped is the underlying cause.
	Wrapped error
}

// Error implements the error interface.
func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration failed at step %d (t=%g): %v", e.Step, e.Time, e.Wrapped)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}

// configError is a shorthand used by the validators in this package.
func configError(field string, value any, reason string) *ConfigurationError {
	return &ConfigurationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}
