package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist in the backend
	ErrNotFound = errors.New("record not found")

	// ErrReadOnly is returned when assigning to a read-only field or saving a read-only model
	ErrReadOnly = errors.New("read-only")

	// ErrUnknownField is returned when a field is not defined on the model
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownReference is returned when a reference is not defined on the model
	ErrUnknownReference = errors.New("unknown reference")

	// ErrNotLoaded is returned when an operation needs a loaded record
	ErrNotLoaded = errors.New("model is not loaded")

	// ErrEmptyID is returned when loading with a nil or empty identity
	ErrEmptyID = errors.New("empty id")

	// ErrConfiguration matches every *ConfigurationError via errors.Is
	ErrConfiguration = errors.New("invalid model configuration")
)

// ConfigurationError reports a structurally invalid field or reference declaration.
// It is a programmer error and is not meant to be retried.
type ConfigurationError struct {
	Model   string
	Subject string
	Reason  string
	Err     error
}

// NewConfigurationError creates a configuration error for subject on model
func NewConfigurationError(model, subject, reason string) *ConfigurationError {
	return &ConfigurationError{Model: model, Subject: subject, Reason: reason}
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("model %s: %s: %s", e.Model, e.Subject, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrConfiguration as a match
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Unwrap returns the underlying cause
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a backend failure. The cause is not interpreted.
type PersistenceError struct {
	Op    string
	Model string
	ID    any
	Err   error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s %s %v: %v", e.Op, e.Model, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Model, e.Err)
}

// Unwrap returns the backend error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConfiguration returns true if the error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsReadOnly returns true if the error is ErrReadOnly
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}

// IsPersistence returns true if err carries a *PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
