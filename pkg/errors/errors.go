// Package errors provides custom error types for the assessmentsync system.
// These errors enable programmatic error checking, exit-status mapping for the
// scheduler, and improved debugging throughout the application.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As forward to the standard library so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the assessmentsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigurationMissing indicates a required setting is empty, so a run has nothing to do
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrSourceUnavailable indicates the external source could not be reached
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrReadFailed indicates a query against the external source failed after connecting
	ErrReadFailed = errors.New("read failed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// Exit statuses reported to the scheduler.
const (
	// ExitOK covers a completed run and a run skipped for missing configuration.
	ExitOK = 0
	// ExitSourceUnavailable is reported when the external source cannot be reached.
	// It is also the catch-all for failures that have no dedicated status.
	ExitSourceUnavailable = 1
	// ExitReadFailed is reported when reading the external table fails.
	ExitReadFailed = 4
)

// ExitCode maps an error returned by a sync run to the scheduler's status code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfigurationMissing):
		return ExitOK
	case errors.Is(err, ErrReadFailed):
		return ExitReadFailed
	default:
		return ExitSourceUnavailable
	}
}

// ConfigurationMissingError reports an empty setting that a run cannot proceed without.
type ConfigurationMissingError struct {
	Setting string
}

// Error implements the error interface
func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("%s not defined", e.Setting)
}

// Is implements errors.Is support
func (e *ConfigurationMissingError) Is(target error) bool {
	return target == ErrConfigurationMissing
}

// NewConfigurationMissingError creates a new ConfigurationMissingError
func NewConfigurationMissingError(setting string) *ConfigurationMissingError {
	return &ConfigurationMissingError{Setting: setting}
}

// SourceUnavailableError represents a failure to connect to the external source
type SourceUnavailableError struct {
	Driver string
	Host   string
	Err    error
}

// Error implements the error interface
func (e *SourceUnavailableError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("error while communicating with external %s database at %s: %v", e.Driver, e.Host, e.Err)
	}
	return fmt.Sprintf("error while communicating with external %s database: %v", e.Driver, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// NewSourceUnavailableError creates a new SourceUnavailableError
func NewSourceUnavailableError(driver, host string, err error) *SourceUnavailableError {
	return &SourceUnavailableError{Driver: driver, Host: host, Err: err}
}

// ReadError represents a query failure against an external table
type ReadError struct {
	Table string
	Err   error
}

// Error implements the error interface
func (e *ReadError) Error() string {
	return fmt.Sprintf("error reading data from external table %s: %v", e.Table, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ReadError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ReadError) Is(target error) bool {
	return target == ErrReadFailed
}

// NewReadError creates a new ReadError
func NewReadError(table string, err error) *ReadError {
	return &ReadError{Table: table, Err: err}
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "read", "update", "list", "open"
	Resource  string // "assign", "grade_items", "catalog", "store"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// ProcessError represents a failed command-level operation
type ProcessError struct {
	Operation string // What operation was being performed
	Command   string // The command that was executed
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *ProcessError) Error() string {
	return fmt.Sprintf("process error during %s (command: %s): %v", e.Operation, e.Command, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigurationMissing checks if a run stopped because a setting is empty
func IsConfigurationMissing(err error) bool {
	return errors.Is(err, ErrConfigurationMissing)
}

// IsSourceUnavailable checks if the external source could not be reached
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsReadError checks if reading the external source failed
func IsReadError(err error) bool {
	return errors.Is(err, ErrReadFailed)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}
