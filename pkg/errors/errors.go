package errors

import (
	"fmt"
	"net/http"
)

// Common application errors
var (
	ErrNotFound        = NewNotFoundError("resource", "resource not found")
	ErrInvalidArgument = NewValidationError("", "invalid argument")
	ErrInternal        = NewInternalError("internal server error", nil)
	ErrUnavailable     = NewUnavailableError("service unavailable", nil)
)

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// HTTPStatus returns the HTTP status code for this error
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status code for this error
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// CorruptDataError represents a stored document that lost its expected shape
type CorruptDataError struct {
	Message string
	Err     error
}

// NewCorruptDataError creates a new corrupt data error
func NewCorruptDataError(message string, err error) *CorruptDataError {
	return &CorruptDataError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *CorruptDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *CorruptDataError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error
func (e *CorruptDataError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// UnavailableError represents a store or allocator that could not be reached
type UnavailableError struct {
	Message string
	Err     error
}

// NewUnavailableError creates a new unavailable error
func NewUnavailableError(message string, err error) *UnavailableError {
	return &UnavailableError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error
func (e *UnavailableError) HTTPStatus() int {
	return http.StatusServiceUnavailable
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error
func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// HTTPStatuser interface for errors that can provide an HTTP status code
type HTTPStatuser interface {
	HTTPStatus() int
}
