package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Sift error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS" // 409
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// SiftError represents a structured error with code, status, and details.
// A SiftError returned from an operation means nothing was saved.
type SiftError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SiftError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SiftError {
	return &SiftError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing (or not owned) resource.
func NewNotFound(kind, identifier string) *SiftError {
	return &SiftError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewNameAlreadyExists creates a 409 error for project name collisions.
func NewNameAlreadyExists(name string) *SiftError {
	return &SiftError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("project with name %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SiftError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SiftError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if err is (or wraps) a SiftError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SiftError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns the SiftError in err's chain, if any.
func As(err error) (*SiftError, bool) {
	var sErr *SiftError
	if stderrors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
