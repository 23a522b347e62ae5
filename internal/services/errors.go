package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures at component boundaries. The HTTP layer maps
// kinds to status codes; services never pick status codes themselves.
type ErrorKind string

const (
	ErrKindUnauthenticated  ErrorKind = "unauthenticated"
	ErrKindInvalidArgument  ErrorKind = "invalid-argument"
	ErrKindNotFound         ErrorKind = "not-found"
	ErrKindPermissionDenied ErrorKind = "permission-denied"
	ErrKindInternal         ErrorKind = "internal"
)

// AppError carries an error kind across service boundaries
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError without an underlying cause
func NewAppError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// WrapInternal wraps an unexpected storage/gateway failure
func WrapInternal(message string, err error) *AppError {
	return &AppError{Kind: ErrKindInternal, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to internal for plain errors
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrKindInternal
}
