package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNetwork      ErrorCode = "NETWORK"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeServer       ErrorCode = "SERVER_ERROR"
	ErrCodeUnknown      ErrorCode = "UNKNOWN"

	// Client-side classifications that never come from the wire.
	ErrCodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidQuantity  ErrorCode = "INVALID_QUANTITY"
	ErrCodeQuantityExceeded ErrorCode = "QUANTITY_EXCEEDED"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorCode exposes the classification so CodeOf can read it through wrapping.
func (e *Error) ErrorCode() ErrorCode {
	if e == nil {
		return ErrCodeUnknown
	}
	return e.Code
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrNotAuthenticated  = NewError(ErrCodeUnauthenticated, "no active session")
	ErrNoRefreshToken    = NewError(ErrCodeUnauthenticated, "no refresh token available")
	ErrAdminRequired     = NewError(ErrCodeForbidden, "administrator privileges required")
	ErrItemNotInCart     = NewError(ErrCodeNotFound, "item not in cart")
	ErrItemNotFound      = NewError(ErrCodeNotFound, "item not found")
	ErrEmptyCart         = NewError(ErrCodeValidation, "cart is empty")
	ErrInvalidQuantity   = NewError(ErrCodeInvalidQuantity, "invalid quantity")
	ErrQuantityExceeded  = NewError(ErrCodeQuantityExceeded, "maximum quantity per item exceeded")
	ErrInvalidItem       = NewError(ErrCodeInvalidQuantity, "item is invalid or unavailable")
	ErrInvalidCredential = NewError(ErrCodeValidation, "username and password are required")
)

type coder interface {
	ErrorCode() ErrorCode
}

// CodeOf returns the classification of err, looking through wrapped errors.
// Errors without a classification report ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ErrCodeUnknown
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
