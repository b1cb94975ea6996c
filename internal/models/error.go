package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication and credential reset errors
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrRateLimited           = errors.New("too many login attempts")
	ErrTokenInvalidOrExpired = errors.New("reset token is invalid or has expired")
	ErrNoMatchingAccount     = errors.New("no account matches the supplied email and phone")
	ErrDeliveryFailure       = errors.New("reset message could not be delivered")
	ErrPasswordMismatch      = errors.New("passwords do not match")

	// Registration errors
	ErrAlreadyRegistered  = errors.New("user is already registered")
	ErrRegistrationClosed = errors.New("registration is closed")
)

// RateLimitedError carries how long the caller must wait before another login attempt
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many login attempts, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// WaitMinutes rounds the remaining lockout up to whole minutes, never below 1
func (e *RateLimitedError) WaitMinutes() int {
	minutes := int(math.Ceil(e.RetryAfter.Minutes()))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// FieldError reports a validation failure tied to a single form field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrBadRequest
}

func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
