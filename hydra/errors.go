package hydra

// errors.go defines the structured errors returned by Hydra API handlers

import (
	"errors"
	"fmt"
)

// ErrResourceNotFound is returned by Router.Match when an IRI does not resolve to a resource route.
var ErrResourceNotFound = errors.New("resource not found")

// HydraError represents a structured error returned by an API handler.
type HydraError struct {
	// code is the error code, used to choose the HTTP status
	code ErrorCode

	// message is a human-readable error message
	message string

	// violations are the failed constraints (validation errors only)
	violations []Violation

	// wrapped is the optional underlying error
	wrapped error
}

func (e *HydraError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *HydraError) Code() ErrorCode         { return e.code }
func (e *HydraError) Unwrap() error           { return e.wrapped }
func (e *HydraError) Violations() []Violation { return e.violations }

// ErrorCode classifies HydraError values.
type ErrorCode string

const (
	ErrCodeMalformedRequest  ErrorCode = "malformed_request"
	ErrCodeUnauthorized      ErrorCode = "unauthorized"
	ErrCodeForbidden         ErrorCode = "forbidden"
	ErrCodeNotFound          ErrorCode = "not_found"
	ErrCodeConflict          ErrorCode = "conflict"
	ErrCodeUnsupportedMedia  ErrorCode = "unsupported_media_type"
	ErrCodeValidation        ErrorCode = "validation"
	ErrCodeRequestTooLarge   ErrorCode = "request_too_large"
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"
	ErrCodeInternal          ErrorCode = "internal"
)

// NewMalformedRequestError creates an error for requests that cannot be decoded.
func NewMalformedRequestError(msg string) error {
	return &HydraError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error (typically a JSON decoding error)
// as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &HydraError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewUnauthorizedError is used when the request carries no valid session token.
func NewUnauthorizedError(msg string) error {
	return &HydraError{code: ErrCodeUnauthorized, message: msg}
}

// WrapUnauthorizedError wraps a token verification failure.
func WrapUnauthorizedError(err error, msg string) error {
	return &HydraError{code: ErrCodeUnauthorized, message: msg, wrapped: err}
}

// NewForbiddenError is used when the authenticated user may not perform the operation.
func NewForbiddenError(msg string) error {
	return &HydraError{code: ErrCodeForbidden, message: msg}
}

// NewNotFoundError is used when the requested resource does not exist.
func NewNotFoundError(msg string) error {
	return &HydraError{code: ErrCodeNotFound, message: msg}
}

// NewConflictError is used when the operation conflicts with the state of the resource,
// e.g. deleting an author that still has books.
func NewConflictError(msg string) error {
	return &HydraError{code: ErrCodeConflict, message: msg}
}

// NewUnsupportedMediaTypeError is used when the request Content-Type is not accepted by the operation.
func NewUnsupportedMediaTypeError(msg string) error {
	return &HydraError{code: ErrCodeUnsupportedMedia, message: msg}
}

// NewValidationError creates a validation error carrying the failed constraints.
// It is returned to the client as a 422 ConstraintViolationList.
func NewValidationError(violations ...Violation) error {
	return &HydraError{
		code:       ErrCodeValidation,
		message:    violationsDescription(violations),
		violations: violations,
	}
}

// NewRateLimitError creates a rate limit exceeded error.
// - this is only used in the middleware
func NewRateLimitError(msg string) error {
	return &HydraError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
// - this is only used in the middleware
func NewRequestTooLargeError(msg string) error {
	return &HydraError{code: ErrCodeRequestTooLarge, message: msg}
}

// WrapInternalError wraps an unexpected failure.
// The message is logged but not returned to the client.
func WrapInternalError(err error, msg string) error {
	return &HydraError{code: ErrCodeInternal, message: msg, wrapped: err}
}
