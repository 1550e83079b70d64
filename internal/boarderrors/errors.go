// Package boarderrors provides sentinel and custom error types for the application.
package boarderrors

// ErrNotFound represents a "not found" error.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input fails validation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrConflict is the sentinel for conflict errors (e.g. duplicate vote, task already claimed).
var ErrConflict = &ConflictError{}

// ConflictError is a sentinel error for resource conflicts.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError with a custom message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "conflict"
}

// Is implements the error interface for error comparison.
func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)

	return ok
}

// ErrForbidden is the sentinel for ownership violations (e.g. releasing a task
// claimed by someone else, deleting another user's link).
var ErrForbidden = &ForbiddenError{}

// ForbiddenError is a sentinel error for operations the caller does not own.
type ForbiddenError struct {
	Message string
}

// NewForbiddenError creates a ForbiddenError with a custom message.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "forbidden"
}

// Is implements the error interface for error comparison.
func (e *ForbiddenError) Is(target error) bool {
	_, ok := target.(*ForbiddenError)

	return ok
}

// ErrRateLimited is the sentinel for rate-limit rejections on idea submission.
var ErrRateLimited = &RateLimitedError{}

// RateLimitedError is a sentinel error for exceeded submission quotas.
type RateLimitedError struct {
	Message string
}

// NewRateLimitedError creates a RateLimitedError with a custom message.
func NewRateLimitedError(message string) *RateLimitedError {
	return &RateLimitedError{Message: message}
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "rate limited"
}

// Is implements the error interface for error comparison.
func (e *RateLimitedError) Is(target error) bool {
	_, ok := target.(*RateLimitedError)

	return ok
}

// ErrUpstream is the sentinel for upstream provider failures that must surface
// to the client (e.g. the spec-generation model returning garbage twice).
var ErrUpstream = &UpstreamError{}

// UpstreamError is a sentinel error for external provider failures.
type UpstreamError struct {
	Message string
}

// NewUpstreamError creates an UpstreamError with a custom message.
func NewUpstreamError(message string) *UpstreamError {
	return &UpstreamError{Message: message}
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "upstream provider error"
}

// Is implements the error interface for error comparison.
func (e *UpstreamError) Is(target error) bool {
	_, ok := target.(*UpstreamError)

	return ok
}
