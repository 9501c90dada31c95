// Package shared contains common domain types and errors that are used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")
	ErrRetryExhausted         = errors.New("retry budget exhausted")

	// Store / external errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "leaderboard", "user", "course"
	Op      string // Operation that failed, e.g., "Submit", "Create"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidEmail      = NewDomainError("user", "Validate", ErrInvalidFormat, "invalid email address")
	ErrWeakPassword      = NewDomainError("user", "Validate", ErrInvalidInput, "password too short")
)

// Course catalog domain errors
var (
	ErrCourseNotFound  = NewDomainError("course", "Find", ErrNotFound, "course not found")
	ErrSubjectNotFound = NewDomainError("course", "FindSubject", ErrNotFound, "subject not found")
	ErrLessonNotFound  = NewDomainError("course", "FindLesson", ErrNotFound, "lesson not found")
	ErrTestNotFound    = NewDomainError("course", "FindTest", ErrNotFound, "test not found")
	ErrDuplicateCode   = NewDomainError("course", "CreateSubject", ErrAlreadyExists, "subject code already exists")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrStorageUnavailable  = NewDomainError("leaderboard", "Persist", ErrServiceUnavailable, "score store unavailable")
	ErrUpdateConflict      = NewDomainError("leaderboard", "Persist", ErrOptimisticLock, "leaderboard changed concurrently")
	ErrConcurrentUpdateExhausted = NewDomainError(
		"leaderboard", "Persist", ErrRetryExhausted, "concurrent update retry budget exhausted")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConflict checks if the error is an optimistic-concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		IsConflict(err)
}
