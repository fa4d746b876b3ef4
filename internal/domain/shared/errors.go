package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for callers that branch on failure category
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindState      ErrorKind = "state"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindGeneric    ErrorKind = "generic"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels compare equal
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindGeneric,
	}
}

// NewValidationError creates an error for input that violates a business rule
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindValidation}
}

// NewStateError creates an error for a transition that is not allowed from the current state
func NewStateError(message string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: message, Kind: KindState}
}

// NewNotFoundError creates an error for a missing referenced resource
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Kind:    KindNotFound,
	}
}

// Error codes shared across bounded contexts
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidState       = "INVALID_STATE"
	CodeConcurrency        = "CONCURRENCY_CONFLICT"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeOptimisticLockFail = "OPTIMISTIC_LOCK_FAILED"
)

// Common domain errors
var (
	ErrNotFound            = &DomainError{Code: CodeNotFound, Message: "Resource not found", Kind: KindNotFound}
	ErrAlreadyExists       = &DomainError{Code: CodeAlreadyExists, Message: "Resource already exists", Kind: KindConflict}
	ErrInvalidInput        = &DomainError{Code: CodeInvalidInput, Message: "Invalid input provided", Kind: KindValidation}
	ErrConcurrencyConflict = &DomainError{Code: CodeConcurrency, Message: "Resource was modified by another process", Kind: KindConflict}
	ErrInvalidState        = &DomainError{Code: CodeInvalidState, Message: "Operation not allowed in current state", Kind: KindState}
)

func kindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if !errors.As(err, &de) {
		return "", false
	}
	return de.Kind, true
}

// IsValidationError reports whether err is a validation domain error
func IsValidationError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// IsStateError reports whether err is an invalid state transition
func IsStateError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindState
}

// IsNotFound reports whether err signals a missing resource
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsConflict reports whether err is a concurrency or uniqueness conflict
func IsConflict(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConflict
}
