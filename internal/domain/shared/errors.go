package shared

import "fmt"

// Error codes shared by every bounded context
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeInvalidState            = "INVALID_STATE"
	CodeNotFound                = "NOT_FOUND"
	CodeArithmeticInconsistency = "ARITHMETIC_INCONSISTENCY"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeConflict                = "CONFLICT"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details carries structured context (e.g. current/requested status)
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewInvalidTransitionError reports an illegal status change on a document.
// The document is expected to be left untouched by the caller.
func NewInvalidTransitionError(docType, current, requested string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Cannot transition %s from %s to %s", docType, current, requested),
		Details: map[string]string{
			"current":   current,
			"requested": requested,
		},
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists     = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput      = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidTransition = NewDomainError(CodeInvalidTransition, "Status transition not allowed")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConflict          = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrInvalidToken      = NewDomainError(CodeInvalidToken, "Approval token is invalid")
	ErrUnauthorized      = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden         = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInconsistentTotal = NewDomainError(CodeArithmeticInconsistency, "Stored total does not match recomputed total")
	ErrLockNotObtained   = NewDomainError(CodeConflict, "Another request is already working on this document")
)
