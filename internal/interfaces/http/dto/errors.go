package dto

import (
	"net/http"

	"github.com/fieldbook/backend/internal/domain/shared"
)

// Transport error codes. Domain errors keep the code they were raised with
// (shared.CodeValidation, shared.CodeNotFound, ...).
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked    = "TOKEN_REVOKED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input
	shared.CodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,

	// Lookup. An unknown or foreign approval token looks like a missing
	// change order so that tokens cannot be probed.
	shared.CodeNotFound:     http.StatusNotFound,
	shared.CodeInvalidToken: http.StatusNotFound,

	// Lifecycle and concurrency
	shared.CodeInvalidTransition: http.StatusConflict,
	shared.CodeInvalidState:      http.StatusConflict,
	shared.CodeAlreadyExists:     http.StatusConflict,
	shared.CodeConflict:          http.StatusConflict,

	// Auth
	shared.CodeUnauthorized: http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenRevoked:     http.StatusUnauthorized,

	// Limits
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	// Stored totals that disagree with their line items are a server fault
	shared.CodeArithmeticInconsistency: http.StatusInternalServerError,
	ErrCodeInternal:                    http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
