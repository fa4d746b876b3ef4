package dto

import (
	"errors"
	"net/http"

	"github.com/boxibox/backend/internal/domain/shared"
)

// Error codes returned by the API
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeUnauthorized        = "ERR_UNAUTHORIZED"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRequestTimeout      = "ERR_REQUEST_TIMEOUT"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeRequestTimeout:      http.StatusGatewayTimeout,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps shared domain codes to API codes
var domainCodeMapping = map[string]string{
	shared.CodeNotFound:           ErrCodeNotFound,
	shared.CodeAlreadyExists:      ErrCodeAlreadyExists,
	shared.CodeInvalidInput:       ErrCodeInvalidInput,
	shared.CodeInvalidState:       ErrCodeInvalidState,
	shared.CodeConcurrency:        ErrCodeConcurrencyConflict,
	shared.CodeOptimisticLockFail: ErrCodeConcurrencyConflict,
}

// NormalizeErrorCode converts a shared domain code to the API format.
// Bounded-context codes such as NOT_RECURRING are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := domainCodeMapping[code]; ok {
		return newCode
	}
	return code
}

// StatusForKind returns the HTTP status of a domain error kind
func StatusForKind(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindState:
		return http.StatusUnprocessableEntity
	case shared.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// MapError converts an error into an HTTP status and error info.
// Errors that are not domain errors are reported as internal without
// exposing their message.
func MapError(err error) (int, ErrorInfo) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, ErrorInfo{
			Code:    ErrCodeInternal,
			Message: "An unexpected error occurred",
		}
	}

	code := NormalizeErrorCode(domainErr.Code)
	status := StatusForKind(domainErr.Kind)
	if domainErr.Kind == shared.KindGeneric || domainErr.Kind == "" {
		status = GetHTTPStatus(code)
	}
	return status, ErrorInfo{Code: code, Message: domainErr.Message}
}
