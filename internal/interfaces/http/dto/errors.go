package dto

import (
	"errors"
	"net/http"

	"github.com/bookshop/backend/internal/domain/shared"
)

// Transport-level codes. Domain failures keep the domain error code.
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding rules fail
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBodyTooLarge is used when the request body exceeds the limit
	ErrCodeBodyTooLarge = "BODY_TOO_LARGE"
	// ErrCodeUnexpected is used for every failure outside the taxonomy
	ErrCodeUnexpected = "UNEXPECTED"
)

// unexpectedMessage is the only text an Unexpected failure ever exposes
const unexpectedMessage = "An unexpected error occurred"

// CategoryHTTPStatus maps error categories to HTTP status codes
var CategoryHTTPStatus = map[shared.Category]int{
	shared.CategoryNotFound:          http.StatusNotFound,
	shared.CategoryInsufficientStock: http.StatusUnprocessableEntity,
	shared.CategoryInvalidState:      http.StatusConflict,
	shared.CategoryInvalidArgument:   http.StatusBadRequest,
	shared.CategoryContention:        http.StatusConflict,
	shared.CategoryUnexpected:        http.StatusInternalServerError,
}

// codeHTTPStatus overrides the category status for individual codes
var codeHTTPStatus = map[string]int{
	"ALREADY_EXISTS": http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status for err
func GetHTTPStatus(err error) int {
	var de *shared.DomainError
	if errors.As(err, &de) {
		if status, ok := codeHTTPStatus[de.Code]; ok {
			return status
		}
	}
	if status, ok := CategoryHTTPStatus[shared.CategoryOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorInfoFor builds the response body for err. Unexpected errors are
// reported with a fixed message so internal detail never leaves the process.
func ErrorInfoFor(err error, requestID string) ErrorInfo {
	category := shared.CategoryOf(err)

	var de *shared.DomainError
	if category == shared.CategoryUnexpected || !errors.As(err, &de) {
		return ErrorInfo{
			Code:      ErrCodeUnexpected,
			Category:  string(shared.CategoryUnexpected),
			Message:   unexpectedMessage,
			RequestID: requestID,
		}
	}

	return ErrorInfo{
		Code:      de.Code,
		Category:  string(category),
		Message:   de.Message,
		Retryable: shared.IsRetryable(err),
		RequestID: requestID,
		Details:   de.Details,
	}
}
