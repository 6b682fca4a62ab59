package shared

import (
	"errors"
	"fmt"
)

// Category groups error codes into the classes callers act on.
type Category string

const (
	CategoryNotFound          Category = "NOT_FOUND"
	CategoryInsufficientStock Category = "INSUFFICIENT_STOCK"
	CategoryInvalidState      Category = "INVALID_STATE"
	CategoryInvalidArgument   Category = "INVALID_ARGUMENT"
	CategoryContention        Category = "CONTENTION"
	CategoryUnexpected        Category = "UNEXPECTED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels compare equal.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying an extra detail entry.
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_ARGUMENT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrContention          = NewDomainError("CONTENTION", "Resource is busy, retry the operation")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrUnexpected          = NewDomainError("UNEXPECTED", "An unexpected error occurred")
)

// codeCategories maps every code produced by the domain to its category.
var codeCategories = map[string]Category{
	"NOT_FOUND":            CategoryNotFound,
	"ITEM_NOT_FOUND":       CategoryNotFound,
	"CUSTOMER_NOT_FOUND":   CategoryNotFound,
	"BILL_NOT_FOUND":       CategoryNotFound,
	"DOCUMENT_NOT_FOUND":   CategoryNotFound,
	"INSUFFICIENT_STOCK":   CategoryInsufficientStock,
	"ITEM_INACTIVE":        CategoryInsufficientStock,
	"INVALID_STATE":        CategoryInvalidState,
	"INVALID_ARGUMENT":     CategoryInvalidArgument,
	"INVALID_QUANTITY":     CategoryInvalidArgument,
	"INVALID_DISCOUNT":     CategoryInvalidArgument,
	"INVALID_PRICE":        CategoryInvalidArgument,
	"INVALID_TAX_RATE":     CategoryInvalidArgument,
	"EMPTY_BILL":           CategoryInvalidArgument,
	"ALREADY_EXISTS":       CategoryInvalidArgument,
	"CONTENTION":           CategoryContention,
	"CONCURRENCY_CONFLICT": CategoryContention,
	"UNEXPECTED":           CategoryUnexpected,
}

// CategoryOf classifies err. Anything that is not a known DomainError is
// Unexpected.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	var de *DomainError
	if !errors.As(err, &de) {
		return CategoryUnexpected
	}
	if c, ok := codeCategories[de.Code]; ok {
		return c
	}
	return CategoryUnexpected
}

// IsRetryable reports whether the whole operation may be attempted again.
func IsRetryable(err error) bool {
	return CategoryOf(err) == CategoryContention
}

// IsConflict reports whether err is an optimistic lock conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
