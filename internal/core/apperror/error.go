// Package apperror provides structured error handling for the bookkeeping core.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by failure class.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400) - rejected before anything is written
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidRateFormat  = "INVALID_RATE_FORMAT"
	CodeUnbalancedEntries  = "UNBALANCED_ENTRIES"
	CodeUnknownVoucherType = "UNKNOWN_VOUCHER_TYPE"

	// Business rule violations (422)
	CodeBusinessRule = "BUSINESS_RULE_VIOLATION"
	CodeMissingGSTIN = "MISSING_GSTIN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeDuplicateVoucherNumber = "DUPLICATE_VOUCHER_NUMBER"

	// Saga outcomes (500) - something was written before the failure
	CodePartialWrite   = "PARTIAL_WRITE_FAILURE"
	CodeRollbackFailed = "ROLLBACK_FAILED"
)

// AppError is the standard error type for the service.
// It implements the error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, amounts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidRateFormat is returned when a GST rate expression cannot be parsed.
func NewInvalidRateFormat(rate string) *AppError {
	return &AppError{
		Code:       CodeInvalidRateFormat,
		Message:    "GST rate must be a number or two numbers joined by '+'",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"rate": rate},
	}
}

// NewUnbalancedEntries is returned when accounting rows do not sum to zero.
func NewUnbalancedEntries(sum int64) *AppError {
	return &AppError{
		Code:       CodeUnbalancedEntries,
		Message:    "Accounting entries must sum to zero",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"sum_minor_units": sum},
	}
}

// NewMissingGSTIN is returned when a purchase party ledger has no GSTIN.
func NewMissingGSTIN(ledger string) *AppError {
	return &AppError{
		Code:       CodeMissingGSTIN,
		Message:    "Party ledger has no GSTIN",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"ledger": ledger},
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422).
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicateVoucherNumber is a hard integrity failure: the sequencer issued a
// number that already exists for the (company, voucher type) pair.
func NewDuplicateVoucherNumber(number string) *AppError {
	return &AppError{
		Code:       CodeDuplicateVoucherNumber,
		Message:    "Voucher number already exists",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"voucher_number": number},
	}
}

// NewPartialWrite wraps a step failure that occurred after the voucher was
// persisted. Compensation ran and succeeded: nothing remains committed.
func NewPartialWrite(step string, err error) *AppError {
	return &AppError{
		Code:       CodePartialWrite,
		Message:    "Operation failed and was rolled back",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"failed_step": step},
		Err:        err,
	}
}

// NewRollbackFailed signals a compensation failure: stored data is inconsistent
// and requires manual reconciliation. Never auto-retried.
func NewRollbackFailed(step string, err error) *AppError {
	return &AppError{
		Code:       CodeRollbackFailed,
		Message:    "Rollback failed; data requires manual reconciliation",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"failed_compensation": step},
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsCode checks if error carries the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
