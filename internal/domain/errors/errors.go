package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvoiceNotPending = errors.New("invoice is not pending")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrAttemptNotFound   = errors.New("payment attempt not found")
	ErrUnsupportedChain  = errors.New("unsupported chain")
	ErrUnsupportedToken  = errors.New("unsupported token")
)

// Error codes rendered in response bodies
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeOperationFailed = "OPERATION_FAILED"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvoiceNotFound = "INVOICE_NOT_FOUND"
	CodeProfileNotFound = "PROFILE_NOT_FOUND"
	CodePaymentFailed   = "PAYMENT_FAILED"
	CodeAttemptNotFound = "PAYMENT_ATTEMPT_NOT_FOUND"
	CodeNotPayable      = "INVOICE_NOT_PAYABLE"
	CodeLowBalance      = "INSUFFICIENT_BALANCE"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(code, message string) *AppError {
	return NewAppError(http.StatusNotFound, code, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, err)
}

// Failure wraps a store or provider error behind a generic message safe to show users.
func Failure(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeOperationFailed, message, err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
