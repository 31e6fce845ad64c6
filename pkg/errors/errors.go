// Package errors provides the service error taxonomy.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	// Caller errors.
	CodeInvalidParam    ErrorCode = "invalid_param"
	CodeNotFound        ErrorCode = "not_found"
	CodeTooManyRequests ErrorCode = "too_many_requests"

	// Ingestion errors.
	CodeParseError ErrorCode = "parse_error"

	// External-dependency errors, raised only after the stage's retry
	// budget is exhausted.
	CodeEmbeddingUnavailable  ErrorCode = "embedding_unavailable"
	CodeIndexUnavailable      ErrorCode = "index_unavailable"
	CodeGenerationUnavailable ErrorCode = "generation_unavailable"

	CodeInternalError      ErrorCode = "internal_error"
	CodeServiceUnavailable ErrorCode = "service_unavailable"
	CodeUnknown            ErrorCode = "unknown"
)

// AppError is the error type crossing layer boundaries. Lower layers
// raise it once local retries are exhausted; upper layers propagate it
// unmodified to the HTTP boundary.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a human-readable detail message.
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// New creates an AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Newf creates an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err in an AppError.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeParseError:
		return http.StatusUnprocessableEntity
	case CodeEmbeddingUnavailable, CodeIndexUnavailable, CodeGenerationUnavailable, CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError converts err to an AppError, wrapping unknown errors.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
