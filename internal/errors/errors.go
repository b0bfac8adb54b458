// Package errors defines the closed set of domain error kinds exposed by the
// service layer and their mapping to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies one kind from the closed taxonomy.
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeInternal         ErrorCode = "INTERNAL_SERVER_ERROR"
)

// ServiceError is a classified domain error. Services return it for every
// expected failure; the boundary maps HTTPStatus and serializes
// {code, message, details}.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	Details    map[string]interface{}
	HTTPStatus int
	cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the root cause for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a structured detail field and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NotFound reports that a record or referenced entity does not exist.
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Conflict reports a uniqueness invariant violation.
func Conflict(message string) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: message, HTTPStatus: http.StatusConflict}
}

// ValidationFailed reports malformed or out-of-range input.
func ValidationFailed(message string) *ServiceError {
	return &ServiceError{Code: CodeValidationFailed, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Unauthorized reports a missing or unusable credential.
func Unauthorized(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// InvalidToken reports a credential that failed verification.
func InvalidToken(cause error) *ServiceError {
	return &ServiceError{
		Code:       CodeUnauthorized,
		Message:    "Invalid or expired token",
		HTTPStatus: http.StatusUnauthorized,
		cause:      cause,
	}
}

// Forbidden reports a valid identity without the required permission.
func Forbidden(message string) *ServiceError {
	return &ServiceError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// Internal reports an unexpected failure. The cause is attached for logging
// and never serialized to the caller.
func Internal(message string, cause error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, cause: cause}
}

// GetServiceError returns the ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// IsNotFound reports whether err is a NotFound domain error.
func IsNotFound(err error) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == CodeNotFound
}

// IsConflict reports whether err is a Conflict domain error.
func IsConflict(err error) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == CodeConflict
}
