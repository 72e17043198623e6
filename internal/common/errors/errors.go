// Package errors provides the structured error type used across the registration service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Form and submission errors
const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeConsentRequired      ErrorCode = "CONSENT_REQUIRED"
	ErrCodeSubmissionInFlight   ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeUnknownField         ErrorCode = "UNKNOWN_FIELD"
	ErrCodeUnknownDocument      ErrorCode = "UNKNOWN_DOCUMENT"
	ErrCodeRegistrarUnreachable ErrorCode = "REGISTRAR_UNREACHABLE"
	ErrCodeRegistrarHTTPError   ErrorCode = "REGISTRAR_HTTP_ERROR"
	ErrCodeRegistrarRejected    ErrorCode = "REGISTRAR_REJECTED"
	ErrCodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionStoreFailed   ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewValidationFailedError reports field-level validation failures.
func NewValidationFailedError(fields []string) *StandardError {
	e := newError(ErrCodeValidationFailed, "Form validation failed",
		fmt.Sprintf("fields: %s", strings.Join(fields, ", ")), false, nil)
	e.Metadata = map[string]interface{}{"fields": fields}
	return e
}

// NewConsentRequiredError reports a submit without data-processing consent.
func NewConsentRequiredError(message string) *StandardError {
	return newError(ErrCodeConsentRequired, message, "", false, nil)
}

// NewSubmissionInFlightError rejects a submit while another one is pending.
func NewSubmissionInFlightError(sessionID string) *StandardError {
	return newError(ErrCodeSubmissionInFlight, "A submission is already in progress",
		fmt.Sprintf("sessionId: %s", sessionID), true, nil)
}

// NewUnknownFieldError reports a field that is not part of the form.
func NewUnknownFieldError(field string) *StandardError {
	return newError(ErrCodeUnknownField, "Unknown form field",
		fmt.Sprintf("field: %s", field), false, nil)
}

// NewUnknownDocumentError reports a document the form cannot display.
func NewUnknownDocumentError(documentID string) *StandardError {
	return newError(ErrCodeUnknownDocument, "Unknown document",
		fmt.Sprintf("documentId: %s", documentID), false, nil)
}

// NewRegistrarUnreachableError wraps a transport failure talking to the registrar API.
func NewRegistrarUnreachableError(err error) *StandardError {
	return newError(ErrCodeRegistrarUnreachable, "Registrar API unreachable", err.Error(), true, err)
}

// NewRegistrarHTTPError reports a non-2xx or unreadable registrar response.
func NewRegistrarHTTPError(statusCode int, details string) *StandardError {
	e := newError(ErrCodeRegistrarHTTPError, "Registrar API returned an error", details, true, nil)
	e.Metadata = map[string]interface{}{"statusCode": statusCode}
	return e
}

// NewRegistrarRejectedError reports an application-level rejection (code != 0).
func NewRegistrarRejectedError(code *int, message string) *StandardError {
	e := newError(ErrCodeRegistrarRejected, "Registrar API rejected the registration", message, false, nil)
	if code != nil {
		e.Metadata = map[string]interface{}{"registrarCode": *code}
	}
	return e
}

// NewSessionNotFoundError reports a missing or expired form session.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Form session not found",
		fmt.Sprintf("sessionId: %s", sessionID), false, nil)
}

// NewSessionStoreError wraps a session backend failure.
func NewSessionStoreError(op string, err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store operation failed",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true, err)
}

// NewInvalidRequestError reports a malformed API request body.
func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false, nil)
}

// AsStandardError unwraps err into a *StandardError when it carries one.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always returns a StandardError, wrapping unknown errors as internal.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// HTTPStatus maps an error code to the status the JSON API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeConsentRequired:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidRequest, ErrCodeUnknownField:
		return http.StatusBadRequest
	case ErrCodeUnknownDocument, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeSubmissionInFlight:
		return http.StatusConflict
	case ErrCodeRegistrarUnreachable, ErrCodeRegistrarHTTPError, ErrCodeRegistrarRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "REGISTRAR"):
		return "REGISTRAR"
	case strings.HasPrefix(codeStr, "SESSION"):
		return "SESSION"
	case code == ErrCodeValidationFailed, code == ErrCodeConsentRequired,
		code == ErrCodeUnknownField, code == ErrCodeInvalidRequest:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
