// Package apperrors defines the error taxonomy shared by the generation
// pipeline, the HTTP layer and the Go client.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for transport mapping
type ErrorCode string

const (
	CodeAuthenticationRequired ErrorCode = "AUTHENTICATION_REQUIRED"
	CodeUpstream               ErrorCode = "UPSTREAM_ERROR"
	CodeMalformedResponse      ErrorCode = "MALFORMED_RESPONSE"
	CodePersistence            ErrorCode = "PERSISTENCE_ERROR"
	CodeValidation             ErrorCode = "VALIDATION_FAILED"
	CodeNotFound               ErrorCode = "NOT_FOUND"
	CodeConflict               ErrorCode = "CONFLICT"
	CodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// AuthenticationRequiredError means the caller has no valid session or token
type AuthenticationRequiredError struct {
	Reason string
	Cause  error
}

func (e *AuthenticationRequiredError) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}
	return "authentication required: " + e.Reason
}

func (e *AuthenticationRequiredError) Unwrap() error { return e.Cause }

// UpstreamError means the language-model endpoint could not be reached or
// answered with a non-success status. StatusCode is 0 for transport failures.
type UpstreamError struct {
	StatusCode int
	Status     string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("DeepSeek API request failed: %v", e.Cause)
		}
		return "DeepSeek API request failed"
	}
	return fmt.Sprintf("DeepSeek API error: %d %s", e.StatusCode, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

// Retryable reports whether another attempt could succeed
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// MalformedResponseError means the model output failed structural validation
type MalformedResponseError struct {
	Reason string
	Cause  error
}

func (e *MalformedResponseError) Error() string {
	return "Invalid response format from DeepSeek API: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }

// PersistenceError means generated recipes could not be stored
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return "Failed to save recipes to database"
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// ValidationError reports invalid caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing resource
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError reports a uniqueness violation
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewValidation is shorthand for a ValidationError
func NewValidation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound is shorthand for a NotFoundError
func NewNotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// Code returns the classification of err
func Code(err error) ErrorCode {
	var (
		authErr      *AuthenticationRequiredError
		upstreamErr  *UpstreamError
		malformedErr *MalformedResponseError
		persistErr   *PersistenceError
		validErr     *ValidationError
		notFoundErr  *NotFoundError
		conflictErr  *ConflictError
	)
	switch {
	case errors.As(err, &authErr):
		return CodeAuthenticationRequired
	case errors.As(err, &validErr):
		return CodeValidation
	case errors.As(err, &notFoundErr):
		return CodeNotFound
	case errors.As(err, &conflictErr):
		return CodeConflict
	case errors.As(err, &upstreamErr):
		return CodeUpstream
	case errors.As(err, &malformedErr):
		return CodeMalformedResponse
	case errors.As(err, &persistErr):
		return CodePersistence
	default:
		return CodeInternal
	}
}

// StatusCode maps err to the HTTP status returned to clients. Pipeline
// failures other than authentication are all reported as 500.
func StatusCode(err error) int {
	switch Code(err) {
	case CodeAuthenticationRequired:
		return http.StatusUnauthorized
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text exposed in error responses. Unclassified errors
// are not echoed back to the caller.
func PublicMessage(err error) string {
	if Code(err) == CodeInternal {
		return "An unexpected error occurred"
	}
	return err.Error()
}
