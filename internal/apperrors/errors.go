package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// AppError is an error with an HTTP status. Operational errors carry a
// message that is safe to show to clients.
type AppError struct {
	StatusCode  int    `json:"-"`
	Status      string `json:"status"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	Operational bool   `json:"-"`
	Cause       error  `json:"-"`
	File        string `json:"file,omitempty"`
	Line        int    `json:"line,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Origin returns file:line of the constructor call site.
func (e *AppError) Origin() string {
	if e.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", e.File, e.Line)
}

const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeDuplicate       = "DUPLICATE_KEY"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// StatusWord is "fail" for client errors and "error" for everything else.
func StatusWord(statusCode int) string {
	if statusCode >= 400 && statusCode < 500 {
		return "fail"
	}
	return "error"
}

func newAppError(skip, statusCode int, code, message string, cause error, operational bool) *AppError {
	_, file, line, _ := runtime.Caller(skip)
	return &AppError{
		StatusCode:  statusCode,
		Status:      StatusWord(statusCode),
		Code:        code,
		Message:     message,
		Operational: operational,
		Cause:       cause,
		File:        file,
		Line:        line,
	}
}

// New creates an operational error with the given status.
func New(statusCode int, message string) *AppError {
	return newAppError(2, statusCode, codeFor(statusCode), message, nil, true)
}

func NotFound(message string) *AppError {
	return newAppError(2, http.StatusNotFound, ErrCodeNotFound, message, nil, true)
}

func BadRequest(message string) *AppError {
	return newAppError(2, http.StatusBadRequest, ErrCodeInvalidInput, message, nil, true)
}

func Unauthorized(message string) *AppError {
	return newAppError(2, http.StatusUnauthorized, ErrCodeUnauthorized, message, nil, true)
}

func Forbidden(message string) *AppError {
	return newAppError(2, http.StatusForbidden, ErrCodeForbidden, message, nil, true)
}

func TooManyRequests(message string) *AppError {
	return newAppError(2, http.StatusTooManyRequests, ErrCodeTooManyRequests, message, nil, true)
}

// Internal is a 500 whose message is still shown to clients.
func Internal(message string, cause error) *AppError {
	return newAppError(2, http.StatusInternalServerError, ErrCodeInternal, message, cause, true)
}

// Wrap turns an unexpected error into a non-operational 500.
func Wrap(err error) *AppError {
	return newAppError(2, http.StatusInternalServerError, ErrCodeInternal, err.Error(), err, false)
}

func codeFor(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidInput
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusRequestEntityTooLarge:
		return ErrCodePayloadTooLarge
	case http.StatusTooManyRequests:
		return ErrCodeTooManyRequests
	default:
		return ErrCodeInternal
	}
}

// CastError reports a value that cannot be converted to the type of path,
// typically a malformed ObjectID.
type CastError struct {
	Path  string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cast to ObjectId failed for value %q at path %q", e.Value, e.Path)
}

// ValidationError collects human readable messages from domain validation.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ". ")
}

// ErrNotFound is returned by repositories when no document matches.
var ErrNotFound = errors.New("document not found")
