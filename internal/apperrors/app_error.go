package apperrors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Error codes of the closed application taxonomy
const (
	CodeDuplicateEntry      = "DUPLICATE_ENTRY"
	CodeForeignKeyViolation = "FOREIGN_KEY_VIOLATION"
	CodeNotFound            = "NOT_FOUND"
	CodeDatabase            = "DATABASE_ERROR"
	CodeNetwork             = "NETWORK_ERROR"
	CodeValidation          = "VALIDATION_ERROR"
	CodeAuthentication      = "AUTHENTICATION_ERROR"
	CodeAuthorization       = "AUTHORIZATION_ERROR"
	CodeRateLimited         = "RATE_LIMITED"
	CodeCanceled            = "REQUEST_CANCELED" // caller gave up; never tracked
	CodeUnknown             = "UNKNOWN_ERROR"

	// apiErrorPrefix is followed by the HTTP status, e.g. API_ERROR_503
	apiErrorPrefix = "API_ERROR_"
)

// AppError is a classified failure. Callers branch on Code; only Message is
// meant for end users.
type AppError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the original failure
func (e *AppError) Unwrap() error {
	return e.cause
}

// New creates an AppError without an underlying cause
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Timestamp: time.Now()}
}

// Wrap creates an AppError around cause
func Wrap(cause error, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Timestamp: time.Now(), cause: cause}
}

// WithDetail attaches a detail key and returns e
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// APIErrorCode builds the code for an HTTP error status
func APIErrorCode(status int) string {
	return apiErrorPrefix + strconv.Itoa(status)
}

// HTTPStatus extracts the status from an API_ERROR_<status> code
func HTTPStatus(code string) (int, bool) {
	if !strings.HasPrefix(code, apiErrorPrefix) {
		return 0, false
	}
	status, err := strconv.Atoi(strings.TrimPrefix(code, apiErrorPrefix))
	if err != nil {
		return 0, false
	}
	return status, true
}

// As unwraps err to an *AppError if it carries one
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the classified code of err, or "" if it was never classified
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

// StatusCoder is implemented by failures that carry an HTTP response status
type StatusCoder interface {
	StatusCode() int
}
