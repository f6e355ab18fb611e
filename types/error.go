package types

import "fmt"

// ErrorCode represents a unified error code across the scanner.
type ErrorCode string

// Browser and navigation error codes
const (
	ErrNavigation     ErrorCode = "NAVIGATION"
	ErrNavTimeout     ErrorCode = "NAV_TIMEOUT"
	ErrEvaluate       ErrorCode = "EVALUATE"
	ErrScreenshot     ErrorCode = "SCREENSHOT"
	ErrBrowserStartup ErrorCode = "BROWSER_STARTUP"
)

// Oracle error codes
const (
	ErrOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"
	ErrOracleRateLimited ErrorCode = "ORACLE_RATE_LIMITED"
	ErrOracleUpstream    ErrorCode = "ORACLE_UPSTREAM"
	ErrOracleParse       ErrorCode = "ORACLE_PARSE"
)

// Host error codes
const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrRunActive      ErrorCode = "RUN_ACTIVE"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates a structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a structured error around a cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithHTTPStatus attaches an HTTP status to the error.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}
