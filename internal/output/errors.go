package output

import (
	"errors"
	"fmt"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

func ErrNoCredential() *Error {
	return &Error{
		Code:    CodeNoCredential,
		Message: "No access token set",
		Hint:    "Run: transitnet auth login",
	}
}

func ErrInvalidCredential(cause error) *Error {
	return &Error{
		Code:    CodeInvalidCred,
		Message: "Invalid access token",
		Hint:    "Run: transitnet auth login",
		Cause:   cause,
	}
}

// ErrClient wraps a 4xx response. Never retryable: the result won't change
// with a second request.
func ErrClient(status int, msg string) *Error {
	return &Error{
		Code:       CodeClient,
		Message:    msg,
		HTTPStatus: status,
	}
}

// ErrTransient wraps a 5xx response. Retryable once by the API client.
func ErrTransient(status int, msg string) *Error {
	return &Error{
		Code:       CodeTransient,
		Message:    msg,
		HTTPStatus: status,
		Retryable:  true,
	}
}

func ErrNetwork(cause error) *Error {
	return &Error{
		Code:      CodeNetwork,
		Message:   "Network error",
		Hint:      cause.Error(),
		Retryable: true,
		Cause:     cause,
	}
}

func ErrVerificationRequired(userID string) *Error {
	return &Error{
		Code:    CodeVerification,
		Message: fmt.Sprintf("Email verification required for %s", userID),
		Hint:    "Check your inbox, then run: transitnet auth login",
	}
}

// AsError attempts to convert an error to an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeClient,
		Message: err.Error(),
		Cause:   err,
	}
}
