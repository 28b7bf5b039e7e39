package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures for callers. Every error leaving the
// gateway client carries exactly one kind; the raw transport error is
// retained for logging only.
type ErrorKind string

const (
	// ErrConfiguration means required API credentials are missing. Fatal,
	// reported once at startup, never retried per call.
	ErrConfiguration ErrorKind = "CONFIGURATION"
	// ErrValidation is an HTTP 400 from the gateway, carrying field-level
	// detail when the gateway supplied one.
	ErrValidation ErrorKind = "VALIDATION"
	// ErrAuth is an HTTP 401; a configuration problem, not user input.
	ErrAuth ErrorKind = "AUTH"
	// ErrGatewayServer is an HTTP 5xx; the user should retry later.
	ErrGatewayServer ErrorKind = "GATEWAY_SERVER"
	// ErrConnectivity means no response was received at all.
	ErrConnectivity ErrorKind = "CONNECTIVITY"
	// ErrStructural means a successful response lacked an expected field;
	// a gateway contract violation, distinct from validation.
	ErrStructural ErrorKind = "STRUCTURAL"
)

// Error is the single typed error surfaced by the gateway client. Message is
// user-facing; Code carries the gateway's own error code when one was given.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a classified gateway error.
func NewError(kind ErrorKind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// KindOf returns the kind of a gateway error, or an empty kind for other
// errors.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}

// IsKind reports whether err is a gateway error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// UserMessage returns the user-facing message of a gateway error, or a
// generic fallback for anything else.
func UserMessage(err error) string {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return "Payment processing failed. Please try again."
}
