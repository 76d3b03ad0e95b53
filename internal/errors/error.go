package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the single error type surfaced by the payment pipeline.
type Error struct {
	Code    ErrorCode      // Machine-readable error code
	Message string         // Human-readable message
	Details map[string]any // Amounts, fees, facilitators tried
	Err     error          // Underlying cause
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by code, so errors.Is(err, ErrFeeMismatch) works
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Code == e.Code
}

// Retryable reports whether the next facilitator may succeed.
func (e *Error) Retryable() bool {
	return e.Code.IsRetryable()
}

// WithDetail returns a copy of the error with an extra detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// Sentinels for errors.Is.
var (
	ErrValidation     = &Error{Code: ErrCodeValidation}
	ErrAuthentication = &Error{Code: ErrCodeAuthentication}
	ErrSigning        = &Error{Code: ErrCodeSigning}
	ErrPaymentFailed  = &Error{Code: ErrCodePaymentFailed}
	ErrFeeMismatch    = &Error{Code: ErrCodeFeeMismatch}
	ErrNetwork        = &Error{Code: ErrCodeNetwork}
	ErrConfig         = &Error{Code: ErrCodeConfig}
)

// New creates an error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code ErrorCode, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the error code from err, or ErrCodeInternal when err is not
// a pipeline error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// As is re-exported so callers importing this package as "errors" keep access.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is re-exported so callers importing this package as "errors" keep access.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
