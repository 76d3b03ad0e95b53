package uplink

import apierrors "github.com/onchainfi/uplink/internal/errors"

// Error is the error type returned by Pay. Use errors.Is with the sentinels
// below or inspect Code directly.
type Error = apierrors.Error

// ErrorCode classifies a failure.
type ErrorCode = apierrors.ErrorCode

// Error codes.
const (
	ErrCodeValidation     = apierrors.ErrCodeValidation
	ErrCodeAuthentication = apierrors.ErrCodeAuthentication
	ErrCodeSigning        = apierrors.ErrCodeSigning
	ErrCodePaymentFailed  = apierrors.ErrCodePaymentFailed
	ErrCodeFeeMismatch    = apierrors.ErrCodeFeeMismatch
	ErrCodeNetwork        = apierrors.ErrCodeNetwork
	ErrCodeRPC            = apierrors.ErrCodeRPC
	ErrCodeConfig         = apierrors.ErrCodeConfig
	ErrCodeInternal       = apierrors.ErrCodeInternal
)

// Sentinels for errors.Is; they match any Error with the same code.
var (
	ErrValidation     = apierrors.ErrValidation
	ErrAuthentication = apierrors.ErrAuthentication
	ErrSigning        = apierrors.ErrSigning
	ErrPaymentFailed  = apierrors.ErrPaymentFailed
	ErrFeeMismatch    = apierrors.ErrFeeMismatch
	ErrNetwork        = apierrors.ErrNetwork
	ErrConfig         = apierrors.ErrConfig
)

// CodeOf returns the code of err, or ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	return apierrors.CodeOf(err)
}
