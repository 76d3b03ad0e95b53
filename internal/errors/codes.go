package errors

// ErrorCode represents a machine-readable error identifier for payment failures.
type ErrorCode string

// Input and credential errors
const (
	// Bad input: unparsable amount, unknown network, amount too small for fees
	ErrCodeValidation ErrorCode = "validation_error"
	// Invalid or missing API key
	ErrCodeAuthentication ErrorCode = "authentication_error"
	ErrCodeConfig         ErrorCode = "config_error"
)

// Signing errors (local crypto or RPC failure while building a header)
const (
	ErrCodeSigning ErrorCode = "signing_error"
)

// Settlement errors
const (
	// Facilitator rejected the payment; the next facilitator may succeed
	ErrCodePaymentFailed ErrorCode = "payment_failed"
	// Server-side fee totals disagree with the client's; never retried
	ErrCodeFeeMismatch ErrorCode = "fee_mismatch"
)

// Transport errors
const (
	ErrCodeNetwork ErrorCode = "network_error"
	ErrCodeRPC     ErrorCode = "rpc_error"
)

// Internal/System Errors
const (
	ErrCodeInternal ErrorCode = "internal_error"
)

// IsRetryable returns whether a failure with this code may succeed on the next facilitator.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodePaymentFailed,
		ErrCodeNetwork,
		ErrCodeRPC:
		return true
	default:
		return false
	}
}

// Aborts reports whether a failure with this code stops the whole payment.
func (e ErrorCode) Aborts() bool {
	switch e {
	case ErrCodeAuthentication, ErrCodeFeeMismatch, ErrCodeValidation, ErrCodeConfig:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the HTTP status the aggregator uses for this error.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrCodeValidation, ErrCodeConfig:
		return 400
	case ErrCodeAuthentication:
		return 401
	case ErrCodePaymentFailed:
		return 402
	case ErrCodeFeeMismatch:
		return 409
	case ErrCodeNetwork, ErrCodeRPC:
		return 502
	default:
		return 500
	}
}
