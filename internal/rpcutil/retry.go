package rpcutil

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/logger"
)

// RetryConfig defines retry behavior for a single remote call.
type RetryConfig struct {
	MaxRetries int           // additional attempts after the first
	BaseDelay  time.Duration // first backoff; doubles each attempt
}

// DefaultRetryConfig returns the defaults used for Solana RPC calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
	}
}

// WithRetryCustom wraps an operation with exponential backoff. It retries on
// transient errors like network issues and rate limits.
func WithRetryCustom[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}

		if ctx.Err() != nil {
			return result, err
		}

		if !IsRetryableError(err) {
			return result, err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		delay := cfg.BaseDelay * time.Duration(1<<uint(attempt))
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", cfg.MaxRetries+1).
			Dur("retry_delay", delay).
			Msg("rpc.operation_retry")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, err
}

// IsRetryableError determines if a call is worth repeating against the same endpoint.
// Settlement rejections are not: they move to the next facilitator instead.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// An open breaker stays open for its whole timeout
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == apierrors.ErrCodeNetwork || apiErr.Code == apierrors.ErrCodeRPC
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") ||
		strings.Contains(msg, "network") {
		return true
	}

	// Rate limiting
	if strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "throttle") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "504") ||
		strings.Contains(msg, "bad gateway") ||
		strings.Contains(msg, "service unavailable") ||
		strings.Contains(msg, "gateway timeout") {
		return true
	}

	return false
}
