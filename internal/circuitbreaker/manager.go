package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/onchainfi/uplink/internal/config"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/metrics"
)

// ServiceType identifies different external services for circuit breaker isolation.
type ServiceType string

const (
	ServiceAggregator ServiceType = "aggregator_api"
	ServiceSolanaRPC  ServiceType = "solana_rpc"
)

// Manager manages circuit breakers for different external services.
// Each service has its own breaker so a degraded RPC node does not stop
// aggregator calls and vice versa. A nil *Manager passes every call through.
type Manager struct {
	breakers map[ServiceType]*gobreaker.CircuitBreaker
	config   Config
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// Config holds circuit breaker configuration for all services.
type Config struct {
	// Global enable/disable toggle
	Enabled bool

	Aggregator BreakerConfig
	SolanaRPC  BreakerConfig
}

// BreakerConfig configures a single circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed to pass through
	// when the circuit breaker is half-open. Default: 3
	MaxRequests uint32

	// Interval is the cyclic period in closed state to clear the internal counts.
	// If 0, never clears. Default: 60s
	Interval time.Duration

	// Timeout is the period of the open state after which the state becomes half-open.
	// Default: 30s
	Timeout time.Duration

	// Trip after ConsecutiveFailures failures in a row, or when FailureRatio
	// of at least MinRequests requests failed.
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for state transitions.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithMetrics records state transitions in the given collector.
func WithMetrics(mc *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mc }
}

// NewManagerFromConfig creates a circuit breaker manager from application config.
func NewManagerFromConfig(cfg config.CircuitBreakerConfig, opts ...Option) *Manager {
	return NewManager(Config{
		Enabled:    cfg.Enabled,
		Aggregator: fromServiceConfig(cfg.Aggregator),
		SolanaRPC:  fromServiceConfig(cfg.SolanaRPC),
	}, opts...)
}

func fromServiceConfig(c config.BreakerServiceConfig) BreakerConfig {
	return BreakerConfig{
		MaxRequests:         c.MaxRequests,
		Interval:            c.Interval.Duration,
		Timeout:             c.Timeout.Duration,
		ConsecutiveFailures: c.ConsecutiveFailures,
		FailureRatio:        c.FailureRatio,
		MinRequests:         c.MinRequests,
	}
}

// NewManager creates a circuit breaker manager with the given configuration.
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		breakers: make(map[ServiceType]*gobreaker.CircuitBreaker),
		config:   cfg,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if !cfg.Enabled {
		// Return manager with no breakers (pass-through)
		return m
	}

	m.breakers[ServiceAggregator] = gobreaker.NewCircuitBreaker(m.settings(ServiceAggregator, cfg.Aggregator))
	m.breakers[ServiceSolanaRPC] = gobreaker.NewCircuitBreaker(m.settings(ServiceSolanaRPC, cfg.SolanaRPC))

	return m
}

// Execute wraps a function call with circuit breaker protection.
// If circuit breaker is disabled or not configured for the service, executes directly.
// A rejected call returns a network_error so callers fail over as they would on an outage.
func (m *Manager) Execute(service ServiceType, fn func() (interface{}, error)) (interface{}, error) {
	if m == nil || !m.config.Enabled {
		return fn()
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return fn()
	}

	result, err := breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apierrors.Wrap(apierrors.ErrCodeNetwork, err, "circuit breaker "+string(service))
	}
	return result, err
}

// Do is a typed wrapper around Execute.
func Do[T any](m *Manager, service ServiceType, fn func() (T, error)) (T, error) {
	result, err := m.Execute(service, func() (interface{}, error) {
		return fn()
	})
	typed, _ := result.(T)
	return typed, err
}

// State returns the current state of a circuit breaker.
// Returns "disabled" if circuit breakers are not enabled or service not found.
func (m *Manager) State(service ServiceType) string {
	if m == nil || !m.config.Enabled {
		return "disabled"
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return "not_configured"
	}

	return breaker.State().String()
}

// Counts returns the current counts for a circuit breaker.
func (m *Manager) Counts(service ServiceType) Counts {
	if m == nil || !m.config.Enabled {
		return Counts{}
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return Counts{}
	}

	c := breaker.Counts()
	return Counts{
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}

// Counts represents circuit breaker statistics.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// IsServiceFailure reports whether err means the remote service is unhealthy.
// Business rejections (payment_failed, fee_mismatch, auth) and caller
// cancellation keep the breaker closed.
func IsServiceFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch apierrors.CodeOf(err) {
	case apierrors.ErrCodeNetwork, apierrors.ErrCodeRPC:
		return true
	default:
		return false
	}
}

// settings converts our config to gobreaker.Settings.
func (m *Manager) settings(service ServiceType, cfg BreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        string(service),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		IsSuccessful: func(err error) bool {
			return !IsServiceFailure(err)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}

			if cfg.FailureRatio > 0 && cfg.MinRequests > 0 && counts.Requests >= cfg.MinRequests {
				failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
				if failureRate >= cfg.FailureRatio {
					return true
				}
			}

			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			m.log.Warn().
				Str("service", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit_breaker.state_change")
			if m.metrics != nil {
				m.metrics.ObserveBreakerTransition(name, to.String())
			}
		},
	}
}

// DefaultConfig returns sensible defaults for circuit breaker configuration.
func DefaultConfig() Config {
	breaker := BreakerConfig{
		MaxRequests:         3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
	return Config{
		Enabled:    true,
		Aggregator: breaker,
		SolanaRPC:  breaker,
	}
}
