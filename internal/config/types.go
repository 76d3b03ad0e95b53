package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds client configuration aggregated from file and environment variables.
type Config struct {
	API            APIConfig            `yaml:"api"`
	Network        string               `yaml:"network" validate:"required"` // default source network
	Solana         SolanaConfig         `yaml:"solana"`
	EVM            EVMConfig            `yaml:"evm"`
	Logging        LoggingConfig        `yaml:"logging"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Metrics        MetricsConfig        `yaml:"metrics"`
}

// APIConfig holds aggregator API connection settings.
type APIConfig struct {
	URL        string   `yaml:"url" validate:"required,url"`
	Key        string   `yaml:"key" validate:"required"`
	Timeout    Duration `yaml:"timeout"`                               // Per-call HTTP timeout (default: 120s)
	MaxRetries int      `yaml:"max_retries" validate:"gte=0,lte=10"` // RPC retry budget (default: 3)
	RetryDelay Duration `yaml:"retry_delay"`                           // Base backoff delay (default: 1s)
}

// SolanaConfig holds Solana signing configuration.
type SolanaConfig struct {
	RPCURL                        string `yaml:"rpc_url" validate:"omitempty,url"`
	PrivateKey                    string `yaml:"private_key"` // base58 or JSON byte array; prefer UPLINK_SOLANA_PRIVATE_KEY
	Commitment                    string `yaml:"commitment" validate:"omitempty,oneof=processed confirmed finalized"`
	ComputeUnitLimit              uint32 `yaml:"compute_unit_limit"`                // default: 200000
	ComputeUnitPriceMicroLamports uint64 `yaml:"compute_unit_price_micro_lamports"` // default: 1
}

// EVMConfig holds EVM signing configuration.
type EVMConfig struct {
	PrivateKey string `yaml:"private_key"` // hex, with or without 0x; prefer UPLINK_EVM_PRIVATE_KEY
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error (default: info)
	Format      string `yaml:"format"`      // json, console (default: json)
	Environment string `yaml:"environment"` // production, staging, development
}

// CircuitBreakerConfig holds circuit breaker configuration for external services.
type CircuitBreakerConfig struct {
	Enabled    bool                 `yaml:"enabled"`    // Enable circuit breakers (default: true)
	Aggregator BreakerServiceConfig `yaml:"aggregator"` // Aggregator API circuit breaker
	SolanaRPC  BreakerServiceConfig `yaml:"solana_rpc"` // Solana RPC circuit breaker
}

// BreakerServiceConfig configures a circuit breaker for a specific external service.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`                                // Max requests in half-open state (default: 3)
	Interval            Duration `yaml:"interval"`                                    // Stats reset interval in closed state (default: 60s)
	Timeout             Duration `yaml:"timeout"`                                     // Open state timeout before half-open (default: 30s)
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`                        // Consecutive failures to trip (default: 5)
	FailureRatio        float64  `yaml:"failure_ratio" validate:"gte=0,lte=1"`        // Failure ratio to trip 0.0-1.0 (default: 0.5)
	MinRequests         uint32   `yaml:"min_requests"`                                // Minimum requests before checking ratio (default: 10)
}

// MetricsConfig controls the optional Prometheus listener of the CLI.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // e.g. ":9090"
}
