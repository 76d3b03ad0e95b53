package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// All env vars use UPLINK_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	// API config
	setIfEnv(&c.API.URL, "UPLINK_API_URL")
	setIfEnv(&c.API.Key, "UPLINK_API_KEY")
	setDurationIfEnv(&c.API.Timeout, "UPLINK_API_TIMEOUT")
	setIntIfEnv(&c.API.MaxRetries, "UPLINK_API_MAX_RETRIES")
	setDurationIfEnv(&c.API.RetryDelay, "UPLINK_API_RETRY_DELAY")

	setIfEnv(&c.Network, "UPLINK_NETWORK")

	// Signing keys are normally only supplied through the environment
	setIfEnv(&c.Solana.RPCURL, "UPLINK_SOLANA_RPC_URL")
	setIfEnv(&c.Solana.PrivateKey, "UPLINK_SOLANA_PRIVATE_KEY")
	setIfEnv(&c.Solana.Commitment, "UPLINK_SOLANA_COMMITMENT")
	setIfEnv(&c.EVM.PrivateKey, "UPLINK_EVM_PRIVATE_KEY")

	// Logging config
	setIfEnv(&c.Logging.Level, "UPLINK_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "UPLINK_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "UPLINK_ENVIRONMENT")

	setBoolIfEnv(&c.CircuitBreaker.Enabled, "UPLINK_CIRCUIT_BREAKER_ENABLED")

	setBoolIfEnv(&c.Metrics.Enabled, "UPLINK_METRICS_ENABLED")
	setIfEnv(&c.Metrics.Address, "UPLINK_METRICS_ADDRESS")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv sets an int pointer from an environment variable, ignoring unparsable values.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*target = n
		}
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}
