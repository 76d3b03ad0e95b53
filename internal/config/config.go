package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the public aggregator endpoint.
const DefaultAPIURL = "https://api.onchain.fi/v1"

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	breaker := BreakerServiceConfig{
		MaxRequests:         3,
		Interval:            Duration{Duration: 60 * time.Second},
		Timeout:             Duration{Duration: 30 * time.Second},
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
	return &Config{
		API: APIConfig{
			URL:        DefaultAPIURL,
			Timeout:    Duration{Duration: 120 * time.Second},
			MaxRetries: 3,
			RetryDelay: Duration{Duration: time.Second},
		},
		Network: "base",
		Solana: SolanaConfig{
			RPCURL:                        "https://api.mainnet-beta.solana.com",
			Commitment:                    "finalized",
			ComputeUnitLimit:              200000,
			ComputeUnitPriceMicroLamports: 1,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:    true,
			Aggregator: breaker,
			SolanaRPC:  breaker,
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
	}
}

// parseFile reads and unmarshals a YAML configuration file.
func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
