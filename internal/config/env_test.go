package config

import (
	"testing"
	"time"
)

func TestEnvOverrides(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name:    "UPLINK_API_URL overrides default",
			envVars: map[string]string{"UPLINK_API_URL": "http://localhost:4000"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.API.URL != "http://localhost:4000" {
					t.Errorf("Expected http://localhost:4000, got %s", cfg.API.URL)
				}
			},
		},
		{
			name:    "UPLINK_API_TIMEOUT duration",
			envVars: map[string]string{"UPLINK_API_TIMEOUT": "45s"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.API.Timeout.Duration != 45*time.Second {
					t.Errorf("Expected 45s, got %v", cfg.API.Timeout.Duration)
				}
			},
		},
		{
			name:    "invalid duration keeps default",
			envVars: map[string]string{"UPLINK_API_TIMEOUT": "soon"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.API.Timeout.Duration != 120*time.Second {
					t.Errorf("Expected default 120s, got %v", cfg.API.Timeout.Duration)
				}
			},
		},
		{
			name:    "UPLINK_API_MAX_RETRIES int",
			envVars: map[string]string{"UPLINK_API_MAX_RETRIES": "5"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.API.MaxRetries != 5 {
					t.Errorf("Expected 5, got %d", cfg.API.MaxRetries)
				}
			},
		},
		{
			name: "signing keys from env",
			envVars: map[string]string{
				"UPLINK_EVM_PRIVATE_KEY":    "0xabc",
				"UPLINK_SOLANA_PRIVATE_KEY": "base58key",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.EVM.PrivateKey != "0xabc" || cfg.Solana.PrivateKey != "base58key" {
					t.Errorf("keys not loaded: evm=%q solana=%q", cfg.EVM.PrivateKey, cfg.Solana.PrivateKey)
				}
			},
		},
		{
			name: "boolean toggles",
			envVars: map[string]string{
				"UPLINK_CIRCUIT_BREAKER_ENABLED": "false",
				"UPLINK_METRICS_ENABLED":         "1",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.CircuitBreaker.Enabled {
					t.Error("Expected circuit breaker disabled")
				}
				if !cfg.Metrics.Enabled {
					t.Error("Expected metrics enabled")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}
