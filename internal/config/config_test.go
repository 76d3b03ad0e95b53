package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
)

const testEVMKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestLoadConfig_RequiresAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLINK_EVM_PRIVATE_KEY", testEVMKey)

	cfg, err := Load("")
	if err == nil {
		t.Fatal("expected error when api key is missing, got nil")
	}
	if cfg != nil {
		t.Fatal("expected nil config when validation fails")
	}
	if !strings.Contains(err.Error(), `api.key failed "required" validation`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_ValidMinimal(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLINK_API_KEY", "test-key")
	t.Setenv("UPLINK_EVM_PRIVATE_KEY", "0x"+testEVMKey)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.URL != DefaultAPIURL {
		t.Errorf("API.URL = %s, want %s", cfg.API.URL, DefaultAPIURL)
	}
	if cfg.API.Timeout.Duration != 120*time.Second {
		t.Errorf("API.Timeout = %v, want 120s", cfg.API.Timeout.Duration)
	}
	if cfg.Network != "base" {
		t.Errorf("Network = %s, want base", cfg.Network)
	}
	if cfg.Solana.ComputeUnitLimit != 200000 || cfg.Solana.ComputeUnitPriceMicroLamports != 1 {
		t.Errorf("unexpected compute budget defaults: %+v", cfg.Solana)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if !cfg.CircuitBreaker.Enabled {
		t.Error("circuit breakers should be enabled by default")
	}
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLINK_SOLANA_PRIVATE_KEY", mustSolanaKey(t))

	path := filepath.Join(t.TempDir(), "uplink.yaml")
	yaml := `
api:
  url: https://aggregator.example.com/v1/
  key: file-key
  timeout: 30s
  retry_delay: 250ms
network: solana-devnet
solana:
  rpc_url: https://api.devnet.solana.com
  compute_unit_price_micro_lamports: 5000
circuit_breaker:
  enabled: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.URL != "https://aggregator.example.com/v1" {
		t.Errorf("trailing slash should be trimmed, got %s", cfg.API.URL)
	}
	if cfg.API.Timeout.Duration != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout.Duration)
	}
	if cfg.API.RetryDelay.Duration != 250*time.Millisecond {
		t.Errorf("API.RetryDelay = %v, want 250ms", cfg.API.RetryDelay.Duration)
	}
	if cfg.Solana.ComputeUnitPriceMicroLamports != 5000 {
		t.Errorf("compute unit price = %d, want 5000", cfg.Solana.ComputeUnitPriceMicroLamports)
	}
	if cfg.Solana.ComputeUnitLimit != 200000 {
		t.Errorf("compute unit limit should keep its default, got %d", cfg.Solana.ComputeUnitLimit)
	}
	if cfg.CircuitBreaker.Enabled {
		t.Error("circuit breakers should be disabled by file")
	}
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
	}{
		{
			name: "unknown network",
			envVars: map[string]string{
				"UPLINK_NETWORK":         "polygon",
				"UPLINK_EVM_PRIVATE_KEY": testEVMKey,
			},
			wantErr: "network:",
		},
		{
			name:    "no signing key",
			envVars: map[string]string{},
			wantErr: "at least one signing key is required",
		},
		{
			name: "solana network without solana key",
			envVars: map[string]string{
				"UPLINK_NETWORK":         "solana",
				"UPLINK_EVM_PRIVATE_KEY": testEVMKey,
			},
			wantErr: "solana.private_key is required when network is solana",
		},
		{
			name: "malformed evm key",
			envVars: map[string]string{
				"UPLINK_EVM_PRIVATE_KEY": "0x1234",
			},
			wantErr: "evm.private_key:",
		},
		{
			name: "bad api url",
			envVars: map[string]string{
				"UPLINK_API_URL":         "not a url",
				"UPLINK_EVM_PRIVATE_KEY": testEVMKey,
			},
			wantErr: `api.url failed "url" validation`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("UPLINK_API_KEY", "test-key")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// clearEnv blanks every variable the loader reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"UPLINK_API_URL",
		"UPLINK_API_KEY",
		"UPLINK_API_TIMEOUT",
		"UPLINK_API_MAX_RETRIES",
		"UPLINK_API_RETRY_DELAY",
		"UPLINK_NETWORK",
		"UPLINK_SOLANA_RPC_URL",
		"UPLINK_SOLANA_PRIVATE_KEY",
		"UPLINK_SOLANA_COMMITMENT",
		"UPLINK_EVM_PRIVATE_KEY",
		"UPLINK_LOG_LEVEL",
		"UPLINK_LOG_FORMAT",
		"UPLINK_ENVIRONMENT",
		"UPLINK_CIRCUIT_BREAKER_ENABLED",
		"UPLINK_METRICS_ENABLED",
		"UPLINK_METRICS_ADDRESS",
	} {
		t.Setenv(key, "")
	}
}

func mustSolanaKey(t *testing.T) string {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate solana key: %v", err)
	}
	return key.String()
}
