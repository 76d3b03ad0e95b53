package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/onchainfi/uplink/internal/config"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/pkg/x402"
)

func TestClientConfig(t *testing.T) {
	cfg := &config.Config{
		API: config.APIConfig{
			URL:        "https://api.example.com/v1",
			Key:        "k",
			Timeout:    config.Duration{Duration: 30 * time.Second},
			MaxRetries: 2,
			RetryDelay: config.Duration{Duration: 500 * time.Millisecond},
		},
		Network: "solana",
		Solana:  config.SolanaConfig{RPCURL: "https://rpc.example.com"},
	}

	got := clientConfig(cfg)
	if got.APIURL != cfg.API.URL || got.APIKey != "k" || got.Network != "solana" {
		t.Errorf("unexpected mapping %+v", got)
	}
	if got.Timeout != 30*time.Second || got.RetryDelay != 500*time.Millisecond || got.MaxRetries != 2 {
		t.Errorf("unexpected timing %+v", got)
	}
	if got.SolanaRPCURL != "https://rpc.example.com" {
		t.Errorf("rpc url = %s", got.SolanaRPCURL)
	}

	cfg.API.MaxRetries = 0
	if got := clientConfig(cfg); got.MaxRetries != -1 {
		t.Errorf("zero retries in the file should disable retries, got %d", got.MaxRetries)
	}
}

func TestInspect(t *testing.T) {
	header, err := x402.EncodeHeader(x402.Base, x402.EVMPayload{
		Signature:     "0xabc",
		Authorization: x402.Authorization{From: "0x1", To: "0x2", Value: "1000000"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := inspect(header, &out); err != nil {
		t.Fatalf("inspect() error = %v", err)
	}
	if !strings.Contains(out.String(), `"value": "1000000"`) || !strings.Contains(out.String(), `"network": "base"`) {
		t.Errorf("unexpected output %s", out.String())
	}

	if err := inspect("!!!", &out); err == nil {
		t.Error("expected error for garbage header")
	}
}

func TestRun_RequiresRecipientAndAmount(t *testing.T) {
	if err := run(flags{amount: "1"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error without -to")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		code apierrors.ErrorCode
		want int
	}{
		{apierrors.ErrCodeValidation, 2},
		{apierrors.ErrCodeAuthentication, 3},
		{apierrors.ErrCodeFeeMismatch, 4},
		{apierrors.ErrCodeNetwork, 1},
	}
	for _, tt := range tests {
		if got := exitCode(apierrors.New(tt.code, "x")); got != tt.want {
			t.Errorf("exitCode(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
