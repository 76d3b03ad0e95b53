package uplink

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/onchainfi/uplink/internal/aggregator"
	"github.com/onchainfi/uplink/internal/aggregator/aggregatortest"
	"github.com/onchainfi/uplink/internal/fees"
	"github.com/onchainfi/uplink/pkg/x402"
)

const (
	evmRecipient    = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	solanaRecipient = "9B5XszUGdMaxCZ7uSQhPzdks5ZQSmWxrmzCSvtJ6Ns6g"
	intermediate    = "0x1111111111111111111111111111111111111111"
	solanaTarget    = "CKWx2b1x4jUhRrLNLEFqbv4D6BYe4HcAawMbEuGsRgZX"
	testEVMKey      = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	feePayerA = "EwWqGE4ZFKLofuestmU4LDdK7XM1N4ALgdZccwYugwGd"
	feePayerC = "7CbU7bR6wdrvN4kmPYGtVmAjvQiNRau8NFmy8zWEBPZ4"
)

// standardFees is 0.1% same-chain, 0.5% cross-chain with a $0.25 floor and
// a $0.50 account creation fee.
func standardFees() fees.Config {
	return fees.Config{
		Tier:                 "standard",
		SameChainFeePercent:  decimal.RequireFromString("0.1"),
		CrossChainFeePercent: decimal.RequireFromString("0.5"),
		MinimumCrossChainFee: decimal.RequireFromString("0.25"),
		ATACreationFee:       decimal.RequireFromString("0.5"),
	}
}

func preparation(signingAddress string) aggregator.Preparation {
	return aggregator.Preparation{
		FeeConfig:      standardFees(),
		SigningAddress: signingAddress,
	}
}

// recordingSigner returns "signed:<feePayer>" headers and remembers every request.
type recordingSigner struct {
	mu      sync.Mutex
	reqs    []x402.SignRequest
	failFor map[string]bool // fee payers that fail to sign
}

func (s *recordingSigner) SignPayment(ctx context.Context, req x402.SignRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.failFor[req.FeePayer] {
		return "", errors.New("blockhash unavailable")
	}
	return "signed:" + req.FeePayer, nil
}

func (s *recordingSigner) requests() []x402.SignRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]x402.SignRequest(nil), s.reqs...)
}

func newTestClient(t *testing.T, srv *aggregatortest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(Config{
		APIURL:     srv.URL,
		APIKey:     aggregatortest.APIKey,
		MaxRetries: -1,
	}, opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func payFailure(status int, code string) *aggregatortest.Failure {
	return &aggregatortest.Failure{Status: status, Code: code, Message: "rejected: " + code}
}
