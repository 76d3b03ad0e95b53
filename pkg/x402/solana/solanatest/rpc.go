// Package solanatest provides an in-memory Solana RPC for signer tests.
package solanatest

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Blockhash is the deterministic hash returned by FakeRPC.
var Blockhash = solana.MustHashFromBase58("4sGjMW1sUnHzSxGspuhpqLDx6wiyjNtZAMdL4VZHirAn")

// FakeRPC answers GetLatestBlockhash and GetAccountInfo from memory.
// It is safe for concurrent use.
type FakeRPC struct {
	mu           sync.Mutex
	owners       map[solana.PublicKey]solana.PublicKey
	calls        map[string]int
	BlockhashErr error
	AccountErr   error
}

// NewFakeRPC returns a fake with no accounts.
func NewFakeRPC() *FakeRPC {
	return &FakeRPC{
		owners: make(map[solana.PublicKey]solana.PublicKey),
		calls:  make(map[string]int),
	}
}

// SetAccount registers account as existing and owned by program.
func (f *FakeRPC) SetAccount(account, program solana.PublicKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners[account] = program
}

// Calls returns how many times method was invoked.
func (f *FakeRPC) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// GetLatestBlockhash returns Blockhash or BlockhashErr.
func (f *FakeRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	f.mu.Lock()
	f.calls["getLatestBlockhash"]++
	err := f.BlockhashErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            Blockhash,
			LastValidBlockHeight: 100000,
		},
	}, nil
}

// GetAccountInfo returns the registered owner, or rpc.ErrNotFound.
func (f *FakeRPC) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["getAccountInfo"]++
	if f.AccountErr != nil {
		return nil, f.AccountErr
	}
	owner, ok := f.owners[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{Owner: owner, Lamports: 2039280},
	}, nil
}
