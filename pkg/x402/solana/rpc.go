package solana

import (
	"context"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/onchainfi/uplink/internal/circuitbreaker"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/metrics"
	"github.com/onchainfi/uplink/internal/rpcutil"
)

// RPCClient is the subset of the Solana RPC API the signer needs.
// *rpc.Client satisfies it.
type RPCClient interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// NewRPCClient creates an RPC client that sends requests through httpClient.
func NewRPCClient(endpoint string, httpClient *http.Client) *rpc.Client {
	if httpClient == nil {
		return rpc.New(endpoint)
	}
	return rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	}))
}

// guardedRPC runs every call through the solana_rpc circuit breaker and
// retries transient failures. Each attempt is recorded in metrics.
type guardedRPC struct {
	client  RPCClient
	network string
	retry   rpcutil.RetryConfig
	breaker *circuitbreaker.Manager
	metrics *metrics.Metrics
}

func (g *guardedRPC) latestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (solana.Hash, error) {
	res, err := call(ctx, g, "getLatestBlockhash", func() (*rpc.GetLatestBlockhashResult, error) {
		return g.client.GetLatestBlockhash(ctx, commitment)
	})
	if err != nil {
		return solana.Hash{}, err
	}
	if res == nil || res.Value == nil {
		return solana.Hash{}, apierrors.New(apierrors.ErrCodeRPC, "empty blockhash response")
	}
	return res.Value.Blockhash, nil
}

// accountOwner returns the program owning account, or found=false when the
// account does not exist.
func (g *guardedRPC) accountOwner(ctx context.Context, account solana.PublicKey) (owner solana.PublicKey, found bool, err error) {
	res, err := call(ctx, g, "getAccountInfo", func() (*rpc.GetAccountInfoResult, error) {
		res, err := g.client.GetAccountInfo(ctx, account)
		if isAccountNotFoundError(err) {
			return nil, nil
		}
		return res, err
	})
	if err != nil {
		return solana.PublicKey{}, false, err
	}
	if res == nil || res.Value == nil {
		return solana.PublicKey{}, false, nil
	}
	return res.Value.Owner, true, nil
}

func call[T any](ctx context.Context, g *guardedRPC, method string, fn func() (T, error)) (T, error) {
	return circuitbreaker.Do(g.breaker, circuitbreaker.ServiceSolanaRPC, func() (T, error) {
		return rpcutil.WithRetryCustom(ctx, g.retry, func() (T, error) {
			start := time.Now()
			result, err := fn()
			metrics.RecordRPCCall(g.metrics, method, g.network, time.Since(start), err)
			if err != nil {
				return result, classifyRPCError(method, err)
			}
			return result, nil
		})
	})
}

// classifyRPCError marks transient failures as rpc_error so they are retried
// and counted by the breaker. Anything else is a signing failure.
func classifyRPCError(method string, err error) error {
	if rpcutil.IsRetryableError(err) {
		return apierrors.Wrap(apierrors.ErrCodeRPC, err, method)
	}
	return apierrors.Wrap(apierrors.ErrCodeSigning, err, method)
}
