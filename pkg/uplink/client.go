// Package uplink executes USDC payments through the onchain.fi aggregator.
//
// A Client prepares a payment with the aggregator, recomputes the fees
// locally and refuses to sign when the amount cannot cover them, signs an
// x402 header for the source network and submits it to the ranked
// facilitators in order until one settles.
package uplink

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/onchainfi/uplink/internal/aggregator"
	"github.com/onchainfi/uplink/internal/circuitbreaker"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/httputil"
	"github.com/onchainfi/uplink/internal/keys"
	"github.com/onchainfi/uplink/internal/lifecycle"
	"github.com/onchainfi/uplink/internal/logger"
	"github.com/onchainfi/uplink/internal/metrics"
	"github.com/onchainfi/uplink/internal/rpcutil"
	"github.com/onchainfi/uplink/pkg/x402"
	"github.com/onchainfi/uplink/pkg/x402/evm"
	"github.com/onchainfi/uplink/pkg/x402/solana"
)

// defaultSignConcurrency bounds concurrent Solana signing per payment.
const defaultSignConcurrency = 4

// Signer produces an X-PAYMENT header for one source network.
type Signer interface {
	SignPayment(ctx context.Context, req x402.SignRequest) (string, error)
}

// Client executes payments. It is safe for concurrent use.
type Client struct {
	cfg     Config
	network x402.Network
	api     *aggregator.Client
	signers map[x402.Network]Signer

	metrics         *metrics.Metrics
	log             zerolog.Logger
	signConcurrency int
	resources       *lifecycle.Manager
}

// Option configures a Client.
type Option func(*options) error

type options struct {
	log        zerolog.Logger
	metrics    *metrics.Metrics
	breaker    *circuitbreaker.Manager
	httpClient *http.Client

	evmKey    string
	solanaKey string
	signers   map[x402.Network]Signer

	solanaRPC        solana.RPCClient
	solanaCommitment string
	computeUnitLimit uint32
	computeUnitPrice uint64

	signConcurrency int
}

// WithLogger sets the client logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) error {
		o.log = log
		return nil
	}
}

// WithMetrics records payments, API calls and RPC calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithCircuitBreaker guards aggregator and Solana RPC calls.
func WithCircuitBreaker(m *circuitbreaker.Manager) Option {
	return func(o *options) error {
		o.breaker = m
		return nil
	}
}

// WithHTTPClient replaces the HTTP client used for the aggregator and Solana
// RPC. Its Timeout replaces Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		o.httpClient = hc
		return nil
	}
}

// WithEVMKey registers signers for every EVM network with a hex private key.
func WithEVMKey(hexKey string) Option {
	return func(o *options) error {
		if _, err := keys.ParseEVMKey(hexKey); err != nil {
			return apierrors.Wrap(apierrors.ErrCodeConfig, err, "evm private key")
		}
		o.evmKey = hexKey
		return nil
	}
}

// WithSolanaKey registers signers for every Solana network with a base58 or
// JSON array private key.
func WithSolanaKey(key string) Option {
	return func(o *options) error {
		if _, err := keys.ParseSolanaKey(key); err != nil {
			return apierrors.Wrap(apierrors.ErrCodeConfig, err, "solana private key")
		}
		o.solanaKey = key
		return nil
	}
}

// WithSigner registers a custom signer for network, replacing any key-based one.
func WithSigner(network x402.Network, s Signer) Option {
	return func(o *options) error {
		if network.IsZero() || s == nil {
			return apierrors.New(apierrors.ErrCodeConfig, "signer and network are required")
		}
		if o.signers == nil {
			o.signers = make(map[x402.Network]Signer)
		}
		o.signers[network] = s
		return nil
	}
}

// WithSolanaRPCClient sets the RPC client used by every Solana signer.
func WithSolanaRPCClient(client solana.RPCClient) Option {
	return func(o *options) error {
		o.solanaRPC = client
		return nil
	}
}

// WithSolanaCommitment sets the blockhash commitment for Solana signing.
func WithSolanaCommitment(commitment string) Option {
	return func(o *options) error {
		o.solanaCommitment = commitment
		return nil
	}
}

// WithSolanaComputeBudget overrides the compute unit limit and price.
func WithSolanaComputeBudget(limit uint32, priceMicroLamports uint64) Option {
	return func(o *options) error {
		o.computeUnitLimit = limit
		o.computeUnitPrice = priceMicroLamports
		return nil
	}
}

// WithSignConcurrency bounds how many Solana headers are signed at once.
func WithSignConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return apierrors.Newf(apierrors.ErrCodeConfig, "sign concurrency must be positive, got %d", n)
		}
		o.signConcurrency = n
		return nil
	}
}

// NewClient validates cfg, applies defaults and builds the signers for the
// configured keys. A client without keys can still pay with pre-signed headers.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	network, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	o := options{log: zerolog.Nop(), signConcurrency: defaultSignConcurrency}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	c := &Client{
		cfg:             cfg,
		network:         network,
		signers:         make(map[x402.Network]Signer),
		metrics:         o.metrics,
		log:             o.log,
		signConcurrency: o.signConcurrency,
		resources:       lifecycle.NewManager(o.log),
	}

	hc := o.httpClient
	if hc == nil {
		hc = httputil.NewClient(cfg.Timeout, func(rt http.RoundTripper) http.RoundTripper {
			return logger.Transport(rt, o.log)
		})
		c.resources.RegisterFunc("http-client", func() error {
			hc.CloseIdleConnections()
			return nil
		})
	}

	c.api = aggregator.New(cfg.APIURL, cfg.APIKey,
		aggregator.WithHTTPClient(hc),
		aggregator.WithRetry(rpcutil.RetryConfig{MaxRetries: cfg.retries(), BaseDelay: cfg.RetryDelay}),
		aggregator.WithBreaker(o.breaker),
		aggregator.WithMetrics(o.metrics),
		aggregator.WithLogger(o.log),
	)

	if err := c.addKeySigners(o, hc); err != nil {
		return nil, err
	}
	for network, s := range o.signers {
		c.signers[network] = s
	}

	return c, nil
}

func (c *Client) addKeySigners(o options, hc *http.Client) error {
	if o.evmKey != "" {
		key, err := keys.ParseEVMKey(o.evmKey)
		if err != nil {
			return apierrors.Wrap(apierrors.ErrCodeConfig, err, "evm private key")
		}
		for _, network := range x402.Networks {
			if !network.IsEVM() {
				continue
			}
			s, err := evm.NewSigner(network, key)
			if err != nil {
				return err
			}
			c.signers[network] = s
		}
	}

	if o.solanaKey != "" {
		key, err := keys.ParseSolanaKey(o.solanaKey)
		if err != nil {
			return apierrors.Wrap(apierrors.ErrCodeConfig, err, "solana private key")
		}
		for _, network := range x402.Networks {
			if !network.IsSolana() {
				continue
			}
			signerOpts := []solana.Option{
				solana.WithHTTPClient(hc),
				solana.WithBreaker(o.breaker),
				solana.WithMetrics(o.metrics),
				solana.WithLogger(o.log),
				solana.WithComputeBudget(o.computeUnitLimit, o.computeUnitPrice),
			}
			if o.solanaCommitment != "" {
				signerOpts = append(signerOpts, solana.WithCommitment(o.solanaCommitment))
			}
			if o.solanaRPC != nil {
				signerOpts = append(signerOpts, solana.WithRPCClient(o.solanaRPC))
			} else if c.cfg.SolanaRPCURL != "" && network == c.defaultSolanaNetwork() {
				signerOpts = append(signerOpts, solana.WithRPCURL(c.cfg.SolanaRPCURL))
			}
			s, err := solana.NewSigner(network, key, signerOpts...)
			if err != nil {
				return err
			}
			c.signers[network] = s
		}
	}
	return nil
}

// defaultSolanaNetwork is the Solana network Config.SolanaRPCURL serves.
func (c *Client) defaultSolanaNetwork() x402.Network {
	if c.network.IsSolana() {
		return c.network
	}
	return x402.Solana
}

// Network returns the default network.
func (c *Client) Network() x402.Network {
	return c.network
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	return c.resources.Close()
}
