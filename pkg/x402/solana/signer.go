// Package solana signs x402 USDC payments as partially signed versioned
// transactions. The facilitator adds the fee payer signature and submits.
package solana

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/onchainfi/uplink/internal/circuitbreaker"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/logger"
	"github.com/onchainfi/uplink/internal/metrics"
	"github.com/onchainfi/uplink/internal/money"
	"github.com/onchainfi/uplink/internal/rpcutil"
	"github.com/onchainfi/uplink/pkg/x402"
)

// Signer produces X-PAYMENT headers for one Solana network.
// It is safe for concurrent use.
type Signer struct {
	key     solana.PrivateKey
	owner   solana.PublicKey
	network x402.Network
	mint    solana.PublicKey

	rpcURL     string
	httpClient *http.Client
	client     RPCClient
	rpc        *guardedRPC

	commitment       rpc.CommitmentType
	computeUnitLimit uint32
	computeUnitPrice uint64
	retry            rpcutil.RetryConfig
	breaker          *circuitbreaker.Manager
	metrics          *metrics.Metrics
	log              zerolog.Logger

	programMu    sync.Mutex
	tokenProgram solana.PublicKey // cached mint owner
}

// Option configures a Signer.
type Option func(*Signer) error

// WithRPCClient sets a custom RPC client.
func WithRPCClient(client RPCClient) Option {
	return func(s *Signer) error {
		s.client = client
		return nil
	}
}

// WithRPCURL sets the RPC endpoint used when no client is injected.
func WithRPCURL(url string) Option {
	return func(s *Signer) error {
		s.rpcURL = url
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for RPC requests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Signer) error {
		s.httpClient = client
		return nil
	}
}

// WithComputeBudget overrides the compute unit limit and price (microlamports).
// Zero keeps the default.
func WithComputeBudget(limit uint32, price uint64) Option {
	return func(s *Signer) error {
		if limit > 0 {
			s.computeUnitLimit = limit
		}
		if price > 0 {
			s.computeUnitPrice = price
		}
		return nil
	}
}

// WithCommitment sets the blockhash commitment ("processed", "confirmed", "finalized").
func WithCommitment(commitment string) Option {
	return func(s *Signer) error {
		s.commitment = commitmentFromString(commitment)
		return nil
	}
}

// WithRetry sets the retry policy for RPC calls.
func WithRetry(cfg rpcutil.RetryConfig) Option {
	return func(s *Signer) error {
		s.retry = cfg
		return nil
	}
}

// WithBreaker guards RPC calls with the solana_rpc circuit breaker.
func WithBreaker(m *circuitbreaker.Manager) Option {
	return func(s *Signer) error {
		s.breaker = m
		return nil
	}
}

// WithMetrics records RPC calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Signer) error {
		s.metrics = m
		return nil
	}
}

// WithLogger sets the signer logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Signer) error {
		s.log = log
		return nil
	}
}

// NewSigner creates a signer bound to a Solana network.
func NewSigner(network x402.Network, key solana.PrivateKey, opts ...Option) (*Signer, error) {
	if !network.IsSolana() {
		return nil, apierrors.Newf(apierrors.ErrCodeConfig, "solana signer requires a solana network, got %s", network)
	}
	if len(key) != 64 {
		return nil, apierrors.New(apierrors.ErrCodeConfig, "solana private key must be 64 bytes")
	}
	mint, err := solana.PublicKeyFromBase58(network.USDCAddress())
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeConfig, err, "parse usdc mint")
	}

	s := &Signer{
		key:              key,
		owner:            key.PublicKey(),
		network:          network,
		mint:             mint,
		commitment:       rpc.CommitmentFinalized,
		computeUnitLimit: DefaultComputeUnitLimit,
		computeUnitPrice: DefaultComputeUnitPrice,
		retry:            rpcutil.DefaultRetryConfig(),
		log:              zerolog.Nop(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.client == nil {
		if s.rpcURL == "" {
			s.rpcURL = defaultRPCURL(network.Name())
		}
		s.client = NewRPCClient(s.rpcURL, s.httpClient)
	}
	s.rpc = &guardedRPC{
		client:  s.client,
		network: network.Name(),
		retry:   s.retry,
		breaker: s.breaker,
		metrics: s.metrics,
	}

	return s, nil
}

// Address returns the sender wallet.
func (s *Signer) Address() solana.PublicKey {
	return s.owner
}

// Network returns the network the signer is bound to.
func (s *Signer) Network() x402.Network {
	return s.network
}

// SignPayment builds a partially signed USDC transfer of req.Amount to req.To,
// paid for by req.FeePayer (DefaultFeePayer when empty), and returns the
// base64 X-PAYMENT header.
func (s *Signer) SignPayment(ctx context.Context, req x402.SignRequest) (string, error) {
	if req.Source != s.network {
		return "", apierrors.Newf(apierrors.ErrCodeSigning, "solana signer is bound to %s, not %s", s.network, req.Source)
	}

	amount, err := money.FromMajor(money.USDC, req.Amount)
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "convert amount to atomic units")
	}
	atomic, err := amount.Uint64()
	if err != nil || atomic == 0 {
		return "", apierrors.Newf(apierrors.ErrCodeSigning, "amount must be positive, got %s", req.Amount)
	}

	recipient, err := solana.PublicKeyFromBase58(req.To)
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "invalid solana recipient address")
	}

	feePayer := DefaultFeePayer
	if req.FeePayer != "" {
		feePayer, err = solana.PublicKeyFromBase58(req.FeePayer)
		if err != nil {
			return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "invalid fee payer address")
		}
	}

	program, err := s.mintProgram(ctx)
	if err != nil {
		return "", err
	}

	recipientATA, err := FindATA(recipient, s.mint, program)
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "derive recipient token account")
	}
	_, ataExists, err := s.rpc.accountOwner(ctx, recipientATA)
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "check recipient token account")
	}

	blockhash, err := s.rpc.latestBlockhash(ctx, s.commitment)
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "fetch latest blockhash")
	}

	instructions, err := BuildInstructions(TransferParams{
		Owner:              s.owner,
		Recipient:          recipient,
		Mint:               s.mint,
		TokenProgram:       program,
		FeePayer:           feePayer,
		Amount:             atomic,
		Decimals:           money.USDC.Decimals,
		CreateRecipientATA: !ataExists,
		ComputeUnitLimit:   s.computeUnitLimit,
		ComputeUnitPrice:   s.computeUnitPrice,
	})
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "build instructions")
	}

	txBase64, err := s.signTransaction(instructions, blockhash, feePayer)
	if err != nil {
		return "", err
	}

	payload := x402.SolanaPayload{
		Transaction: txBase64,
		FeePayer:    feePayer.String(),
	}
	if req.CrossChain() {
		payload.DestinationNetwork = req.Destination.Name()
		payload.DestinationAddress = req.DestinationAddress
	}

	header, err := x402.EncodeHeader(req.Source, payload)
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "encode solana payment header")
	}

	log := s.log
	if id := logger.GetPaymentID(ctx); id != "" {
		log = log.With().Str("payment_id", id).Logger()
	}
	log.Debug().
		Str("network", s.network.Name()).
		Str("recipient", logger.TruncateAddress(req.To)).
		Str("fee_payer", logger.TruncateAddress(feePayer.String())).
		Bool("creates_ata", !ataExists).
		Str("token_program", program.String()).
		Msg("solana.payment_signed")

	return header, nil
}

// signTransaction compiles a v0 message and signs with the sender key only.
func (s *Signer) signTransaction(instructions []solana.Instruction, blockhash solana.Hash, feePayer solana.PublicKey) (string, error) {
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "build transaction")
	}
	tx.Message.SetVersion(solana.MessageVersionV0)

	// The fee payer signature slot stays empty for the facilitator
	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.owner) {
			return &s.key
		}
		return nil
	}); err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "sign transaction")
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "serialize transaction")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// mintProgram detects whether the USDC mint is owned by SPL Token or Token-2022.
// The result is cached after the first successful lookup.
func (s *Signer) mintProgram(ctx context.Context) (solana.PublicKey, error) {
	s.programMu.Lock()
	cached := s.tokenProgram
	s.programMu.Unlock()
	if !cached.IsZero() {
		return cached, nil
	}

	owner, found, err := s.rpc.accountOwner(ctx, s.mint)
	if err != nil {
		return solana.PublicKey{}, apierrors.Wrap(apierrors.ErrCodeSigning, err, "look up usdc mint")
	}
	if !found {
		return solana.PublicKey{}, apierrors.Newf(apierrors.ErrCodeSigning, "usdc mint %s not found on %s", s.mint, s.network)
	}
	if !owner.Equals(solana.TokenProgramID) && !owner.Equals(Token2022ProgramID) {
		return solana.PublicKey{}, apierrors.Newf(apierrors.ErrCodeSigning, "usdc mint owned by unexpected program %s", owner)
	}

	s.programMu.Lock()
	s.tokenProgram = owner
	s.programMu.Unlock()
	return owner, nil
}
