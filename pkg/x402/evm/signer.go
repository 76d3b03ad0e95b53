// Package evm signs EIP-3009 TransferWithAuthorization payloads for USDC on
// EVM networks.
package evm

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/money"
	"github.com/onchainfi/uplink/pkg/x402"
)

// Signer holds a key bound to one EVM network's chain id and USDC contract.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	network x402.Network

	random io.Reader
	now    func() time.Time
}

// Option configures a Signer.
type Option func(*Signer) error

// WithRandom sets the nonce source (crypto/rand by default).
func WithRandom(r io.Reader) Option {
	return func(s *Signer) error {
		if r == nil {
			return fmt.Errorf("nonce source cannot be nil")
		}
		s.random = r
		return nil
	}
}

// WithClock sets the clock used for the validity window.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		s.now = now
		return nil
	}
}

// NewSigner creates a signer for the given EVM network.
func NewSigner(network x402.Network, key *ecdsa.PrivateKey, opts ...Option) (*Signer, error) {
	if !network.IsEVM() {
		return nil, apierrors.Newf(apierrors.ErrCodeConfig, "network %s is not an EVM network", network)
	}
	if key == nil {
		return nil, apierrors.New(apierrors.ErrCodeConfig, "evm private key is required")
	}

	s := &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		network: network,
		random:  rand.Reader,
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, apierrors.Wrap(apierrors.ErrCodeConfig, err, "evm signer option")
		}
	}
	return s, nil
}

// Address returns the payer address.
func (s *Signer) Address() common.Address {
	return s.address
}

// Network returns the network the signer is bound to.
func (s *Signer) Network() x402.Network {
	return s.network
}

// SignPayment authorizes a transfer of req.Amount USDC to req.To and returns
// the base64 X-PAYMENT header. The destination network does not change the
// signature; cross-chain routing is handled by the aggregator behind the
// deposit address.
func (s *Signer) SignPayment(ctx context.Context, req x402.SignRequest) (string, error) {
	if req.Source != s.network {
		return "", apierrors.Newf(apierrors.ErrCodeSigning, "evm signer is bound to %s, not %s", s.network, req.Source)
	}
	payload, err := s.Authorize(req.To, req.Amount)
	if err != nil {
		return "", err
	}
	header, err := x402.EncodeHeader(req.Source, payload)
	if err != nil {
		return "", apierrors.Wrap(apierrors.ErrCodeSigning, err, "encode evm payment header")
	}
	return header, nil
}

// Authorize builds and signs the TransferWithAuthorization payload.
func (s *Signer) Authorize(to, amount string) (x402.EVMPayload, error) {
	if !common.IsHexAddress(to) {
		return x402.EVMPayload{}, apierrors.Newf(apierrors.ErrCodeSigning, "invalid evm recipient address %q", to)
	}

	value, err := money.FromMajor(money.USDC, amount)
	if err != nil {
		return x402.EVMPayload{}, apierrors.Wrap(apierrors.ErrCodeSigning, err, "convert amount to atomic units")
	}
	if !value.IsPositive() {
		return x402.EVMPayload{}, apierrors.Newf(apierrors.ErrCodeSigning, "amount must be positive, got %s", amount)
	}

	var nonce [32]byte
	if _, err := io.ReadFull(s.random, nonce[:]); err != nil {
		return x402.EVMPayload{}, apierrors.Wrap(apierrors.ErrCodeSigning, err, "generate nonce")
	}

	auth := authorization{
		From:        s.address,
		To:          common.HexToAddress(to),
		Value:       value.BigInt(),
		ValidAfter:  big.NewInt(0),
		ValidBefore: big.NewInt(s.now().Add(x402.AuthorizationValidity).Unix()),
		Nonce:       nonce,
	}

	digest, err := auth.digest(s.network)
	if err != nil {
		return x402.EVMPayload{}, apierrors.Wrap(apierrors.ErrCodeSigning, err, "hash typed data")
	}

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return x402.EVMPayload{}, apierrors.Wrap(apierrors.ErrCodeSigning, err, "sign authorization")
	}
	sig[64] += 27

	return x402.EVMPayload{
		Signature: "0x" + hex.EncodeToString(sig),
		Authorization: x402.Authorization{
			From:        auth.From.Hex(),
			To:          auth.To.Hex(),
			Value:       auth.Value.String(),
			ValidAfter:  auth.ValidAfter.String(),
			ValidBefore: auth.ValidBefore.String(),
			Nonce:       "0x" + hex.EncodeToString(auth.Nonce[:]),
		},
	}, nil
}

type authorization struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	ValidAfter  *big.Int
	ValidBefore *big.Int
	Nonce       [32]byte
}

// typedData returns the EIP-712 structure of a TransferWithAuthorization on network.
func (a authorization) typedData(network x402.Network) apitypes.TypedData {
	name, version := network.TokenDomain()
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"TransferWithAuthorization": []apitypes.Type{
				{Name: "from", Type: "address"},
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "validAfter", Type: "uint256"},
				{Name: "validBefore", Type: "uint256"},
				{Name: "nonce", Type: "bytes32"},
			},
		},
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              name,
			Version:           version,
			ChainId:           (*math.HexOrDecimal256)(network.ChainID()),
			VerifyingContract: network.USDCAddress(),
		},
		Message: apitypes.TypedDataMessage{
			"from":        a.From.Hex(),
			"to":          a.To.Hex(),
			"value":       (*math.HexOrDecimal256)(a.Value),
			"validAfter":  (*math.HexOrDecimal256)(a.ValidAfter),
			"validBefore": (*math.HexOrDecimal256)(a.ValidBefore),
			"nonce":       common.BytesToHash(a.Nonce[:]).Hex(),
		},
	}
}

// digest computes keccak256(0x19 0x01 || domainSeparator || structHash).
func (a authorization) digest(network x402.Network) ([]byte, error) {
	td := a.typedData(network)

	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("hash message: %w", err)
	}

	raw := make([]byte, 0, 66)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, messageHash...)
	return crypto.Keccak256(raw), nil
}

// RecoverSigner returns the address that produced payload's signature on network.
func RecoverSigner(network x402.Network, payload x402.EVMPayload) (common.Address, error) {
	auth, err := parseAuthorization(payload.Authorization)
	if err != nil {
		return common.Address{}, err
	}
	digest, err := auth.digest(network)
	if err != nil {
		return common.Address{}, err
	}

	sig, err := hex.DecodeString(trim0x(payload.Signature))
	if err != nil || len(sig) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature encoding")
	}
	sig[64] -= 27

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func parseAuthorization(a x402.Authorization) (authorization, error) {
	value, ok := new(big.Int).SetString(a.Value, 10)
	if !ok {
		return authorization{}, fmt.Errorf("invalid value %q", a.Value)
	}
	validAfter, err := strconv.ParseInt(a.ValidAfter, 10, 64)
	if err != nil {
		return authorization{}, fmt.Errorf("invalid validAfter: %w", err)
	}
	validBefore, err := strconv.ParseInt(a.ValidBefore, 10, 64)
	if err != nil {
		return authorization{}, fmt.Errorf("invalid validBefore: %w", err)
	}
	nonceBytes, err := hex.DecodeString(trim0x(a.Nonce))
	if err != nil || len(nonceBytes) != 32 {
		return authorization{}, fmt.Errorf("invalid nonce %q", a.Nonce)
	}

	auth := authorization{
		From:        common.HexToAddress(a.From),
		To:          common.HexToAddress(a.To),
		Value:       value,
		ValidAfter:  big.NewInt(validAfter),
		ValidBefore: big.NewInt(validBefore),
	}
	copy(auth.Nonce[:], nonceBytes)
	return auth, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
