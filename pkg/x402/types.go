package x402

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PaymentPayload follows the x402 specification for the X-PAYMENT header.
// Reference: https://github.com/coinbase/x402
type PaymentPayload struct {
	X402Version int    `json:"x402Version"`
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
	Payload     any    `json:"payload"` // EVMPayload or SolanaPayload
}

// EVMPayload is the scheme payload for EIP-3009 transfers.
type EVMPayload struct {
	Signature     string        `json:"signature"`
	Authorization Authorization `json:"authorization"`
}

// Authorization mirrors TransferWithAuthorization. Numeric fields are base-10
// strings and the nonce is 0x-prefixed hex.
type Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// SolanaPayload is the scheme payload for partially signed SPL transfers.
type SolanaPayload struct {
	Transaction string `json:"transaction"` // base64 versioned transaction
	FeePayer    string `json:"feePayer,omitempty"`

	// Set only for cross-chain payments
	DestinationNetwork string `json:"destinationNetwork,omitempty"`
	DestinationAddress string `json:"destinationAddress,omitempty"`
}

// EncodeHeader serializes an envelope into the base64 header value.
func EncodeHeader(network Network, payload any) (string, error) {
	if network.IsZero() {
		return "", errors.New("x402: envelope network required")
	}
	data, err := json.Marshal(PaymentPayload{
		X402Version: Version,
		Scheme:      SchemeExact,
		Network:     network.Name(),
		Payload:     payload,
	})
	if err != nil {
		return "", fmt.Errorf("x402: marshal envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodedHeader is an envelope whose scheme payload has not been interpreted yet.
type DecodedHeader struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     json.RawMessage `json:"payload"`
}

// DecodeHeader parses a header value (base64 or raw JSON for testing).
func DecodeHeader(header string) (DecodedHeader, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return DecodedHeader{}, errors.New("x402: empty payment header")
	}

	var data []byte
	if strings.HasPrefix(raw, "{") {
		data = []byte(raw)
	} else {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(raw)
			if err != nil {
				return DecodedHeader{}, fmt.Errorf("x402: decode base64: %w", err)
			}
		}
		data = decoded
	}

	var h DecodedHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return DecodedHeader{}, fmt.Errorf("x402: parse payment payload: %w", err)
	}
	if h.Scheme != SchemeExact {
		return h, fmt.Errorf("x402: unsupported scheme %q", h.Scheme)
	}
	return h, nil
}

// EVM interprets the payload as an EIP-3009 authorization.
func (h DecodedHeader) EVM() (EVMPayload, error) {
	var p EVMPayload
	if err := json.Unmarshal(h.Payload, &p); err != nil {
		return p, fmt.Errorf("x402: parse evm payload: %w", err)
	}
	if p.Signature == "" {
		return p, errors.New("x402: evm payload missing signature")
	}
	return p, nil
}

// Solana interprets the payload as a partially signed transaction.
func (h DecodedHeader) Solana() (SolanaPayload, error) {
	var p SolanaPayload
	if err := json.Unmarshal(h.Payload, &p); err != nil {
		return p, fmt.Errorf("x402: parse solana payload: %w", err)
	}
	if p.Transaction == "" {
		return p, errors.New("x402: payment payload missing transaction")
	}
	return p, nil
}

// SignRequest describes the transfer a signer must authorize.
type SignRequest struct {
	To          string  // signing target: intermediate wallet or bridge deposit address
	Amount      string  // gross amount in major units
	Source      Network // network the funds leave from; selects the signer
	Destination Network // network the recipient is paid on

	// DestinationAddress is the final recipient; carried in Solana envelopes
	// for cross-chain payments.
	DestinationAddress string

	// FeePayer is the facilitator's Solana fee payer; empty means the default.
	FeePayer string
}

// CrossChain reports whether the payment leaves its source network.
func (r SignRequest) CrossChain() bool {
	return !r.Destination.IsZero() && r.Destination != r.Source
}
