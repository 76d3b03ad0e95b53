package uplink

import (
	"github.com/onchainfi/uplink/internal/fees"
)

// Priority hints how the aggregator ranks facilitators.
type Priority string

const (
	PrioritySpeed       Priority = "speed"
	PriorityCost        Priority = "cost"
	PriorityReliability Priority = "reliability"
	PriorityBalanced    Priority = "balanced"
)

// DefaultFacilitator names the header signed for the built-in Solana fee
// payer when no ranked facilitator offers one.
const DefaultFacilitator = "default"

// FeeBreakdown is the client-side fee computation for a payment.
type FeeBreakdown = fees.Breakdown

// PaymentRequest describes one USDC payment.
type PaymentRequest struct {
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required"` // "$10", "10 USDC", "10.5"

	// Optional. Source defaults to the client network; destination is
	// detected from the shape of To.
	SourceNetwork      string `json:"sourceNetwork,omitempty"`
	DestinationNetwork string `json:"destinationNetwork,omitempty"`

	// PaymentHeader is a pre-signed X-PAYMENT header; signing is skipped.
	PaymentHeader string `json:"paymentHeader,omitempty"`

	// IdempotencyKey is sent with every settlement attempt. Generated when empty.
	IdempotencyKey string         `json:"idempotencyKey,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Priority       Priority       `json:"priority,omitempty" validate:"omitempty,oneof=speed cost reliability balanced"`
}

// FacilitatorHeader is a signed header bound to a facilitator. Facilitator is
// empty for EVM headers, which any facilitator accepts.
type FacilitatorHeader struct {
	Facilitator   string
	FacilitatorID string
	Header        string
	FeePayer      string // Solana only
}

// Attempt records one failed settlement submission.
type Attempt struct {
	Facilitator string    `json:"facilitator"`
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
}

// PaymentResult is returned by a successful Pay.
type PaymentResult struct {
	TxHash      string `json:"txHash"`
	Facilitator string `json:"facilitator"`
	Verified    bool   `json:"verified"`
	Settled     bool   `json:"settled"`

	Amount             string `json:"amount"`
	SourceNetwork      string `json:"sourceNetwork"`
	DestinationNetwork string `json:"destinationNetwork"`
	Recipient          string `json:"recipient"`

	Fees           FeeBreakdown `json:"fees"`
	Attempts       []Attempt    `json:"attempts,omitempty"` // failed submissions before the successful one
	BridgeOrderID  string       `json:"bridgeOrderId,omitempty"`
	CrossChain     bool         `json:"crossChain"`
	IdempotencyKey string       `json:"idempotencyKey"`
}
