package aggregator

import (
	"encoding/json"

	"github.com/onchainfi/uplink/internal/fees"
)

// Endpoint paths, relative to the API base URL.
const (
	PathPreparePayment     = "/prepare-payment"
	PathRankedFacilitators = "/facilitators/ranked"
	PathFacilitatorConfig  = "/facilitators/config"
	PathBridgePrepare      = "/bridge/prepare"
	PathPay                = "/pay"
)

// APIKeyHeader carries the static API key on every call.
const APIKeyHeader = "X-API-Key"

// CodeFeeMismatch is the settlement error code for diverging fee totals.
const CodeFeeMismatch = "FEE_MISMATCH"

// PrepareRequest asks the aggregator how to route a payment.
type PrepareRequest struct {
	To                 string `json:"to"`
	Amount             string `json:"amount"`
	SourceNetwork      string `json:"sourceNetwork"`
	DestinationNetwork string `json:"destinationNetwork"`
	Token              string `json:"token"`
}

// Preparation is the routing and fee snapshot for one payment attempt.
type Preparation struct {
	FeeConfig                 fees.Config `json:"feeConfig"`
	NeedsATA                  bool        `json:"needsATA"`
	SigningAddress            string      `json:"signingAddress"`
	SigningAddressDescription string      `json:"signingAddressDescription,omitempty"`
	BridgeOrderID             string      `json:"bridgeOrderId,omitempty"`
	SourceNetwork             string      `json:"sourceNetwork"`
	DestinationNetwork        string      `json:"destinationNetwork"`
	CrossChain                bool        `json:"crossChain"`
}

// Facilitator is one entry of the ranked facilitator list.
type Facilitator struct {
	Name           string `json:"facilitatorName"`
	ID             string `json:"facilitatorId"`
	SolanaFeePayer string `json:"solanaFeePayer,omitempty"`
}

// FacilitatorConfig maps each network to its intermediate settlement wallet.
type FacilitatorConfig struct {
	IntermediateWallets map[string]string `json:"intermediateWallets"`
}

// BridgeRequest asks for a cross-chain deposit address.
type BridgeRequest struct {
	SourceNetwork      string `json:"sourceNetwork"`
	DestinationNetwork string `json:"destinationNetwork"`
	Recipient          string `json:"recipient"`
	Amount             string `json:"amount"`
}

// BridgeOrder is the deposit address the signer pays into for cross-chain payments.
type BridgeOrder struct {
	DepositAddress string `json:"depositAddress"`
	OrderID        string `json:"bridgeOrderId"`
}

// PayRequest submits one signed header for settlement.
type PayRequest struct {
	PaymentHeader      string          `json:"paymentHeader"`
	To                 string          `json:"to"`
	Amount             string          `json:"amount"`
	SourceNetwork      string          `json:"sourceNetwork"`
	DestinationNetwork string          `json:"destinationNetwork"`
	Token              string          `json:"token"`
	Priority           string          `json:"priority,omitempty"`
	Facilitator        string          `json:"facilitator,omitempty"` // required for Solana headers
	IdempotencyKey     string          `json:"idempotencyKey,omitempty"`
	Metadata           map[string]any  `json:"metadata,omitempty"`
	BridgeOrderID      string          `json:"bridgeOrderId,omitempty"`
	ExpectedFees       *fees.Breakdown `json:"expectedFees,omitempty"` // server-side cross-check
}

// Settlement is a successful /pay response.
type Settlement struct {
	TxHash      string `json:"txHash"`
	Facilitator string `json:"facilitator"`
	Verified    bool   `json:"verified"`
	Settled     bool   `json:"settled"`
}

// envelope is the common response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Details map[string]any  `json:"details,omitempty"`
}
