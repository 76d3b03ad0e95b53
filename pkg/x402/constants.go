package x402

import "time"

// Protocol constants for the X-PAYMENT envelope.
const (
	// Version is the x402Version written into every envelope.
	Version = 1

	// SchemeExact is the only payment scheme produced: pay exactly the signed amount.
	SchemeExact = "exact"
)

// Authorization timing
const (
	// AuthorizationValidity is how long an EIP-3009 authorization stays valid.
	AuthorizationValidity = time.Hour
)
