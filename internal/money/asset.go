package money

// Asset represents a token with its atomic precision.
type Asset struct {
	Code     string // Token symbol as sent to the aggregator (USDC)
	Decimals uint8  // Number of decimal places (6 for USDC)
}

// USDC is the only asset the payment pipeline moves. Both the EVM contracts
// and the Solana mints use 6 decimals.
var USDC = Asset{Code: "USDC", Decimals: 6}
