package money

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Money represents an amount in atomic units for a specific asset.
//
// Examples:
//   - 1.5 USDC  = Money{Asset: USDC, Atomic: 1500000}
//   - 0.01 USDC = Money{Asset: USDC, Atomic: 10000}
type Money struct {
	Asset  Asset // The token
	Atomic int64 // Amount in smallest unit
}

var (
	// ErrInvalidFormat occurs when parsing fails.
	ErrInvalidFormat = errors.New("money: invalid format")

	// ErrNegativeAmount occurs when a negative amount is invalid for the operation.
	ErrNegativeAmount = errors.New("money: negative amount not allowed")

	// ErrOverflow occurs when an amount exceeds int64 atomic capacity.
	ErrOverflow = errors.New("money: arithmetic overflow")
)

// FromMajor creates Money from a major unit string (e.g., "10.50").
// Fractions beyond the asset precision are rounded half-up.
//
// Examples:
//   - FromMajor(USDC, "1.5")      → 1500000
//   - FromMajor(USDC, "0.0000005") → 1
func FromMajor(asset Asset, major string) (Money, error) {
	d, err := decimal.NewFromString(major)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return FromDecimal(asset, d)
}

// FromDecimal converts a major-unit decimal to atomic units (half-up).
func FromDecimal(asset Asset, major decimal.Decimal) (Money, error) {
	atomic := major.Shift(int32(asset.Decimals)).Round(0)
	if !atomic.BigInt().IsInt64() {
		return Money{}, ErrOverflow
	}
	return Money{Asset: asset, Atomic: atomic.IntPart()}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Atomic, -int32(m.Asset.Decimals))
}

// ToMajor renders the amount in major units with full asset precision.
func (m Money) ToMajor() string {
	return m.Decimal().StringFixed(int32(m.Asset.Decimals))
}

// Uint64 returns the atomic amount for on-chain instructions.
func (m Money) Uint64() (uint64, error) {
	if m.Atomic < 0 {
		return 0, ErrNegativeAmount
	}
	return uint64(m.Atomic), nil
}

// BigInt returns the atomic amount for EVM typed data.
func (m Money) BigInt() *big.Int {
	return big.NewInt(m.Atomic)
}

// IsPositive returns true if amount > 0.
func (m Money) IsPositive() bool {
	return m.Atomic > 0
}

// String returns a human-readable representation ("1.500000 USDC").
func (m Money) String() string {
	return m.ToMajor() + " " + m.Asset.Code
}
