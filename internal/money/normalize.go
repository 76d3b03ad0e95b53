package money

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount string holds no parsable number.
var ErrInvalidAmount = errors.New("money: invalid amount")

// Normalize converts a human amount ("$10", "10 USDC", "1,000.5") into the
// canonical 2-decimal form used on the wire ("10.00", "1000.50").
// Normalizing an already-normalized amount returns it unchanged.
func Normalize(raw string) (string, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return "", err
	}
	return d.StringFixed(2), nil
}

// ParseAmount strips currency decoration and parses the remaining number.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsSpace(r)
	})
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}
