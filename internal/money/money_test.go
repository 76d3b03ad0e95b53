package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"dollar prefix", "$10", "10.00", false},
		{"already normalized", "10.00", "10.00", false},
		{"token label", "10 USDC", "10.00", false},
		{"lowercase label no space", "10usdc", "10.00", false},
		{"dollar and label", "$2.5 USDC", "2.50", false},
		{"thousands separator", "1,000.5", "1000.50", false},
		{"rounds half up", "0.125", "0.13", false},
		{"surrounding whitespace", "  7  ", "7.00", false},
		{"empty", "", "", true},
		{"only symbol", "$", "", true},
		{"label only", "USDC", "", true},
		{"garbage", "ten dollars", "", true},
		{"two points", "1.2.3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"$10", "10 USDC", "0.05", "$1,234.567", "99.999"}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestFromMajor(t *testing.T) {
	tests := []struct {
		name       string
		major      string
		wantAtomic int64
		wantErr    bool
	}{
		{"USDC 1.5", "1.5", 1500000, false},
		{"USDC 10", "10", 10000000, false},
		{"USDC 0.000001", "0.000001", 1, false},
		{"USDC rounding up", "0.0000005", 1, false},
		{"USDC rounding down", "0.0000004", 0, false},
		{"invalid format", "10.50.30", 0, true},
		{"invalid number", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromMajor(USDC, tt.major)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromMajor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Atomic != tt.wantAtomic {
				t.Errorf("FromMajor() = %d, want %d", got.Atomic, tt.wantAtomic)
			}
		})
	}
}

func TestMoney_Conversions(t *testing.T) {
	m, err := FromDecimal(USDC, decimal.RequireFromString("10.25"))
	if err != nil {
		t.Fatal(err)
	}
	if m.ToMajor() != "10.250000" {
		t.Errorf("ToMajor() = %s", m.ToMajor())
	}
	if m.BigInt().Int64() != 10250000 {
		t.Errorf("BigInt() = %s", m.BigInt())
	}
	u, err := m.Uint64()
	if err != nil || u != 10250000 {
		t.Errorf("Uint64() = %d, %v", u, err)
	}
	if _, err := (Money{Asset: USDC, Atomic: -1}).Uint64(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("expected ErrNegativeAmount, got %v", err)
	}
	if m.String() != "10.250000 USDC" {
		t.Errorf("String() = %s", m.String())
	}
}

func TestFromDecimal_Overflow(t *testing.T) {
	_, err := FromDecimal(USDC, decimal.RequireFromString("99999999999999999999"))
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}
