package fees

import (
	"errors"
	"strings"
	"testing"

	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func standardConfig() Config {
	return Config{
		Tier:                 "standard",
		SameChainFeePercent:  d("0.1"),
		CrossChainFeePercent: d("0.1"),
		MinimumCrossChainFee: d("0.01"),
		ATACreationFee:       d("0.40"),
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name           string
		in             Input
		wantProcessing string
		wantATA        string
		wantTotal      string
		wantNet        string
		wantMinimum    bool
	}{
		{
			name:           "same chain percent",
			in:             Input{Gross: "100.00"},
			wantProcessing: "0.1",
			wantATA:        "0",
			wantTotal:      "0.1",
			wantNet:        "99.9",
		},
		{
			name:           "same chain has no floor",
			in:             Input{Gross: "0.05"},
			wantProcessing: "0.00005",
			wantATA:        "0",
			wantTotal:      "0.00005",
			wantNet:        "0.04995",
		},
		{
			name:           "cross chain floor",
			in:             Input{Gross: "0.05", CrossChain: true},
			wantProcessing: "0.01",
			wantATA:        "0",
			wantTotal:      "0.01",
			wantNet:        "0.04",
			wantMinimum:    true,
		},
		{
			name:           "cross chain above floor",
			in:             Input{Gross: "$50", CrossChain: true},
			wantProcessing: "0.05",
			wantATA:        "0",
			wantTotal:      "0.05",
			wantNet:        "49.95",
		},
		{
			name:           "account creation added",
			in:             Input{Gross: "10 USDC", NeedsATA: true},
			wantProcessing: "0.01",
			wantATA:        "0.4",
			wantTotal:      "0.41",
			wantNet:        "9.59",
		},
		{
			name:           "net clamps at zero",
			in:             Input{Gross: "0.20", CrossChain: true, NeedsATA: true},
			wantProcessing: "0.01",
			wantATA:        "0.4",
			wantTotal:      "0.41",
			wantNet:        "0",
			wantMinimum:    true,
		},
		{
			name:           "rounds to atomic precision",
			in:             Input{Gross: "0.0123456"},
			wantProcessing: "0.000012",
			wantATA:        "0",
			wantTotal:      "0.000012",
			wantNet:        "0.0123336",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(standardConfig(), tt.in)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			checks := []struct {
				field string
				got   decimal.Decimal
				want  string
			}{
				{"processing", got.ProcessingFee, tt.wantProcessing},
				{"ata", got.ATACreationFee, tt.wantATA},
				{"total", got.TotalFees, tt.wantTotal},
				{"net", got.NetAmount, tt.wantNet},
			}
			for _, c := range checks {
				if !c.got.Equal(d(c.want)) {
					t.Errorf("%s = %s, want %s", c.field, c.got, c.want)
				}
			}
			if got.MinimumFeeApplied != tt.wantMinimum {
				t.Errorf("MinimumFeeApplied = %v, want %v", got.MinimumFeeApplied, tt.wantMinimum)
			}
		})
	}
}

func TestCalculate_SumAndNetProperties(t *testing.T) {
	configs := []Config{
		standardConfig(),
		{SameChainFeePercent: d("0.3"), CrossChainFeePercent: d("0.5"), MinimumCrossChainFee: d("0.25"), ATACreationFee: d("0.002")},
		{SameChainFeePercent: d("0"), CrossChainFeePercent: d("0"), MinimumCrossChainFee: d("0"), ATACreationFee: d("0")},
	}
	amounts := []string{"0.01", "0.05", "0.2", "1", "3.33", "1000", "123456.78"}

	for _, cfg := range configs {
		for _, amount := range amounts {
			for _, cross := range []bool{false, true} {
				for _, ata := range []bool{false, true} {
					b, err := Calculate(cfg, Input{Gross: amount, CrossChain: cross, NeedsATA: ata})
					if err != nil {
						t.Fatalf("Calculate(%s): %v", amount, err)
					}
					if !b.TotalFees.Equal(b.ProcessingFee.Add(b.ATACreationFee)) {
						t.Errorf("%s: total %s != processing %s + ata %s", amount, b.TotalFees, b.ProcessingFee, b.ATACreationFee)
					}
					want := b.GrossAmount.Sub(b.TotalFees)
					if want.IsNegative() {
						want = decimal.Zero
					}
					if !b.NetAmount.Equal(want) {
						t.Errorf("%s: net %s, want %s", amount, b.NetAmount, want)
					}
				}
			}
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	in := Input{Gross: "7.77", CrossChain: true, NeedsATA: true}
	first, err := Calculate(standardConfig(), in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Calculate(standardConfig(), in)
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalFees.String() != second.TotalFees.String() || first.NetAmount.String() != second.NetAmount.String() {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestCalculate_InvalidAmount(t *testing.T) {
	for _, amount := range []string{"0", "-1", "abc", ""} {
		t.Run(amount, func(t *testing.T) {
			_, err := Calculate(standardConfig(), Input{Gross: amount})
			if !errors.Is(err, apierrors.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCalculate_NegativeConfig(t *testing.T) {
	cfg := standardConfig()
	cfg.ATACreationFee = d("-1")
	_, err := Calculate(cfg, Input{Gross: "1"})
	if !errors.Is(err, apierrors.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestCheckSufficient(t *testing.T) {
	b, err := Calculate(standardConfig(), Input{Gross: "0.20", CrossChain: true, NeedsATA: true})
	if err != nil {
		t.Fatal(err)
	}

	err = b.CheckSufficient()
	if !errors.Is(err, apierrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"$0.20", "$0.41", "processing fee $0.01", "account creation fee $0.40", "minimum payment is $0.42"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) || apiErr.Details["minimumAmount"] != "0.42" {
		t.Errorf("expected minimumAmount detail, got %+v", apiErr)
	}

	ok, err := Calculate(standardConfig(), Input{Gross: "0.41", NeedsATA: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := ok.CheckSufficient(); err != nil {
		t.Errorf("0.41 covers 0.400410 fees, got %v", err)
	}
}

func TestFormatUSD(t *testing.T) {
	tests := map[string]string{
		"0.4":     "$0.40",
		"10":      "$10.00",
		"0.00005": "$0.00005",
	}
	for in, want := range tests {
		if got := FormatUSD(d(in)); got != want {
			t.Errorf("FormatUSD(%s) = %s, want %s", in, got, want)
		}
	}
}
