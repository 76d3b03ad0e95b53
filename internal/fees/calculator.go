// Package fees recomputes the aggregator's fee formula on the client so a
// payment can be refused before anything is signed.
package fees

import (
	"strings"

	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/money"
	"github.com/shopspring/decimal"
)

// Precision is the number of decimals fees are rounded to (USDC atomic units).
const Precision = 6

var (
	hundred = decimal.NewFromInt(100)

	// ViabilityMargin is added to total fees to suggest the smallest payment that clears them.
	ViabilityMargin = decimal.RequireFromString("0.01")
)

// Config is the fee configuration snapshot returned by the aggregator.
type Config struct {
	Tier                 string          `json:"tier"`
	SameChainFeePercent  decimal.Decimal `json:"samechainFeePercent"`
	CrossChainFeePercent decimal.Decimal `json:"crosschainFeePercent"`
	MinimumCrossChainFee decimal.Decimal `json:"minimumCrosschainFee"`
	ATACreationFee       decimal.Decimal `json:"ataCreationFee"`
}

// Breakdown is the client-side fee computation for one payment.
type Breakdown struct {
	GrossAmount          decimal.Decimal `json:"grossAmount"`
	ProcessingFee        decimal.Decimal `json:"processingFee"`
	ProcessingFeePercent decimal.Decimal `json:"processingFeePercent"`
	ATACreationFee       decimal.Decimal `json:"ataCreationFee"`
	TotalFees            decimal.Decimal `json:"totalFees"`
	NetAmount            decimal.Decimal `json:"netAmount"`
	MinimumFeeApplied    bool            `json:"minimumFeeApplied"`
	CrossChain           bool            `json:"crossChain"`
}

// Input describes the payment being priced.
type Input struct {
	Gross      string // amount in major units, decoration allowed
	CrossChain bool   // source and destination networks differ
	NeedsATA   bool   // destination token account must be created
}

// Calculate applies the aggregator formula:
//
//	processing = gross * pct / 100   (cross-chain or same-chain pct)
//	processing = max(processing, minimum)   (cross-chain only)
//	ata        = creation fee if the destination needs an account
//	total      = processing + ata
//	net        = max(0, gross - total)
func Calculate(cfg Config, in Input) (Breakdown, error) {
	gross, err := money.ParseAmount(in.Gross)
	if err != nil {
		return Breakdown{}, apierrors.Wrap(apierrors.ErrCodeValidation, err, "amount is not a number")
	}
	if !gross.IsPositive() {
		return Breakdown{}, apierrors.Newf(apierrors.ErrCodeValidation, "amount must be positive, got %s", gross.String()).
			WithDetail("amount", in.Gross)
	}
	if err := cfg.validate(); err != nil {
		return Breakdown{}, err
	}

	pct := cfg.SameChainFeePercent
	if in.CrossChain {
		pct = cfg.CrossChainFeePercent
	}

	processing := gross.Mul(pct).Div(hundred).Round(Precision)
	minimumApplied := false
	if in.CrossChain && processing.LessThan(cfg.MinimumCrossChainFee) {
		processing = cfg.MinimumCrossChainFee.Round(Precision)
		minimumApplied = true
	}

	ata := decimal.Zero
	if in.NeedsATA {
		ata = cfg.ATACreationFee.Round(Precision)
	}

	total := processing.Add(ata)
	net := gross.Sub(total)
	if net.IsNegative() {
		net = decimal.Zero
	}

	return Breakdown{
		GrossAmount:          gross,
		ProcessingFee:        processing,
		ProcessingFeePercent: pct,
		ATACreationFee:       ata,
		TotalFees:            total,
		NetAmount:            net,
		MinimumFeeApplied:    minimumApplied,
		CrossChain:           in.CrossChain,
	}, nil
}

func (c Config) validate() error {
	fields := map[string]decimal.Decimal{
		"samechainFeePercent":  c.SameChainFeePercent,
		"crosschainFeePercent": c.CrossChainFeePercent,
		"minimumCrosschainFee": c.MinimumCrossChainFee,
		"ataCreationFee":       c.ATACreationFee,
	}
	for name, v := range fields {
		if v.IsNegative() {
			return apierrors.Newf(apierrors.ErrCodeConfig, "fee config %s is negative: %s", name, v.String())
		}
	}
	return nil
}

// MinimumViableAmount is the smallest gross amount that covers the fees.
func (b Breakdown) MinimumViableAmount() decimal.Decimal {
	return b.TotalFees.Add(ViabilityMargin)
}

// CheckSufficient rejects a payment whose gross amount does not cover its fees.
// The error itemizes every fee so the caller can retry with a corrected amount.
func (b Breakdown) CheckSufficient() error {
	if !b.GrossAmount.LessThan(b.TotalFees) {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("amount ")
	sb.WriteString(FormatUSD(b.GrossAmount))
	sb.WriteString(" does not cover total fees ")
	sb.WriteString(FormatUSD(b.TotalFees))
	sb.WriteString(" (processing fee ")
	sb.WriteString(FormatUSD(b.ProcessingFee))
	if b.MinimumFeeApplied {
		sb.WriteString(" minimum")
	}
	if b.ATACreationFee.IsPositive() {
		sb.WriteString(", account creation fee ")
		sb.WriteString(FormatUSD(b.ATACreationFee))
	}
	sb.WriteString("); minimum payment is ")
	sb.WriteString(FormatUSD(b.MinimumViableAmount()))

	err := apierrors.New(apierrors.ErrCodeValidation, sb.String())
	err.Details = map[string]any{
		"grossAmount":    b.GrossAmount.String(),
		"processingFee":  b.ProcessingFee.String(),
		"ataCreationFee": b.ATACreationFee.String(),
		"totalFees":      b.TotalFees.String(),
		"minimumAmount":  b.MinimumViableAmount().String(),
	}
	return err
}

// FormatUSD renders an amount with 2 decimals, or with its full precision
// when cents would hide part of it.
func FormatUSD(d decimal.Decimal) string {
	if d.Round(2).Equal(d) {
		return "$" + d.StringFixed(2)
	}
	return "$" + d.String()
}
