package uplink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onchainfi/uplink/internal/aggregator"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/fees"
	"github.com/onchainfi/uplink/internal/logger"
	"github.com/onchainfi/uplink/internal/metrics"
	"github.com/onchainfi/uplink/internal/money"
	"github.com/onchainfi/uplink/pkg/x402"
)

type stage string

const (
	stageIdle       stage = "idle"
	stagePreparing  stage = "preparing"
	stageFeeChecked stage = "fee_checked"
	stageSigning    stage = "signing"
	stageSubmitting stage = "submitting"
	stageSucceeded  stage = "succeeded"
	stageFailed     stage = "failed"
)

// paymentState tracks one Pay call. Submitting carries the index of the
// header being tried; the index only moves forward.
type paymentState struct {
	stage    stage
	index    int
	attempts []Attempt
	tried    []string
	log      zerolog.Logger
}

func (s *paymentState) enter(next stage) {
	s.log.Debug().
		Str("from", string(s.stage)).
		Str("to", string(next)).
		Msg("payment.state")
	s.stage = next
}

func (s *paymentState) submitting(i int, facilitator string) {
	s.index = i
	s.tried = append(s.tried, facilitatorLabel(facilitator))
	s.log.Debug().
		Str("from", string(s.stage)).
		Str("to", string(stageSubmitting)).
		Int("index", i).
		Str("facilitator", facilitatorLabel(facilitator)).
		Msg("payment.state")
	s.stage = stageSubmitting
}

func (s *paymentState) failed(facilitator string, err error) {
	s.attempts = append(s.attempts, Attempt{
		Facilitator: facilitatorLabel(facilitator),
		Code:        apierrors.CodeOf(err),
		Message:     err.Error(),
	})
}

// Pay executes one payment: it prepares with the aggregator, checks fees,
// signs, and submits the headers to facilitators in ranked order until one
// settles. Authentication and fee mismatch failures abort immediately; other
// settlement failures move to the next facilitator.
func (c *Client) Pay(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	started := time.Now()

	if err := validate.Struct(req); err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeValidation, err, "invalid payment request")
	}
	if req.Priority == "" {
		req.Priority = PriorityBalanced
	}

	amount, err := money.Normalize(req.Amount)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeValidation, err, "amount is not a number").
			WithDetail("amount", req.Amount)
	}

	src, dst, err := c.resolveNetworks(req)
	if err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	log := c.log.With().
		Str("payment_id", key).
		Str("source", src.Name()).
		Str("destination", dst.Name()).
		Str("recipient", logger.TruncateAddress(req.To)).
		Logger()
	ctx = logger.WithContext(logger.WithPaymentID(ctx, key), log)

	st := &paymentState{stage: stageIdle, log: log}
	result, err := c.pay(ctx, st, req, amount, key, src, dst)

	status := "success"
	var gross float64
	if err != nil {
		status = string(apierrors.CodeOf(err))
		st.enter(stageFailed)
	} else {
		gross = result.Fees.GrossAmount.InexactFloat64()
		st.enter(stageSucceeded)
	}
	if c.metrics != nil {
		c.metrics.ObservePayment(src.Name(), status, time.Since(started), gross)
	}
	return result, err
}

func (c *Client) pay(ctx context.Context, st *paymentState, req PaymentRequest, amount, key string, src, dst x402.Network) (*PaymentResult, error) {
	crossChain := src != dst

	st.enter(stagePreparing)
	prep, err := c.api.Prepare(ctx, aggregator.PrepareRequest{
		To:                 req.To,
		Amount:             amount,
		SourceNetwork:      src.Name(),
		DestinationNetwork: dst.Name(),
		Token:              money.USDC.Code,
	})
	if err != nil {
		return nil, err
	}
	crossChain = crossChain || prep.CrossChain

	breakdown, err := fees.Calculate(prep.FeeConfig, fees.Input{
		Gross:      amount,
		CrossChain: crossChain,
		NeedsATA:   prep.NeedsATA,
	})
	if err != nil {
		return nil, err
	}
	if breakdown.MinimumFeeApplied && c.metrics != nil {
		c.metrics.ObserveFeeMinimum()
	}
	if err := breakdown.CheckSufficient(); err != nil {
		return nil, err
	}
	st.enter(stageFeeChecked)
	st.log.Info().
		Str("amount", amount).
		Str("total_fees", breakdown.TotalFees.String()).
		Bool("cross_chain", crossChain).
		Bool("needs_ata", prep.NeedsATA).
		Msg("payment.prepare")

	target, bridgeOrderID, err := c.signingTarget(ctx, prep, req.To, amount, src, dst, crossChain)
	if err != nil {
		return nil, err
	}

	st.enter(stageSigning)
	var headers []FacilitatorHeader
	if req.PaymentHeader != "" {
		headers = []FacilitatorHeader{{Header: req.PaymentHeader}}
	} else {
		headers, err = c.buildHeaders(ctx, x402.SignRequest{
			To:                 target,
			Amount:             amount,
			Source:             src,
			Destination:        dst,
			DestinationAddress: req.To,
		}, req.Priority)
		if err != nil {
			return nil, err
		}
	}

	var lastErr error
	for i, h := range headers {
		st.submitting(i, h.Facilitator)
		settlement, err := c.api.Pay(ctx, aggregator.PayRequest{
			PaymentHeader:      h.Header,
			To:                 req.To,
			Amount:             amount,
			SourceNetwork:      src.Name(),
			DestinationNetwork: dst.Name(),
			Token:              money.USDC.Code,
			Priority:           string(req.Priority),
			Facilitator:        h.Facilitator,
			IdempotencyKey:     key,
			Metadata:           req.Metadata,
			BridgeOrderID:      bridgeOrderID,
			ExpectedFees:       &breakdown,
		})
		if err == nil {
			metrics.RecordFacilitatorAttempt(c.metrics, h.Facilitator, "success")
			facilitator := settlement.Facilitator
			if facilitator == "" {
				facilitator = h.Facilitator
			}
			st.log.Info().
				Str("tx_hash", settlement.TxHash).
				Str("facilitator", facilitator).
				Int("attempt", i+1).
				Msg("payment.settled")
			return &PaymentResult{
				TxHash:             settlement.TxHash,
				Facilitator:        facilitator,
				Verified:           settlement.Verified,
				Settled:            settlement.Settled,
				Amount:             amount,
				SourceNetwork:      src.Name(),
				DestinationNetwork: dst.Name(),
				Recipient:          req.To,
				Fees:               breakdown,
				Attempts:           st.attempts,
				BridgeOrderID:      bridgeOrderID,
				CrossChain:         crossChain,
				IdempotencyKey:     key,
			}, nil
		}

		code := apierrors.CodeOf(err)
		metrics.RecordFacilitatorAttempt(c.metrics, h.Facilitator, string(code))
		st.failed(h.Facilitator, err)
		st.log.Warn().
			Err(err).
			Str("facilitator", facilitatorLabel(h.Facilitator)).
			Int("attempt", i+1).
			Int("candidates", len(headers)).
			Msg("payment.attempt_failed")

		lastErr = err
		if ctx.Err() != nil || code.Aborts() || !code.IsRetryable() {
			break
		}
	}

	return nil, annotate(lastErr, st, breakdown)
}

// signingTarget returns the address the signed transfer pays. The aggregator
// normally supplies it; otherwise same-chain payments go to the network's
// intermediate wallet and cross-chain payments to a bridge deposit address.
func (c *Client) signingTarget(ctx context.Context, prep aggregator.Preparation, to, amount string, src, dst x402.Network, crossChain bool) (string, string, error) {
	if prep.SigningAddress != "" {
		return prep.SigningAddress, prep.BridgeOrderID, nil
	}

	if !crossChain {
		cfg, err := c.api.FacilitatorConfig(ctx)
		if err != nil {
			return "", "", err
		}
		wallet := cfg.IntermediateWallets[src.Name()]
		if wallet == "" {
			return "", "", apierrors.Newf(apierrors.ErrCodeValidation, "no intermediate wallet for %s", src).
				WithDetail("sourceNetwork", src.Name())
		}
		return wallet, "", nil
	}

	order, err := c.api.PrepareBridge(ctx, aggregator.BridgeRequest{
		SourceNetwork:      src.Name(),
		DestinationNetwork: dst.Name(),
		Recipient:          to,
		Amount:             amount,
	})
	if err != nil {
		return "", "", err
	}
	if order.DepositAddress == "" {
		return "", "", apierrors.New(apierrors.ErrCodeValidation, "bridge order has no deposit address").
			WithDetail("bridgeOrderId", order.OrderID)
	}
	return order.DepositAddress, order.OrderID, nil
}

// annotate attaches the fee breakdown and every facilitator tried to the
// final settlement error.
func annotate(err error, st *paymentState, b fees.Breakdown) error {
	var e *apierrors.Error
	if !apierrors.As(err, &e) {
		e = apierrors.Wrap(apierrors.ErrCodeInternal, err, "payment failed")
	}
	return e.
		WithDetail("facilitatorsTried", st.tried).
		WithDetail("attempts", st.attempts).
		WithDetail("amount", b.GrossAmount.String()).
		WithDetail("totalFees", b.TotalFees.String())
}

func facilitatorLabel(name string) string {
	if name == "" {
		return "auto"
	}
	return name
}
