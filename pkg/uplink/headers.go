package uplink

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/onchainfi/uplink/internal/aggregator"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/logger"
	"github.com/onchainfi/uplink/pkg/x402"
	"github.com/onchainfi/uplink/pkg/x402/solana"
)

// buildHeaders signs req with the signer registered for its source network.
func (c *Client) buildHeaders(ctx context.Context, req x402.SignRequest, priority Priority) ([]FacilitatorHeader, error) {
	signer, ok := c.signers[req.Source]
	if !ok {
		return nil, apierrors.Newf(apierrors.ErrCodeValidation, "no signing key configured for %s", req.Source).
			WithDetail("sourceNetwork", req.Source.Name())
	}

	switch req.Source.Family() {
	case x402.FamilyEVM:
		return evmHeaders(ctx, signer, req)
	case x402.FamilySolana:
		return c.solanaHeaders(ctx, signer, req, priority)
	default:
		return nil, apierrors.Newf(apierrors.ErrCodeValidation, "unsupported network %s", req.Source)
	}
}

// evmHeaders returns one header that any facilitator accepts.
func evmHeaders(ctx context.Context, signer Signer, req x402.SignRequest) ([]FacilitatorHeader, error) {
	header, err := signer.SignPayment(ctx, req)
	if err != nil {
		return nil, asSigningError(err)
	}
	return []FacilitatorHeader{{Header: header}}, nil
}

// solanaHeaders signs one header per ranked facilitator that exposes a fee
// payer, in rank order. Without a usable ranking a single header is signed
// for DefaultFeePayer.
func (c *Client) solanaHeaders(ctx context.Context, signer Signer, req x402.SignRequest, priority Priority) ([]FacilitatorHeader, error) {
	log := logger.FromContext(ctx)

	ranked, err := c.api.RankedFacilitators(ctx, req.Source.Name(), string(priority))
	if err != nil {
		if apierrors.CodeOf(err).Aborts() {
			return nil, err
		}
		log.Warn().
			Err(err).
			Str("network", req.Source.Name()).
			Msg("payment.ranking_failed")
		ranked = nil
	}

	var candidates []FacilitatorHeader
	for _, f := range ranked {
		if f.SolanaFeePayer == "" {
			log.Debug().
				Str("facilitator", f.Name).
				Msg("payment.facilitator_skipped")
			continue
		}
		candidates = append(candidates, candidateFor(f))
	}
	if len(candidates) == 0 {
		candidates = []FacilitatorHeader{{
			Facilitator: DefaultFacilitator,
			FeePayer:    solana.DefaultFeePayer.String(),
		}}
	}

	errs := make([]error, len(candidates))
	g := new(errgroup.Group)
	g.SetLimit(c.signConcurrency)
	for i := range candidates {
		i := i
		g.Go(func() error {
			signReq := req
			signReq.FeePayer = candidates[i].FeePayer
			header, err := signer.SignPayment(ctx, signReq)
			if err != nil {
				errs[i] = err
				return nil
			}
			candidates[i].Header = header
			return nil
		})
	}
	_ = g.Wait()

	headers := make([]FacilitatorHeader, 0, len(candidates))
	var lastErr error
	for i, cand := range candidates {
		if errs[i] != nil {
			lastErr = errs[i]
			log.Warn().
				Err(errs[i]).
				Str("facilitator", cand.Facilitator).
				Str("fee_payer", logger.TruncateAddress(cand.FeePayer)).
				Msg("payment.sign_failed")
			continue
		}
		headers = append(headers, cand)
	}

	if len(headers) == 0 {
		return nil, asSigningError(lastErr)
	}
	return headers, nil
}

func candidateFor(f aggregator.Facilitator) FacilitatorHeader {
	return FacilitatorHeader{
		Facilitator:   f.Name,
		FacilitatorID: f.ID,
		FeePayer:      f.SolanaFeePayer,
	}
}

// asSigningError keeps pipeline errors intact and classifies anything else
// as a signing failure.
func asSigningError(err error) error {
	var e *apierrors.Error
	if apierrors.As(err, &e) {
		return err
	}
	return apierrors.Wrap(apierrors.ErrCodeSigning, err, "sign payment")
}
