package uplink

import (
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/pkg/x402"
)

// resolveNetworks picks the source and destination networks. The source is
// the explicit value or the client default; the destination is the explicit
// value or inferred from the shape of the recipient address, falling back
// to the client default when the shape is unrecognized.
func (c *Client) resolveNetworks(req PaymentRequest) (src, dst x402.Network, err error) {
	src = c.network
	if req.SourceNetwork != "" {
		if src, err = x402.ParseNetwork(req.SourceNetwork); err != nil {
			return src, dst, apierrors.Wrap(apierrors.ErrCodeValidation, err, "source network").
				WithDetail("sourceNetwork", req.SourceNetwork)
		}
	}

	if req.DestinationNetwork != "" {
		if dst, err = x402.ParseNetwork(req.DestinationNetwork); err != nil {
			return src, dst, apierrors.Wrap(apierrors.ErrCodeValidation, err, "destination network").
				WithDetail("destinationNetwork", req.DestinationNetwork)
		}
		return src, dst, nil
	}

	return src, x402.DetectNetwork(req.To, c.network), nil
}
