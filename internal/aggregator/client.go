// Package aggregator is the HTTP client for the payment aggregator API.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/onchainfi/uplink/internal/circuitbreaker"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/internal/httputil"
	"github.com/onchainfi/uplink/internal/metrics"
	"github.com/onchainfi/uplink/internal/rpcutil"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client talks to the aggregator. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   rpcutil.RetryConfig
	breaker *circuitbreaker.Manager
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Its Timeout is the per-call deadline.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the retry policy for preparation and routing calls.
// Settlement is never retried against the same facilitator.
func WithRetry(cfg rpcutil.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithBreaker guards calls with the aggregator circuit breaker.
func WithBreaker(m *circuitbreaker.Manager) Option {
	return func(c *Client) { c.breaker = m }
}

// WithMetrics records API calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates an aggregator client for baseURL (for example https://api.onchain.fi/v1).
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		retry:   rpcutil.RetryConfig{MaxRetries: 0},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httputil.NewClient(120 * time.Second)
	}
	return c
}

// Prepare fetches the fee snapshot and signing target for a payment.
func (c *Client) Prepare(ctx context.Context, req PrepareRequest) (Preparation, error) {
	var out Preparation
	err := c.retried(ctx, func() error {
		return c.do(ctx, "prepare_payment", http.MethodPost, PathPreparePayment, nil, req, &out, rejectAsValidation)
	})
	return out, err
}

// RankedFacilitators returns the facilitators for network in the order the
// aggregator recommends for priority.
func (c *Client) RankedFacilitators(ctx context.Context, network, priority string) ([]Facilitator, error) {
	query := url.Values{}
	query.Set("network", network)
	if priority != "" {
		query.Set("priority", priority)
	}

	var out []Facilitator
	err := c.retried(ctx, func() error {
		out = nil
		return c.do(ctx, "facilitators_ranked", http.MethodGet, PathRankedFacilitators, query, nil, &out, rejectAsValidation)
	})
	return out, err
}

// FacilitatorConfig returns the intermediate wallet per network.
func (c *Client) FacilitatorConfig(ctx context.Context) (FacilitatorConfig, error) {
	var out FacilitatorConfig
	err := c.retried(ctx, func() error {
		return c.do(ctx, "facilitators_config", http.MethodGet, PathFacilitatorConfig, nil, nil, &out, rejectAsValidation)
	})
	return out, err
}

// PrepareBridge creates a bridge order and returns its deposit address.
func (c *Client) PrepareBridge(ctx context.Context, req BridgeRequest) (BridgeOrder, error) {
	var out BridgeOrder
	err := c.retried(ctx, func() error {
		return c.do(ctx, "bridge_prepare", http.MethodPost, PathBridgePrepare, nil, req, &out, rejectAsValidation)
	})
	return out, err
}

// Pay submits one signed header. A FEE_MISMATCH rejection is a fee_mismatch
// error; any other rejection is payment_failed.
func (c *Client) Pay(ctx context.Context, req PayRequest) (Settlement, error) {
	var out Settlement
	err := c.do(ctx, "pay", http.MethodPost, PathPay, nil, req, &out, rejectAsSettlement)
	return out, err
}

func (c *Client) retried(ctx context.Context, fn func() error) error {
	_, err := rpcutil.WithRetryCustom(ctx, c.retry, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// rejection maps a non-transport failure (status, server code) to an error code.
type rejection func(status int, code string) apierrors.ErrorCode

func rejectAsValidation(status int, code string) apierrors.ErrorCode {
	return apierrors.ErrCodeValidation
}

func rejectAsSettlement(status int, code string) apierrors.ErrorCode {
	if strings.EqualFold(code, CodeFeeMismatch) {
		return apierrors.ErrCodeFeeMismatch
	}
	return apierrors.ErrCodePaymentFailed
}

// do performs one call through the circuit breaker.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body, out any, reject rejection) error {
	done := metrics.MeasureAPICall(c.metrics, endpoint)
	_, err := circuitbreaker.Do(c.breaker, circuitbreaker.ServiceAggregator, func() (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, method, path, query, body, out, reject)
	})

	status := "success"
	if err != nil {
		status = string(apierrors.CodeOf(err))
		c.log.Debug().
			Err(err).
			Str("endpoint", endpoint).
			Msg("aggregator.call_failed")
	}
	done(status)
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any, reject rejection) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apierrors.Wrap(apierrors.ErrCodeInternal, err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apierrors.Wrap(apierrors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apierrors.Wrap(apierrors.ErrCodeNetwork, err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apierrors.Wrap(apierrors.ErrCodeNetwork, err, fmt.Sprintf("read %s response", path))
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return responseError(apierrors.ErrCodeAuthentication, resp.StatusCode, path, env, "invalid or missing API key")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return responseError(apierrors.ErrCodeNetwork, resp.StatusCode, path, env, http.StatusText(resp.StatusCode))
	case resp.StatusCode >= 400 || env.Status == apierrors.StatusError:
		return responseError(reject(resp.StatusCode, env.Code), resp.StatusCode, path, env, http.StatusText(resp.StatusCode))
	}

	if decodeErr != nil {
		return apierrors.Wrap(reject(resp.StatusCode, ""), decodeErr, fmt.Sprintf("decode %s response", path))
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apierrors.Wrap(reject(resp.StatusCode, ""), err, fmt.Sprintf("decode %s data", path))
	}
	return nil
}

// responseError builds the error for a rejected call, keeping the server's
// message and code in the details.
func responseError(code apierrors.ErrorCode, status int, path string, env envelope, fallback string) *apierrors.Error {
	msg := env.Message
	if msg == "" {
		msg = fallback
	}
	e := apierrors.Newf(code, "%s: %s", path, msg).
		WithDetail("httpStatus", status)
	if env.Code != "" {
		e = e.WithDetail("serverCode", env.Code)
	}
	for k, v := range env.Details {
		e = e.WithDetail(k, v)
	}
	return e
}
