package httputil

import (
	"net"
	"net/http"
	"time"
)

// NewTransport returns the transport shared by the aggregator and Solana RPC clients.
//
// Transport settings:
//   - MaxIdleConns: 100 (total idle connections across all hosts)
//   - MaxIdleConnsPerHost: 10 (idle connections per host)
//   - IdleConnTimeout: 90s (time to keep idle connections alive)
//   - TLSHandshakeTimeout: 10s
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NewClient creates an HTTP client with the given per-call timeout. Optional
// wrappers decorate the transport in order (for example request logging).
func NewClient(timeout time.Duration, wrap ...func(http.RoundTripper) http.RoundTripper) *http.Client {
	var rt http.RoundTripper = NewTransport()
	for _, w := range wrap {
		rt = w(rt)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}
