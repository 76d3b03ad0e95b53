package logger

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Transport wraps an http.RoundTripper and logs every outgoing request at debug
// level. The payment ID from the request context is forwarded as X-Request-ID.
func Transport(base http.RoundTripper, log zerolog.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base, log: log}
}

type loggingTransport struct {
	base http.RoundTripper
	log  zerolog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id := GetPaymentID(req.Context()); id != "" && req.Header.Get("X-Request-ID") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.log.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", duration).
			Msg("http.request_failed")
		return nil, err
	}

	t.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("http.request_completed")
	return resp, nil
}
