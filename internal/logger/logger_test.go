package logger

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTruncateAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "0x833589...2913"},
		{"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "EPjFWdd5...Dt1v"},
	}
	for _, tt := range tests {
		if got := TruncateAddress(tt.in); got != tt.want {
			t.Errorf("TruncateAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromContext_Fallback(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() != zerolog.Disabled {
		t.Errorf("expected disabled logger, got level %v", log.GetLevel())
	}
}

func TestNew_WritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Service: "uplink", Output: &buf})
	log.Info().Msg("payment.started")

	if !strings.Contains(buf.String(), `"service":"uplink"`) {
		t.Errorf("expected service field, got %s", buf.String())
	}
}

func TestTransport_ForwardsPaymentID(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &http.Client{Transport: Transport(nil, zerolog.Nop())}
	ctx := WithPaymentID(context.Background(), "pay-123")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if gotID != "pay-123" {
		t.Errorf("X-Request-ID = %q, want pay-123", gotID)
	}
}
