package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type countingTransport struct {
	base  http.RoundTripper
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return c.base.RoundTrip(r)
}

func TestNewClient_AppliesTimeoutAndWrappers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	counter := &countingTransport{}
	client := NewClient(5*time.Second, func(rt http.RoundTripper) http.RoundTripper {
		counter.base = rt
		return counter
	})

	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()

	if counter.calls != 1 {
		t.Errorf("wrapper calls = %d, want 1", counter.calls)
	}
}

func TestNewClient_TimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(20 * time.Millisecond)
	_, err := client.Get(srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
