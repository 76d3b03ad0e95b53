// Package aggregatortest runs an in-process fake of the aggregator API.
package aggregatortest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/onchainfi/uplink/internal/aggregator"
	apierrors "github.com/onchainfi/uplink/internal/errors"
	"github.com/onchainfi/uplink/pkg/responders"
)

// APIKey is the key the fake accepts.
const APIKey = "test-api-key"

// Failure makes an endpoint answer with an error envelope.
type Failure struct {
	Status  int
	Code    string
	Message string
}

// PayResponse scripts one /pay answer. A nil Failure means success.
type PayResponse struct {
	Failure    *Failure
	Settlement aggregator.Settlement
}

// State is the scripted behavior of the fake.
type State struct {
	Preparation aggregator.Preparation
	PrepareFail *Failure

	Ranked     []aggregator.Facilitator
	RankedFail *Failure

	Config     aggregator.FacilitatorConfig
	ConfigFail *Failure

	Bridge     aggregator.BridgeOrder
	BridgeFail *Failure

	// PayResponses are consumed in order; the last one repeats.
	PayResponses []PayResponse
}

// Server is a chi-routed fake aggregator.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	state    State
	hits     map[string]int
	prepares []aggregator.PrepareRequest
	bridges  []aggregator.BridgeRequest
	pays     []aggregator.PayRequest
}

// NewServer starts a fake with the given state. Close it when done.
func NewServer(state State) *Server {
	s := &Server{state: state, hits: make(map[string]int)}

	r := chi.NewRouter()
	r.Use(s.requireAPIKey)
	r.Post(aggregator.PathPreparePayment, s.handlePrepare)
	r.Get(aggregator.PathRankedFacilitators, s.handleRanked)
	r.Get(aggregator.PathFacilitatorConfig, s.handleConfig)
	r.Post(aggregator.PathBridgePrepare, s.handleBridge)
	r.Post(aggregator.PathPay, s.handlePay)

	s.Server = httptest.NewServer(r)
	return s
}

// Update changes the scripted state.
func (s *Server) Update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Hits returns how often path was called.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// PayRequests returns every /pay body received, in order.
func (s *Server) PayRequests() []aggregator.PayRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]aggregator.PayRequest(nil), s.pays...)
}

// PrepareRequests returns every /prepare-payment body received.
func (s *Server) PrepareRequests() []aggregator.PrepareRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]aggregator.PrepareRequest(nil), s.prepares...)
}

// BridgeRequests returns every /bridge/prepare body received.
func (s *Server) BridgeRequests() []aggregator.BridgeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]aggregator.BridgeRequest(nil), s.bridges...)
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		if r.Header.Get(aggregator.APIKeyHeader) != APIKey {
			apierrors.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	var req aggregator.PrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	s.mu.Lock()
	s.prepares = append(s.prepares, req)
	prep, fail := s.state.Preparation, s.state.PrepareFail
	s.mu.Unlock()

	if writeFailure(w, fail) {
		return
	}
	responders.Success(w, http.StatusOK, prep)
}

func (s *Server) handleRanked(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("network") == "" {
		apierrors.WriteError(w, http.StatusBadRequest, "MISSING_NETWORK", "network is required")
		return
	}

	s.mu.Lock()
	ranked, fail := s.state.Ranked, s.state.RankedFail
	s.mu.Unlock()

	if writeFailure(w, fail) {
		return
	}
	if ranked == nil {
		ranked = []aggregator.Facilitator{}
	}
	responders.Success(w, http.StatusOK, ranked)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg, fail := s.state.Config, s.state.ConfigFail
	s.mu.Unlock()

	if writeFailure(w, fail) {
		return
	}
	responders.Success(w, http.StatusOK, cfg)
}

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	var req aggregator.BridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	s.mu.Lock()
	s.bridges = append(s.bridges, req)
	order, fail := s.state.Bridge, s.state.BridgeFail
	s.mu.Unlock()

	if writeFailure(w, fail) {
		return
	}
	responders.Success(w, http.StatusOK, order)
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req aggregator.PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	s.mu.Lock()
	s.pays = append(s.pays, req)
	var resp PayResponse
	if n := len(s.state.PayResponses); n > 0 {
		idx := len(s.pays) - 1
		if idx >= n {
			idx = n - 1
		}
		resp = s.state.PayResponses[idx]
	}
	s.mu.Unlock()

	if writeFailure(w, resp.Failure) {
		return
	}
	settlement := resp.Settlement
	if settlement.TxHash == "" {
		settlement = aggregator.Settlement{TxHash: "0xsettled", Facilitator: req.Facilitator, Verified: true, Settled: true}
	}
	responders.Success(w, http.StatusOK, settlement)
}

func writeFailure(w http.ResponseWriter, f *Failure) bool {
	if f == nil {
		return false
	}
	status := f.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	apierrors.WriteError(w, status, f.Code, f.Message)
	return true
}
