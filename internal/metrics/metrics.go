package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the payment client.
type Metrics struct {
	// Payment metrics
	PaymentsTotal      *prometheus.CounterVec
	PaymentAmountTotal *prometheus.CounterVec
	PaymentDuration    *prometheus.HistogramVec
	FeeMinimumApplied  prometheus.Counter

	// Facilitator failover metrics
	FacilitatorAttemptsTotal *prometheus.CounterVec

	// Aggregator API metrics
	APICallsTotal   *prometheus.CounterVec
	APICallDuration *prometheus.HistogramVec

	// RPC call metrics
	RPCCallsTotal   *prometheus.CounterVec
	RPCCallDuration *prometheus.HistogramVec
	RPCErrorsTotal  *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerTransitions *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		PaymentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplink_payments_total",
				Help: "Total number of pay() calls by source network and outcome",
			},
			[]string{"network", "status"},
		),
		PaymentAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplink_payment_amount_usdc_total",
				Help: "Total gross USDC settled",
			},
			[]string{"network"},
		),
		PaymentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uplink_payment_duration_seconds",
				Help:    "Time from prepare to settlement result (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"network"},
		),
		FeeMinimumApplied: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "uplink_fee_minimum_applied_total",
				Help: "Payments whose processing fee was raised to the cross-chain minimum",
			},
		),

		FacilitatorAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplink_facilitator_attempts_total",
				Help: "Settlement submissions by facilitator and outcome",
			},
			[]string{"facilitator", "outcome"},
		),

		APICallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplink_api_calls_total",
				Help: "Aggregator API calls by endpoint and result code",
			},
			[]string{"endpoint", "status"},
		),
		APICallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uplink_api_call_duration_seconds",
				Help:    "Duration of aggregator API calls",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"endpoint"},
		),

		RPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplink_rpc_calls_total",
				Help: "Total number of Solana RPC calls",
			},
			[]string{"method", "network"},
		),
		RPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uplink_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "network"},
		),
		RPCErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplink_rpc_errors_total",
				Help: "Total number of Solana RPC errors by type",
			},
			[]string{"method", "network", "error_type"},
		),

		CircuitBreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplink_circuit_breaker_transitions_total",
				Help: "Circuit breaker state changes by service and new state",
			},
			[]string{"service", "state"},
		),
	}
}

// ObservePayment records a finished pay() call.
func (m *Metrics) ObservePayment(network, status string, duration time.Duration, amount float64) {
	m.PaymentsTotal.WithLabelValues(network, status).Inc()
	m.PaymentDuration.WithLabelValues(network).Observe(duration.Seconds())
	if status == "success" {
		m.PaymentAmountTotal.WithLabelValues(network).Add(amount)
	}
}

// ObserveFeeMinimum records a payment priced at the cross-chain minimum fee.
func (m *Metrics) ObserveFeeMinimum() {
	m.FeeMinimumApplied.Inc()
}

// ObserveFacilitatorAttempt records one settlement submission.
func (m *Metrics) ObserveFacilitatorAttempt(facilitator, outcome string) {
	if facilitator == "" {
		facilitator = "auto"
	}
	m.FacilitatorAttemptsTotal.WithLabelValues(facilitator, outcome).Inc()
}

// ObserveAPICall records an aggregator API call.
func (m *Metrics) ObserveAPICall(endpoint, status string, duration time.Duration) {
	m.APICallsTotal.WithLabelValues(endpoint, status).Inc()
	m.APICallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveRPCCall records an RPC call to the blockchain.
func (m *Metrics) ObserveRPCCall(method, network string, duration time.Duration, err error) {
	m.RPCCallsTotal.WithLabelValues(method, network).Inc()
	m.RPCCallDuration.WithLabelValues(method, network).Observe(duration.Seconds())

	if err != nil {
		errorType := "other"
		errStr := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
			errorType = "timeout"
		case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "429"):
			errorType = "rate_limit"
		case strings.Contains(errStr, "connection"):
			errorType = "connection"
		case strings.Contains(errStr, "not found"):
			errorType = "not_found"
		case strings.Contains(errStr, "circuit breaker"):
			errorType = "circuit_open"
		}
		m.RPCErrorsTotal.WithLabelValues(method, network, errorType).Inc()
	}
}

// ObserveBreakerTransition records a circuit breaker state change.
func (m *Metrics) ObserveBreakerTransition(service, state string) {
	m.CircuitBreakerTransitions.WithLabelValues(service, state).Inc()
}
