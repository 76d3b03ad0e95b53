package metrics

import (
	"time"
)

// MeasureAPICall starts timing an aggregator call. The returned func records
// the call with its result code. Safe to use with a nil collector:
//
//	done := metrics.MeasureAPICall(m, "pay")
//	defer func() { done(status) }()
func MeasureAPICall(m *Metrics, endpoint string) func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	return func(status string) {
		m.ObserveAPICall(endpoint, status, time.Since(start))
	}
}

// RecordRPCCall records an RPC call duration directly (when timing is already captured).
func RecordRPCCall(m *Metrics, method, network string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.ObserveRPCCall(method, network, duration, err)
}

// RecordFacilitatorAttempt records a settlement submission if m is non-nil.
func RecordFacilitatorAttempt(m *Metrics, facilitator, outcome string) {
	if m == nil {
		return
	}
	m.ObserveFacilitatorAttempt(facilitator, outcome)
}
