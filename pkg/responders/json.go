// Package responders writes the aggregator's JSON response envelopes.
package responders

import (
	"encoding/json"
	"net/http"
)

// JSON writes an application/json response with status code and payload.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

// Success writes {"status":"success","data":data}.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, struct {
		Status string `json:"status"`
		Data   any    `json:"data"`
	}{Status: "success", Data: data})
}
