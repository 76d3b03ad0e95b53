package errors

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestErrorCode_IsRetryable(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodePaymentFailed, true},
		{ErrCodeNetwork, true},
		{ErrCodeRPC, true},
		{ErrCodeFeeMismatch, false},
		{ErrCodeAuthentication, false},
		{ErrCodeValidation, false},
		{ErrCodeSigning, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_Aborts(t *testing.T) {
	if !ErrCodeFeeMismatch.Aborts() {
		t.Error("fee mismatch should abort")
	}
	if !ErrCodeAuthentication.Aborts() {
		t.Error("authentication failure should abort")
	}
	if ErrCodePaymentFailed.Aborts() {
		t.Error("payment failure should not abort")
	}
}

func TestError_IsMatchesSentinelByCode(t *testing.T) {
	err := Wrap(ErrCodeFeeMismatch, fmt.Errorf("server total 0.41"), "fee mismatch")
	wrapped := fmt.Errorf("attempt 1: %w", err)

	if !Is(wrapped, ErrFeeMismatch) {
		t.Error("expected errors.Is to match ErrFeeMismatch")
	}
	if Is(wrapped, ErrPaymentFailed) {
		t.Error("did not expect match on ErrPaymentFailed")
	}
	if got := CodeOf(wrapped); got != ErrCodeFeeMismatch {
		t.Errorf("CodeOf() = %s, want %s", got, ErrCodeFeeMismatch)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != ErrCodeInternal {
		t.Errorf("CodeOf(plain) = %s, want %s", got, ErrCodeInternal)
	}
}

func TestError_MessageIncludesCause(t *testing.T) {
	err := Wrap(ErrCodeNetwork, fmt.Errorf("dial tcp: timeout"), "prepare payment")
	if !strings.Contains(err.Error(), "prepare payment") || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestError_WithDetailCopies(t *testing.T) {
	base := New(ErrCodeValidation, "bad amount")
	withAmount := base.WithDetail("amount", "0.20")

	if base.Details != nil {
		t.Error("WithDetail should not mutate the receiver")
	}
	if withAmount.Details["amount"] != "0.20" {
		t.Errorf("expected amount detail, got %v", withAmount.Details)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 409, "FEE_MISMATCH", "fees differ")

	if rec.Code != 409 {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"error"`) || !strings.Contains(body, `"code":"FEE_MISMATCH"`) {
		t.Errorf("unexpected body: %s", body)
	}
}
