package gateway

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantNil   bool
		permanent bool
	}{
		{"200 ok", 200, "", true, false},
		{"202 accepted", 202, "", true, false},
		{"400 invalid recipient", 400, "Invalid recipient address", false, true},
		{"400 unknown", 400, "something odd", false, false},
		{"422 no recipients", 422, "No recipients defined", false, true},
		{"401", 401, "", false, true},
		{"403", 403, "forbidden", false, true},
		{"404", 404, "", false, true},
		{"408 timeout", 408, "", false, false},
		{"429 rate limited", 429, "slow down", false, false},
		{"500 generic", 500, "internal", false, false},
		{"503", 503, "", false, false},
		{"500 invalid key", 500, "InvalidServerAPIKey", false, true},
		{"413 other 4xx", 413, "too large", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ge := ClassifyHTTPError("postal", tt.status, tt.body)
			if tt.wantNil {
				if ge != nil {
					t.Fatalf("expected nil, got %v", ge)
				}
				return
			}
			if ge == nil {
				t.Fatal("expected error, got nil")
			}
			if ge.Permanent != tt.permanent {
				t.Errorf("Permanent = %v, want %v", ge.Permanent, tt.permanent)
			}
			if ge.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", ge.StatusCode, tt.status)
			}
			if ge.Message == "" {
				t.Error("expected non-empty message")
			}
		})
	}
}

func TestIsPermanentIsTransient(t *testing.T) {
	perm := &GatewayError{Gateway: "x", Message: "bad", Permanent: true}
	trans := &GatewayError{Gateway: "x", Message: "busy"}
	wrapped := fmt.Errorf("batch 2: %w", perm)
	plain := errors.New("connection reset")

	if !IsPermanent(perm) || IsTransient(perm) {
		t.Error("permanent error misclassified")
	}
	if IsPermanent(trans) || !IsTransient(trans) {
		t.Error("transient error misclassified")
	}
	if !IsPermanent(wrapped) {
		t.Error("wrapped permanent error not detected")
	}
	if IsPermanent(plain) || !IsTransient(plain) {
		t.Error("unclassified errors should be transient")
	}
}

func TestGatewayError_Error(t *testing.T) {
	ge := &GatewayError{Gateway: "sendgrid", Message: "rate limited"}
	if got := ge.Error(); got != "sendgrid: rate limited" {
		t.Errorf("Error() = %q", got)
	}
}
