package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sungwon/campaign-dispatch/internal/delivery"
	"github.com/sungwon/campaign-dispatch/internal/gateway"
)

func TestNewRouter_Routes(t *testing.T) {
	registry := gateway.NewRegistry()
	registry.Register(gateway.NewStdout(io.Discard))
	full := Dependencies{
		DB:          mockPinger{},
		Delivery:    &mockDelivery{receipt: &delivery.Receipt{Mode: delivery.ModeAsync}},
		Classifier:  testClassifier(),
		Drafts:      newMockDrafts(),
		Subscribers: subscriberFixture(),
		DLQ:         &mockDLQ{reprocessed: 1},
		Registry:    registry,
	}
	minimal := Dependencies{
		Delivery:   &mockDelivery{},
		Classifier: testClassifier(),
	}

	tests := []struct {
		name       string
		deps       Dependencies
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"healthz", minimal, http.MethodGet, "/healthz", "", http.StatusOK},
		{"readyz", full, http.MethodGet, "/readyz", "", http.StatusOK},
		{"metrics", minimal, http.MethodGet, "/metrics", "", http.StatusOK},
		{"dispatch", full, http.MethodPost, "/api/v1/campaigns/dispatch", validDispatchBody, http.StatusAccepted},
		{"classify", minimal, http.MethodPost, "/api/v1/segments/classify", `{"status":"active"}`, http.StatusOK},
		{"subscribers", full, http.MethodGet, "/api/v1/subscribers", "", http.StatusOK},
		{"dlq", full, http.MethodPost, "/api/v1/dlq/reprocess", `{"entry_ids":["1-0"]}`, http.StatusOK},
		{"drafts unregistered", minimal, http.MethodGet, "/api/v1/drafts/x", "", http.StatusNotFound},
		{"subscribers unregistered", minimal, http.MethodGet, "/api/v1/subscribers", "", http.StatusNotFound},
		{"dlq unregistered", minimal, http.MethodPost, "/api/v1/dlq/reprocess", `{"entry_ids":["1-0"]}`, http.StatusNotFound},
		{"gateways unregistered", minimal, http.MethodGet, "/api/v1/gateways/health", "", http.StatusNotFound},
		{"message status", full, http.MethodGet, "/api/v1/gateways/stdout/messages/1", "", http.StatusNotImplemented},
		{"message status unregistered", minimal, http.MethodGet, "/api/v1/gateways/stdout/messages/1", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(tt.deps, zerolog.Nop())
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d; body: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if rec.Header().Get("X-Correlation-ID") == "" {
				t.Error("expected X-Correlation-ID header")
			}
		})
	}
}
