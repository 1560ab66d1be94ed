package api

import (
	"context"
	"net/http"

	"github.com/sungwon/campaign-dispatch/internal/gateway"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GatewayStatuses exposes the latest gateway health results.
type GatewayStatuses interface {
	Statuses() map[string]gateway.HealthStatus
}

// HealthzHandler handles GET /healthz.
// Always returns 200 OK with {"status":"ok"}.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler handles GET /readyz.
// Returns 200 when the database answers a ping, otherwise 503 with a
// Retry-After header. A nil db is treated as ready.
func ReadyzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.Header().Set("Retry-After", "30")
				respondError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// GatewayHealthHandler handles GET /api/v1/gateways/health.
func GatewayHealthHandler(statuses GatewayStatuses) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"gateways": statuses.Statuses()})
	}
}
