package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sungwon/campaign-dispatch/internal/gateway"
	"github.com/sungwon/campaign-dispatch/internal/logger"
)

// GatewayLookup finds a registered gateway by name.
type GatewayLookup interface {
	Get(name string) (gateway.Client, error)
}

type messageStatusResponse struct {
	Gateway   string         `json:"gateway"`
	MessageID string         `json:"message_id"`
	Status    map[string]any `json:"status"`
}

// MessageStatusHandler handles GET /api/v1/gateways/{name}/messages/{id}.
// It asks the gateway for its record of a previously sent batch. Gateways
// without status lookups answer 501.
func MessageStatusHandler(gateways GatewayLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		id := chi.URLParam(r, "id")

		gw, err := gateways.Get(name)
		if err != nil {
			respondError(w, http.StatusNotFound, "gateway not found")
			return
		}
		reporter, ok := gw.(gateway.StatusReporter)
		if !ok {
			respondError(w, http.StatusNotImplemented, "gateway does not report message status")
			return
		}

		status, err := reporter.MessageStatus(r.Context(), id)
		if err != nil {
			var gerr *gateway.GatewayError
			if errors.As(err, &gerr) && gerr.StatusCode == http.StatusNotFound {
				respondError(w, http.StatusNotFound, "message not found")
				return
			}
			log := logger.FromContext(r.Context())
			log.Warn().Err(err).Str("gateway", name).Str("message_id", id).Msg("message status lookup failed")
			respondError(w, http.StatusBadGateway, "gateway status lookup failed")
			return
		}

		respondJSON(w, http.StatusOK, messageStatusResponse{Gateway: name, MessageID: id, Status: status})
	}
}
