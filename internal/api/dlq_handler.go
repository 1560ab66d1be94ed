package api

import (
	"net/http"

	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/queue"
)

// dlqReprocessRequest is the JSON body for POST /api/v1/dlq/reprocess.
// Entry IDs are Redis stream IDs; the SQS dead letter queue ignores them
// and drains what it can receive.
type dlqReprocessRequest struct {
	EntryIDs []string `json:"entry_ids"`
}

// dlqReprocessResponse is the JSON response for a DLQ reprocess operation.
type dlqReprocessResponse struct {
	Reprocessed int `json:"reprocessed"`
	Requested   int `json:"requested"`
}

// DLQReprocessHandler handles POST /api/v1/dlq/reprocess.
// It re-enqueues dead-lettered dispatch jobs with a reset retry count.
func DLQReprocessHandler(dlq queue.DeadLetterQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req dlqReprocessRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if len(req.EntryIDs) == 0 {
			respondError(w, http.StatusBadRequest, "entry_ids is required and must not be empty")
			return
		}

		reprocessed, err := dlq.Reprocess(r.Context(), req.EntryIDs)
		if err != nil {
			log.Error().Err(err).
				Int("requested", len(req.EntryIDs)).
				Int("reprocessed", reprocessed).
				Msg("dlq reprocess failed")
			respondError(w, http.StatusInternalServerError, "reprocess failed")
			return
		}

		log.Info().
			Int("reprocessed", reprocessed).
			Int("requested", len(req.EntryIDs)).
			Msg("dlq reprocess completed")

		respondJSON(w, http.StatusOK, dlqReprocessResponse{
			Reprocessed: reprocessed,
			Requested:   len(req.EntryIDs),
		})
	}
}
