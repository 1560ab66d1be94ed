package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sungwon/campaign-dispatch/internal/draft"
	"github.com/sungwon/campaign-dispatch/internal/logger"
)

// DraftStore persists campaign drafts.
type DraftStore interface {
	SaveDraft(ctx context.Context, d *draft.Draft) error
	Get(ctx context.Context, id string) (*draft.Draft, error)
	Delete(ctx context.Context, id string) error
}

// SaveDraftHandler handles POST /api/v1/drafts.
// A body without an id creates a draft; a body with one overwrites it.
func SaveDraftHandler(store DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d draft.Draft
		if err := decodeJSON(r, &d); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := store.SaveDraft(r.Context(), &d); err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Str("draft_id", d.ID).Msg("failed to save draft")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondJSON(w, http.StatusCreated, d)
	}
}

// GetDraftHandler handles GET /api/v1/drafts/{id}.
func GetDraftHandler(store DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		d, err := store.Get(r.Context(), id)
		if errors.Is(err, draft.ErrNotFound) {
			respondError(w, http.StatusNotFound, "draft not found")
			return
		}
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Str("draft_id", id).Msg("failed to load draft")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondJSON(w, http.StatusOK, d)
	}
}

// DeleteDraftHandler handles DELETE /api/v1/drafts/{id}.
func DeleteDraftHandler(store DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), id); err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Str("draft_id", id).Msg("failed to delete draft")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
