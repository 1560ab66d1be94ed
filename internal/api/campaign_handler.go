package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sungwon/campaign-dispatch/internal/delivery"
	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/draft"
	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/routing"
)

// RecipientSource resolves the active addresses on a subscriber list.
type RecipientSource interface {
	Recipients(ctx context.Context, listID string) ([]string, error)
}

// dispatchRequest is the JSON body for POST /api/v1/campaigns/dispatch.
// Fields left empty are filled from the draft named by DraftID; when no
// recipients are given they are loaded from ListID.
type dispatchRequest struct {
	CampaignID string   `json:"campaign_id"`
	DraftID    string   `json:"draft_id"`
	ListID     string   `json:"list_id"`
	Subject    string   `json:"subject"`
	HTMLBody   string   `json:"html_body"`
	FromName   string   `json:"from_name"`
	FromEmail  string   `json:"from_email"`
	ReplyTo    string   `json:"reply_to"`
	Recipients []string `json:"recipients"`
}

func (d *dispatchRequest) fillFromDraft(dr *draft.Draft) {
	if d.Subject == "" {
		d.Subject = dr.Subject
	}
	if d.HTMLBody == "" {
		d.HTMLBody = dr.HTMLBody
	}
	if d.FromName == "" {
		d.FromName = dr.FromName
	}
	if d.FromEmail == "" {
		d.FromEmail = dr.FromEmail
	}
	if d.ReplyTo == "" {
		d.ReplyTo = dr.ReplyTo
	}
	if len(d.Recipients) == 0 {
		d.Recipients = dr.Recipients
	}
	if d.ListID == "" {
		d.ListID = dr.ListID
	}
}

func (d *dispatchRequest) toRequest() *dispatch.Request {
	return &dispatch.Request{
		CampaignID: d.CampaignID,
		Subject:    d.Subject,
		HTMLBody:   d.HTMLBody,
		FromName:   d.FromName,
		FromEmail:  d.FromEmail,
		ReplyTo:    d.ReplyTo,
		Recipients: d.Recipients,
	}
}

// DispatchCampaignHandler handles POST /api/v1/campaigns/dispatch.
// Returns 202 with the job receipt in async mode, 200 with the dispatch
// outcome in sync mode, and 400 listing every invalid field. drafts and
// recipients may be nil when those lookups are not configured.
func DispatchCampaignHandler(svc delivery.Service, drafts DraftStore, recipients RecipientSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req dispatchRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.DraftID != "" {
			if drafts == nil {
				respondError(w, http.StatusBadRequest, "drafts are not configured")
				return
			}
			dr, err := drafts.Get(r.Context(), req.DraftID)
			if errors.Is(err, draft.ErrNotFound) {
				respondError(w, http.StatusNotFound, "draft not found")
				return
			}
			if err != nil {
				log.Error().Err(err).Str("draft_id", req.DraftID).Msg("failed to load draft")
				respondError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			req.fillFromDraft(dr)
		}

		if len(req.Recipients) == 0 && req.ListID != "" {
			if recipients == nil {
				respondError(w, http.StatusBadRequest, "subscriber lists are not configured")
				return
			}
			addrs, err := recipients.Recipients(r.Context(), req.ListID)
			if err != nil {
				log.Error().Err(err).Str("list_id", req.ListID).Msg("failed to load list recipients")
				respondError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			req.Recipients = addrs
		}

		receipt, err := svc.Submit(r.Context(), req.toRequest())
		if err != nil {
			var verrs dispatch.ValidationErrors
			switch {
			case errors.As(err, &verrs):
				respondValidationErrors(w, verrs)
			case errors.Is(err, routing.ErrNoHealthyGateway):
				w.Header().Set("Retry-After", "30")
				respondError(w, http.StatusServiceUnavailable, "no healthy gateway available")
			default:
				log.Error().Err(err).Msg("campaign submission failed")
				respondError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		status := http.StatusAccepted
		if receipt.Mode == delivery.ModeSync {
			status = http.StatusOK
		}
		respondJSON(w, status, receipt)
	}
}
