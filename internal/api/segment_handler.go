package api

import (
	"net/http"

	"github.com/sungwon/campaign-dispatch/internal/segment"
)

// classifyResponse is the JSON response for POST /api/v1/segments/classify.
type classifyResponse struct {
	Groups          []string `json:"groups"`
	EngagementScore float64  `json:"engagement_score"`
	Triggers        []string `json:"triggers"`
}

// ClassifyHandler handles POST /api/v1/segments/classify. The body is a
// subscriber snapshot; nothing is persisted.
func ClassifyHandler(classifier *segment.Classifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub segment.Subscriber
		if err := decodeJSON(r, &sub); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		respondJSON(w, http.StatusOK, classifyResponse{
			Groups:          orEmpty(classifier.Classify(&sub)),
			EngagementScore: segment.EngagementScore(&sub),
			Triggers:        orEmpty(classifier.Triggers(&sub)),
		})
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
