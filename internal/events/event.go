// Package events publishes campaign outcome notifications to a message
// broker.
package events

import (
	"time"

	"github.com/sungwon/campaign-dispatch/internal/dispatch"
)

// DefaultRoutingKey is the routing key for dispatch outcome events.
const DefaultRoutingKey = "campaign.dispatched"

// OutcomeEvent summarizes one dispatch run for downstream consumers.
type OutcomeEvent struct {
	JobID       string    `json:"job_id,omitempty"`
	CampaignID  string    `json:"campaign_id"`
	Gateway     string    `json:"gateway"`
	Attempted   int       `json:"attempted"`
	Delivered   int       `json:"delivered"`
	Failed      int       `json:"failed"`
	Unattempted int       `json:"unattempted"`
	Success     bool      `json:"success"`
	Cancelled   bool      `json:"cancelled"`
	Status      string    `json:"status"`
	RetryCount  int       `json:"retry_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewOutcomeEvent builds an event from a dispatch outcome.
func NewOutcomeEvent(jobID string, retryCount int, o *dispatch.Outcome, at time.Time) OutcomeEvent {
	return OutcomeEvent{
		JobID:       jobID,
		CampaignID:  o.CampaignID,
		Gateway:     o.Gateway,
		Attempted:   o.Attempted,
		Delivered:   o.Delivered,
		Failed:      o.Failed(),
		Unattempted: len(o.Unattempted),
		Success:     o.Success,
		Cancelled:   o.Cancelled,
		Status:      o.Status(),
		RetryCount:  retryCount,
		OccurredAt:  at.UTC(),
	}
}
