// Package delivery accepts campaign submissions and either queues them or
// dispatches them inline.
package delivery

import (
	"context"

	"github.com/sungwon/campaign-dispatch/internal/dispatch"
)

// Delivery modes.
const (
	ModeAsync = "async"
	ModeSync  = "sync"
)

// Service accepts a campaign for delivery. Two implementations exist:
// SyncService (dispatch inline) and AsyncService (enqueue a job for the
// dispatch worker). Both return dispatch.ValidationErrors for a bad request.
type Service interface {
	Submit(ctx context.Context, req *dispatch.Request) (*Receipt, error)
}

// Receipt describes an accepted submission. Outcome is set only in sync
// mode; JobID only in async mode.
type Receipt struct {
	Mode       string            `json:"mode"`
	CampaignID string            `json:"campaign_id"`
	JobID      string            `json:"job_id,omitempty"`
	EntryID    string            `json:"entry_id,omitempty"`
	Outcome    *dispatch.Outcome `json:"outcome,omitempty"`
}
