package delivery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/queue"
)

// AsyncService enqueues campaigns for background dispatch by the
// dispatch-worker process.
type AsyncService struct {
	enqueuer   queue.Enqueuer
	campaignID func() string
	log        zerolog.Logger
}

// NewAsyncService creates an AsyncService backed by the given Enqueuer.
// campaignID generates IDs for requests that carry none, so the caller
// learns the ID before the job runs.
func NewAsyncService(enqueuer queue.Enqueuer, campaignID func() string, log zerolog.Logger) *AsyncService {
	return &AsyncService{
		enqueuer:   enqueuer,
		campaignID: campaignID,
		log:        log,
	}
}

// Submit validates req and enqueues it as a job.
func (a *AsyncService) Submit(ctx context.Context, req *dispatch.Request) (*Receipt, error) {
	if err := dispatch.Validate(req); err != nil {
		return nil, err
	}
	if req.CampaignID == "" && a.campaignID != nil {
		req.CampaignID = a.campaignID()
	}

	job := queue.NewJob(req)
	entryID, err := a.enqueuer.Enqueue(ctx, job)
	if err != nil {
		a.log.Error().Err(err).
			Str("campaign_id", job.CampaignID).
			Msg("failed to enqueue dispatch job")
		return nil, fmt.Errorf("enqueue dispatch job: %w", err)
	}

	a.log.Info().
		Str("campaign_id", job.CampaignID).
		Str("job_id", job.ID).
		Str("entry_id", entryID).
		Int("recipients", len(job.Recipients)).
		Msg("campaign enqueued for dispatch")

	return &Receipt{
		Mode:       ModeAsync,
		CampaignID: job.CampaignID,
		JobID:      job.ID,
		EntryID:    entryID,
	}, nil
}
