// Package worker runs queued dispatch jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/events"
	"github.com/sungwon/campaign-dispatch/internal/gateway"
	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/queue"
)

// ErrPartialDelivery is returned when some recipients are left to retry.
// The job has been narrowed to those recipients.
var ErrPartialDelivery = errors.New("partial delivery")

// gatewayResolver picks the gateway for a sender address.
type gatewayResolver interface {
	Resolve(ctx context.Context, senderEmail string) (gateway.Client, error)
}

// campaignDispatcher runs one dispatch.
type campaignDispatcher interface {
	Dispatch(ctx context.Context, gw gateway.Client, req *dispatch.Request) (*dispatch.Outcome, error)
}

// Handler implements queue.JobHandler.
type Handler struct {
	resolver   gatewayResolver
	dispatcher campaignDispatcher
	publisher  events.Publisher
	log        zerolog.Logger
	now        func() time.Time
}

// NewHandler creates a Handler. A nil publisher disables outcome events.
func NewHandler(
	resolver gatewayResolver,
	dispatcher campaignDispatcher,
	publisher events.Publisher,
	log zerolog.Logger,
) *Handler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Handler{
		resolver:   resolver,
		dispatcher: dispatcher,
		publisher:  publisher,
		log:        log,
		now:        time.Now,
	}
}

// HandleJob resolves the gateway for the job's sender and dispatches it.
//
// A fully delivered job returns nil. When batches failed transiently or the
// run was cut short, the job is narrowed in place to the recipients still
// owed a message and ErrPartialDelivery is returned so the queue retries
// it. Requests that can never succeed return an error wrapping
// queue.ErrPermanent.
func (h *Handler) HandleJob(ctx context.Context, job *queue.Job) error {
	ctx = logger.WithLogger(ctx, h.log)
	ctx = logger.WithCorrelationID(ctx, job.ID)
	if job.CampaignID != "" {
		ctx = logger.WithCampaignID(ctx, job.CampaignID)
	}
	log := logger.FromContext(ctx)

	gw, err := h.resolver.Resolve(ctx, job.FromEmail)
	if err != nil {
		log.Error().Err(err).Str("from_email", job.FromEmail).Msg("failed to resolve gateway")
		return fmt.Errorf("resolve gateway: %w", err)
	}

	req := job.Request()
	req.Progress = func(pct int) {
		log.Debug().Int("progress", pct).Str("gateway", gw.GetName()).Msg("dispatch progress")
	}

	outcome, err := h.dispatcher.Dispatch(ctx, gw, req)
	if err != nil {
		var verrs dispatch.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", queue.ErrPermanent, err)
		}
		return fmt.Errorf("dispatch: %w", err)
	}

	// Retries reuse the campaign ID so List-Id and Campaign-ID headers stay
	// stable across attempts.
	job.CampaignID = outcome.CampaignID

	ev := events.NewOutcomeEvent(job.ID, job.RetryCount, outcome, h.now())
	if err := h.publisher.PublishOutcome(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn().Err(err).Msg("failed to publish outcome event")
	}

	log.Info().
		Str("gateway", outcome.Gateway).
		Int("attempted", outcome.Attempted).
		Int("delivered", outcome.Delivered).
		Int("failed", outcome.Failed()).
		Int("unattempted", len(outcome.Unattempted)).
		Bool("cancelled", outcome.Cancelled).
		Msg(outcome.Status())

	if outcome.Success {
		return nil
	}

	if outcome.PermanentOnly() {
		return fmt.Errorf("%w: %s", queue.ErrPermanent, outcome.Status())
	}

	// Permanently rejected batches are dropped from the retry.
	job.Recipients = outcome.RetryableRecipients()
	return fmt.Errorf("%w: %s", ErrPartialDelivery, outcome.Status())
}
