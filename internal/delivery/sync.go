package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/events"
	"github.com/sungwon/campaign-dispatch/internal/gateway"
)

type gatewayResolver interface {
	Resolve(ctx context.Context, senderEmail string) (gateway.Client, error)
}

type campaignDispatcher interface {
	Dispatch(ctx context.Context, gw gateway.Client, req *dispatch.Request) (*dispatch.Outcome, error)
}

// SyncService dispatches campaigns inline, holding the caller until the
// last batch has been sent.
type SyncService struct {
	resolver   gatewayResolver
	dispatcher campaignDispatcher
	publisher  events.Publisher
	log        zerolog.Logger
}

// NewSyncService creates a SyncService. A nil publisher disables outcome
// events.
func NewSyncService(
	resolver gatewayResolver,
	dispatcher campaignDispatcher,
	publisher events.Publisher,
	log zerolog.Logger,
) *SyncService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SyncService{
		resolver:   resolver,
		dispatcher: dispatcher,
		publisher:  publisher,
		log:        log,
	}
}

// Submit validates req, resolves the sender's gateway and dispatches. A
// partial or cancelled dispatch is reported through the outcome, not as an
// error.
func (s *SyncService) Submit(ctx context.Context, req *dispatch.Request) (*Receipt, error) {
	if err := dispatch.Validate(req); err != nil {
		return nil, err
	}

	gw, err := s.resolver.Resolve(ctx, req.FromEmail)
	if err != nil {
		s.log.Error().Err(err).Str("from_email", req.FromEmail).Msg("failed to resolve gateway")
		return nil, fmt.Errorf("resolve gateway: %w", err)
	}

	outcome, err := s.dispatcher.Dispatch(ctx, gw, req)
	if err != nil {
		return nil, err
	}

	ev := events.NewOutcomeEvent("", 0, outcome, time.Now())
	if err := s.publisher.PublishOutcome(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn().Err(err).Str("campaign_id", outcome.CampaignID).Msg("failed to publish outcome event")
	}

	return &Receipt{
		Mode:       ModeSync,
		CampaignID: outcome.CampaignID,
		Outcome:    outcome,
	}, nil
}
