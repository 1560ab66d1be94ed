// Package dispatch sends a campaign to its recipients in paced,
// sequential batches through a gateway.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sungwon/campaign-dispatch/internal/content"
	"github.com/sungwon/campaign-dispatch/internal/gateway"
	"github.com/sungwon/campaign-dispatch/internal/headers"
	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/metrics"
	"github.com/sungwon/campaign-dispatch/internal/pacing"
)

// Pacer waits between batches. *pacing.Pacer satisfies it.
type Pacer interface {
	Wait(ctx context.Context, batchIndex int) error
}

// Dispatcher runs dispatches. It holds no per-dispatch state, so one value
// may serve concurrent dispatches for different campaigns.
type Dispatcher struct {
	cfg   Config
	pacer Pacer
	now   func() time.Time
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithPacer replaces the warm-up pacer derived from the config.
func WithPacer(p Pacer) Option {
	return func(d *Dispatcher) { d.pacer = p }
}

// WithClock replaces time.Now for send timestamps and generated IDs.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a Dispatcher.
func New(cfg Config, opts ...Option) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		cfg:   cfg,
		pacer: pacing.New(cfg.BaseDelay, cfg.RampLength),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

// NewCampaignID returns the configured prefix, the current Unix time in
// milliseconds and a random suffix. IDs sort by creation time and stay
// unique when generated within the same millisecond.
func (d *Dispatcher) NewCampaignID() string {
	suffix := uuid.New().String()[:8]
	return d.cfg.CampaignIDPrefix + strconv.FormatInt(d.now().UnixMilli(), 10) + "-" + suffix
}

// Dispatch validates req and sends it through gw one batch at a time.
//
// Only validation problems are returned as errors. Gateway failures are
// recorded per batch and never stop the remaining batches. Cancelling ctx
// stops the dispatch before the next batch and yields an Outcome with
// Cancelled set.
func (d *Dispatcher) Dispatch(ctx context.Context, gw gateway.Client, req *Request) (*Outcome, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if gw == nil {
		return nil, errors.New("dispatch: gateway is required")
	}

	campaignID := req.CampaignID
	if campaignID == "" {
		campaignID = d.NewCampaignID()
	}
	ctx = logger.WithCampaignID(ctx, campaignID)
	log := logger.FromContext(ctx).With().Str("gateway", gw.GetName()).Logger()

	out := &Outcome{
		CampaignID: campaignID,
		Gateway:    gw.GetName(),
		Attempted:  len(req.Recipients),
		Failures:   []BatchFailure{},
	}
	if len(req.Recipients) == 0 {
		out.Success = true
		return out, nil
	}

	start := d.now()
	wall := time.Now()
	metrics.DispatchesInFlight.Inc()
	defer func() {
		metrics.DispatchesInFlight.Dec()
		metrics.DispatchDuration.Observe(time.Since(wall).Seconds())
	}()

	batches := Partition(req.Recipients, d.cfg.BatchSize)
	out.Batches = len(batches)

	replyTo := req.ReplyTo
	if replyTo == "" {
		replyTo = req.FromEmail
	}
	body := content.Harden(req.HTMLBody)
	baseHeaders := headers.Build(campaignID, req.FromName, gw.Hostname())
	from := gateway.FormatAddress(req.FromName, req.FromEmail)

	for i, batch := range batches {
		if ctx.Err() != nil {
			d.cancel(out, batches[i:], log)
			break
		}

		msg := &gateway.Message{
			To:                batch,
			From:              from,
			Subject:           req.Subject,
			HTMLBody:          body,
			ReplyTo:           replyTo,
			TrackOpens:        true,
			TrackClicks:       true,
			TrackUnsubscribes: true,
			Headers:           headers.WithTimestamp(baseHeaders, d.now()),
		}

		if err := d.send(ctx, gw, msg); err != nil {
			out.Failures = append(out.Failures, BatchFailure{
				BatchIndex: i,
				Size:       len(batch),
				Detail:     err.Error(),
				Permanent:  gateway.IsPermanent(err),
				Recipients: batch,
			})
			metrics.DispatchBatchesTotal.WithLabelValues(gw.GetName(), "failed").Inc()
			log.Warn().Err(err).Int("batch_index", i).Int("batch_size", len(batch)).Msg("batch failed")
		} else {
			out.Delivered += len(batch)
			metrics.DispatchBatchesTotal.WithLabelValues(gw.GetName(), "delivered").Inc()
			log.Debug().Int("batch_index", i).Int("batch_size", len(batch)).Msg("batch delivered")
		}

		if req.Progress != nil {
			req.Progress(progress(i+1, len(batches)))
		}

		if i == len(batches)-1 {
			break
		}
		if err := d.pacer.Wait(ctx, i); err != nil {
			d.cancel(out, batches[i+1:], log)
			break
		}
	}

	out.Success = out.Delivered == out.Attempted
	d.record(out)

	log.Info().
		Int("attempted", out.Attempted).
		Int("delivered", out.Delivered).
		Int("failed_batches", len(out.Failures)).
		Int("unattempted", len(out.Unattempted)).
		Bool("cancelled", out.Cancelled).
		Dur("elapsed", d.now().Sub(start)).
		Msg("dispatch finished")

	return out, nil
}

// send bounds one gateway call by the configured timeout.
func (d *Dispatcher) send(ctx context.Context, gw gateway.Client, msg *gateway.Message) error {
	if d.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.GatewayTimeout)
		defer cancel()
	}

	began := time.Now()
	res, err := gw.Send(ctx, msg)
	metrics.GatewaySendDuration.WithLabelValues(gw.GetName()).Observe(time.Since(began).Seconds())
	if err != nil {
		return err
	}
	if res != nil && res.Status == gateway.StatusFailed {
		return fmt.Errorf("%s: gateway reported failure", gw.GetName())
	}
	return nil
}

func (d *Dispatcher) cancel(out *Outcome, remaining [][]string, log zerolog.Logger) {
	out.Cancelled = true
	for _, b := range remaining {
		out.Unattempted = append(out.Unattempted, b...)
	}
	if len(remaining) > 0 {
		log.Info().Int("remaining_batches", len(remaining)).Msg("dispatch cancelled")
	}
}

func (d *Dispatcher) record(out *Outcome) {
	metrics.DispatchRecipientsTotal.WithLabelValues("delivered").Add(float64(out.Delivered))
	metrics.DispatchRecipientsTotal.WithLabelValues("failed").Add(float64(out.Failed()))
	metrics.DispatchRecipientsTotal.WithLabelValues("unattempted").Add(float64(len(out.Unattempted)))

	result := "partial"
	switch {
	case out.Cancelled:
		result = "cancelled"
	case out.Success:
		result = "success"
	}
	metrics.DispatchOutcomesTotal.WithLabelValues(result).Inc()
}

// progress returns round(100*done/total).
func progress(done, total int) int {
	return int(math.Round(100 * float64(done) / float64(total)))
}
