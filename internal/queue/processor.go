package queue

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// settleTimeout bounds the bookkeeping writes (acks, deletes, DLQ moves and
// early re-enqueues) that must land after Stop has cancelled the worker
// context.
const settleTimeout = 5 * time.Second

// settleContext detaches ctx from cancellation and bounds it by settleTimeout.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// processor runs the handler for one job and settles failures. It is shared
// by the Redis and SQS dequeuers.
type processor struct {
	handler JobHandler
	retry   *RetryStrategy
	dlq     DeadLetterQueue
	log     zerolog.Logger
	timeout time.Duration
}

// process invokes the handler. The handler may narrow job in place before
// failing, so a retried job carries only what is left to do. It returns the
// backoff and true when the caller should re-enqueue job.
func (p *processor) process(ctx context.Context, job *Job) (time.Duration, bool) {
	start := time.Now()

	processCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.handler.HandleJob(processCtx, job)
	JobProcessingDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		JobsProcessedTotal.WithLabelValues("done").Inc()
		return 0, false
	}

	p.log.Error().
		Err(err).
		Str("job_id", job.ID).
		Str("campaign_id", job.CampaignID).
		Int("retry_count", job.RetryCount).
		Msg("job processing failed")

	job.RetryCount++

	cause := "exhausted"
	if errors.Is(err, ErrPermanent) {
		cause = "permanent"
	} else if p.retry.ShouldRetry(job.RetryCount) {
		backoff := p.retry.NextBackoff(job.RetryCount - 1)
		p.log.Info().
			Str("job_id", job.ID).
			Int("retry_count", job.RetryCount).
			Int("recipients", len(job.Recipients)).
			Dur("backoff", backoff).
			Msg("scheduling retry")
		JobsProcessedTotal.WithLabelValues("retried").Inc()
		return backoff, true
	}

	p.log.Warn().
		Str("job_id", job.ID).
		Int("retry_count", job.RetryCount).
		Str("cause", cause).
		Msg("moving job to DLQ")

	if p.dlq == nil {
		p.log.Error().Str("job_id", job.ID).Msg("no DLQ configured, dropping job")
		return 0, false
	}
	dlqCtx, cancelDLQ := settleContext(ctx)
	defer cancelDLQ()
	if dlqErr := p.dlq.MoveToDLQ(dlqCtx, job, err.Error()); dlqErr != nil {
		p.log.Error().Err(dlqErr).Str("job_id", job.ID).Msg("failed to move job to DLQ")
		return 0, false
	}
	DLQJobsTotal.WithLabelValues(cause).Inc()
	return 0, false
}
