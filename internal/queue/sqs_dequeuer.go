package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SQSDequeuer manages a pool of worker goroutines that consume jobs from an
// AWS SQS queue.
type SQSDequeuer struct {
	client          sqsAPI
	queueURL        string
	proc            *processor
	enqueuer        *SQSEnqueuer
	log             zerolog.Logger
	workerCount     int
	waitTime        int32
	visTimeout      int32
	shutdownTimeout time.Duration
	wg              sync.WaitGroup
	cancel          context.CancelFunc
}

// NewSQSDequeuer creates an SQSDequeuer configured from the given Config.
func NewSQSDequeuer(
	client sqsAPI,
	queueURL string,
	handler JobHandler,
	dlq DeadLetterQueue,
	retry *RetryStrategy,
	enqueuer *SQSEnqueuer,
	cfg Config,
	log zerolog.Logger,
) *SQSDequeuer {
	def := DefaultConfig()
	waitTime := cfg.SQSWaitTime
	if waitTime == 0 {
		waitTime = 20
	}
	visTimeout := cfg.SQSVisTimeout
	if visTimeout == 0 {
		visTimeout = 3600
	}
	workerCount := cfg.WorkerCount
	if workerCount == 0 {
		workerCount = def.WorkerCount
	}
	processTimeout := cfg.ProcessTimeout
	if processTimeout == 0 {
		processTimeout = def.ProcessTimeout
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = def.ShutdownTimeout
	}

	return &SQSDequeuer{
		client:   client,
		queueURL: queueURL,
		proc: &processor{
			handler: handler,
			retry:   retry,
			dlq:     dlq,
			log:     log,
			timeout: processTimeout,
		},
		enqueuer:        enqueuer,
		log:             log,
		workerCount:     workerCount,
		waitTime:        waitTime,
		visTimeout:      visTimeout,
		shutdownTimeout: shutdownTimeout,
	}
}

// Start launches workerCount goroutines that long-poll the SQS queue.
func (d *SQSDequeuer) Start(ctx context.Context) error {
	ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.runWorker(ctx, fmt.Sprintf("sqs-dispatcher-%d", i))
	}

	d.log.Info().
		Int("worker_count", d.workerCount).
		Str("queue_url", d.queueURL).
		Msg("sqs dequeuer started")

	return nil
}

// Stop cancels the context and waits for workers to finish within the
// shutdown timeout.
func (d *SQSDequeuer) Stop(_ context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("sqs dequeuer stopped gracefully")
		return nil
	case <-time.After(d.shutdownTimeout):
		d.log.Warn().Msg("sqs dequeuer shutdown timed out")
		return fmt.Errorf("shutdown timed out after %s", d.shutdownTimeout)
	}
}

func (d *SQSDequeuer) runWorker(ctx context.Context, workerName string) {
	defer d.wg.Done()

	d.log.Info().Str("worker", workerName).Msg("sqs worker started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("worker", workerName).Msg("sqs worker stopping")
			return
		default:
		}

		out, err := d.client.ReceiveMessage(ctx, &sqsReceiveInput{
			QueueURL:            d.queueURL,
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     d.waitTime,
			VisibilityTimeout:   d.visTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Error().Err(err).Str("worker", workerName).Msg("sqs receive error")
			continue
		}

		for _, msg := range out.Messages {
			d.processMessage(ctx, msg)
		}
	}
}

// processMessage runs one received job. The original message is always
// deleted; a retry is a new message carrying the narrowed job.
func (d *SQSDequeuer) processMessage(ctx context.Context, msg sqsReceivedMessage) {
	job, err := decodeJob(msg.Body)
	if err != nil {
		d.log.Error().Err(err).
			Str("sqs_message_id", msg.MessageID).
			Str("campaign_id", msg.CampaignID).
			Msg("dropping malformed sqs job")
		d.delete(ctx, msg)
		return
	}

	stopHeartbeat := d.keepInvisible(ctx, msg.ReceiptHandle)
	backoff, retry := d.proc.process(ctx, job)
	stopHeartbeat()

	if retry {
		delay := int32(backoff.Seconds())
		if delay < 1 {
			delay = 1
		}
		enqueueCtx, cancel := settleContext(ctx)
		_, err := d.enqueuer.EnqueueWithDelay(enqueueCtx, job, delay)
		cancel()
		if err != nil {
			d.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to re-enqueue job for retry")
		}
	}

	d.delete(ctx, msg)
}

// keepInvisible extends the message's visibility timeout at half-interval
// while a long dispatch runs. The returned func stops the heartbeat.
func (d *SQSDequeuer) keepInvisible(ctx context.Context, receipt string) func() {
	interval := time.Duration(d.visTimeout) * time.Second / 2
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := d.client.ChangeMessageVisibility(ctx, &sqsChangeVisibilityInput{
					QueueURL:          d.queueURL,
					ReceiptHandle:     receipt,
					VisibilityTimeout: d.visTimeout,
				}); err != nil && ctx.Err() == nil {
					d.log.Warn().Err(err).Msg("failed to extend sqs visibility")
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (d *SQSDequeuer) delete(ctx context.Context, msg sqsReceivedMessage) {
	ctx, cancel := settleContext(ctx)
	defer cancel()
	if err := d.client.DeleteMessage(ctx, &sqsDeleteInput{
		QueueURL:      d.queueURL,
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		d.log.Error().Err(err).
			Str("sqs_message_id", msg.MessageID).
			Msg("failed to delete sqs message")
	}
}
