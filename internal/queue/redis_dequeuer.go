package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisDequeuer manages a pool of worker goroutines that consume jobs from a
// Redis stream using a consumer group.
type RedisDequeuer struct {
	client   *redis.Client
	enqueuer Enqueuer
	proc     *processor
	config   Config
	log      zerolog.Logger
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewRedisDequeuer creates a RedisDequeuer for cfg's stream and consumer
// group.
func NewRedisDequeuer(
	client *redis.Client,
	enqueuer Enqueuer,
	dlq DeadLetterQueue,
	handler JobHandler,
	retry *RetryStrategy,
	cfg Config,
	log zerolog.Logger,
) *RedisDequeuer {
	def := DefaultConfig()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = def.ProcessTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = def.BlockTimeout
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = def.ConsumerGroup
	}
	return &RedisDequeuer{
		client:   client,
		enqueuer: enqueuer,
		proc: &processor{
			handler: handler,
			retry:   retry,
			dlq:     dlq,
			log:     log,
			timeout: cfg.ProcessTimeout,
		},
		config: cfg,
		log:    log,
	}
}

// Start creates the consumer group (if it does not already exist) and
// launches the configured number of worker goroutines.
func (d *RedisDequeuer) Start(ctx context.Context) error {
	if err := d.createConsumerGroup(ctx); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}

	ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.config.WorkerCount; i++ {
		d.wg.Add(1)
		go d.runWorker(ctx, fmt.Sprintf("dispatcher-%d", i))
	}

	d.log.Info().
		Int("worker_count", d.config.WorkerCount).
		Str("stream", streamKey(d.config.stream())).
		Msg("redis dequeuer started")

	return nil
}

// Stop signals all workers to stop and waits up to the configured shutdown
// timeout for them to finish processing.
func (d *RedisDequeuer) Stop(ctx context.Context) error {
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
		d.log.Info().Msg("redis dequeuer stopped gracefully")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.config.ShutdownTimeout):
		d.log.Warn().Msg("redis dequeuer shutdown timed out")
		return fmt.Errorf("shutdown timed out after %s", d.config.ShutdownTimeout)
	}
}

func (d *RedisDequeuer) createConsumerGroup(ctx context.Context) error {
	key := streamKey(d.config.stream())
	err := d.client.XGroupCreateMkStream(ctx, key, d.config.ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on stream %s: %w", d.config.ConsumerGroup, key, err)
	}
	return nil
}

func (d *RedisDequeuer) runWorker(ctx context.Context, consumerName string) {
	defer d.wg.Done()

	key := streamKey(d.config.stream())
	d.log.Info().Str("consumer", consumerName).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("consumer", consumerName).Msg("worker stopping")
			return
		default:
		}

		streams, err := d.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    d.config.ConsumerGroup,
			Consumer: consumerName,
			Streams:  []string{key, ">"},
			Count:    1,
			Block:    d.config.BlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			d.log.Error().Err(err).Str("consumer", consumerName).Msg("xreadgroup error")
			continue
		}

		for _, stream := range streams {
			for _, xMsg := range stream.Messages {
				d.processEntry(ctx, xMsg)
			}
		}
		d.reportDepth(ctx, key)
	}
}

// processEntry decodes one stream entry, runs it, and acknowledges it. A
// failed job is re-added as a new entry, so the original is always acked.
func (d *RedisDequeuer) processEntry(ctx context.Context, xMsg redis.XMessage) {
	data, ok := xMsg.Values["data"].(string)
	if !ok {
		d.log.Error().Str("entry_id", xMsg.ID).Msg("invalid job data type")
		d.acknowledge(ctx, xMsg.ID)
		return
	}

	job, err := decodeJob(data)
	if err != nil {
		d.log.Error().Err(err).Str("entry_id", xMsg.ID).Msg("dropping malformed job")
		d.acknowledge(ctx, xMsg.ID)
		return
	}

	if backoff, retry := d.proc.process(ctx, job); retry {
		d.wg.Add(1)
		go d.retryAfterBackoff(ctx, job, backoff)
	}

	d.acknowledge(ctx, xMsg.ID)
}

func (d *RedisDequeuer) acknowledge(ctx context.Context, entryID string) {
	ctx, cancel := settleContext(ctx)
	defer cancel()
	key := streamKey(d.config.stream())
	if err := d.client.XAck(ctx, key, d.config.ConsumerGroup, entryID).Err(); err != nil {
		d.log.Error().Err(err).Str("entry_id", entryID).Str("stream", key).Msg("failed to acknowledge job")
	}
}

func (d *RedisDequeuer) reportDepth(ctx context.Context, key string) {
	n, err := d.client.XLen(ctx, key).Result()
	if err != nil {
		return
	}
	QueueDepth.WithLabelValues(d.config.stream()).Set(float64(n))
}

// retryAfterBackoff re-enqueues job once backoff elapses. Redis streams have
// no delayed delivery. The source entry is already acknowledged, so a wait
// cut short by Stop re-enqueues at once and the retry runs after restart.
func (d *RedisDequeuer) retryAfterBackoff(ctx context.Context, job *Job, backoff time.Duration) {
	defer d.wg.Done()

	timer := time.NewTimer(backoff)
	defer timer.Stop()

	enqueueCtx := ctx
	select {
	case <-ctx.Done():
		d.log.Warn().
			Str("job_id", job.ID).
			Int("recipients", len(job.Recipients)).
			Msg("shutdown before retry backoff elapsed, re-enqueueing early")
		var cancel context.CancelFunc
		enqueueCtx, cancel = settleContext(ctx)
		defer cancel()
	case <-timer.C:
	}

	if _, err := d.enqueuer.Enqueue(enqueueCtx, job); err != nil {
		d.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to re-enqueue job for retry")
	}
}
