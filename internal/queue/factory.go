package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Queue bundles the three sides of a configured backend. Dequeuer is nil
// when no handler was supplied, as in a submit-only API process.
type Queue struct {
	Enqueuer Enqueuer
	Dequeuer Dequeuer
	DLQ      DeadLetterQueue
	close    func() error
}

// Close releases the backend's connections.
func (q *Queue) Close() error {
	if q.close == nil {
		return nil
	}
	return q.close()
}

// New creates the queue backend selected by cfg.Type. handler may be nil.
func New(ctx context.Context, cfg Config, handler JobHandler, log zerolog.Logger) (*Queue, error) {
	retry := NewRetryStrategy(cfg.MaxRetries)

	switch cfg.Type {
	case "redis", "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		enqueuer := NewRedisEnqueuer(client, cfg.stream())
		dlq := NewRedisDLQ(client, enqueuer, cfg.stream())
		q := &Queue{Enqueuer: enqueuer, DLQ: dlq, close: client.Close}
		if handler != nil {
			q.Dequeuer = NewRedisDequeuer(client, enqueuer, dlq, handler, retry, cfg, log)
		}
		return q, nil

	case "sqs":
		if cfg.SQSQueueURL == "" {
			return nil, fmt.Errorf("sqs queue url is required")
		}
		client, err := newAWSSQSClient(ctx, cfg.SQSRegion, cfg.SQSEndpoint)
		if err != nil {
			return nil, fmt.Errorf("create sqs client: %w", err)
		}

		enqueuer := NewSQSEnqueuer(client, cfg.SQSQueueURL, log)
		var dlq DeadLetterQueue
		if cfg.SQSDLQueueURL != "" {
			dlq = NewSQSDLQ(client, cfg.SQSDLQueueURL, enqueuer, log)
		}
		q := &Queue{Enqueuer: enqueuer, DLQ: dlq}
		if handler != nil {
			q.Dequeuer = NewSQSDequeuer(client, cfg.SQSQueueURL, handler, dlq, retry, enqueuer, cfg, log)
		}
		return q, nil

	default:
		return nil, fmt.Errorf("unknown queue type: %s", cfg.Type)
	}
}
