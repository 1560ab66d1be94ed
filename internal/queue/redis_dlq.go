package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DLQEntry wraps a dead job with failure metadata.
type DLQEntry struct {
	Job           *Job      `json:"job"`
	FailureReason string    `json:"failure_reason"`
	MovedAt       time.Time `json:"moved_at"`
}

// RedisDLQ manages dead letter operations backed by a Redis stream.
type RedisDLQ struct {
	client   streamWriter
	enqueuer Enqueuer
	stream   string
}

// NewRedisDLQ creates a RedisDLQ for the named stream. Reprocessed jobs are
// handed back to enqueuer.
func NewRedisDLQ(client streamWriter, enqueuer Enqueuer, stream string) *RedisDLQ {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisDLQ{client: client, enqueuer: enqueuer, stream: stream}
}

// MoveToDLQ appends the job to the DLQ stream.
func (d *RedisDLQ) MoveToDLQ(ctx context.Context, job *Job, reason string) error {
	data, err := json.Marshal(DLQEntry{Job: job, FailureReason: reason, MovedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	key := dlqStreamKey(d.stream)
	if err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		Values: map[string]interface{}{"data": string(data)},
	}).Err(); err != nil {
		return fmt.Errorf("xadd to dlq stream %s: %w", key, err)
	}

	JobsProcessedTotal.WithLabelValues("dlq").Inc()
	return nil
}

// Reprocess moves the given DLQ entries back to the primary stream with a
// reset retry count. Unknown or malformed entries are skipped. It returns
// the number of jobs re-enqueued.
func (d *RedisDLQ) Reprocess(ctx context.Context, entryIDs []string) (int, error) {
	key := dlqStreamKey(d.stream)
	reprocessed := 0

	for _, id := range entryIDs {
		msgs, err := d.client.XRange(ctx, key, id, id).Result()
		if err != nil {
			return reprocessed, fmt.Errorf("xrange dlq entry %s: %w", id, err)
		}
		if len(msgs) == 0 {
			continue
		}

		data, ok := msgs[0].Values["data"].(string)
		if !ok {
			continue
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil || entry.Job == nil {
			continue
		}

		entry.Job.RetryCount = 0
		if _, err := d.enqueuer.Enqueue(ctx, entry.Job); err != nil {
			return reprocessed, fmt.Errorf("re-enqueue job %s: %w", entry.Job.ID, err)
		}
		if err := d.client.XDel(ctx, key, id).Err(); err != nil {
			return reprocessed, fmt.Errorf("xdel dlq entry %s: %w", id, err)
		}
		reprocessed++
	}

	return reprocessed, nil
}
