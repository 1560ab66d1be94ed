package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// streamWriter is the subset of the Redis client used to publish and
// manage stream entries.
type streamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XRange(ctx context.Context, stream, start, stop string) *redis.XMessageSliceCmd
	XDel(ctx context.Context, stream string, ids ...string) *redis.IntCmd
}

// RedisEnqueuer publishes jobs to a Redis stream.
type RedisEnqueuer struct {
	client streamWriter
	stream string
}

// NewRedisEnqueuer creates a RedisEnqueuer writing to the named stream.
func NewRedisEnqueuer(client streamWriter, stream string) *RedisEnqueuer {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisEnqueuer{client: client, stream: stream}
}

// Enqueue adds a job to the stream using XADD and returns the entry ID.
func (e *RedisEnqueuer) Enqueue(ctx context.Context, job *Job) (string, error) {
	data, err := encodeJob(job)
	if err != nil {
		return "", err
	}

	key := streamKey(e.stream)
	entryID, err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		Values: map[string]interface{}{"data": data},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to stream %s: %w", key, err)
	}

	JobsEnqueuedTotal.Inc()
	return entryID, nil
}
