package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// fakeStreams is an in-memory streamWriter keyed by stream name.
type fakeStreams struct {
	mu      sync.Mutex
	streams map[string][]redis.XMessage
	seq     int
	addErr  error
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{streams: make(map[string][]redis.XMessage)}
}

func (f *fakeStreams) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return redis.NewStringResult("", f.addErr)
	}
	f.seq++
	id := strconv.Itoa(f.seq) + "-0"
	values := make(map[string]interface{})
	for k, v := range a.Values.(map[string]interface{}) {
		values[k] = v
	}
	f.streams[a.Stream] = append(f.streams[a.Stream], redis.XMessage{ID: id, Values: values})
	return redis.NewStringResult(id, nil)
}

func (f *fakeStreams) XRange(_ context.Context, stream, start, _ string) *redis.XMessageSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.streams[stream] {
		if m.ID == start {
			return redis.NewXMessageSliceCmdResult([]redis.XMessage{m}, nil)
		}
	}
	return redis.NewXMessageSliceCmdResult(nil, nil)
}

func (f *fakeStreams) XDel(_ context.Context, stream string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []redis.XMessage
	var n int64
	for _, m := range f.streams[stream] {
		drop := false
		for _, id := range ids {
			if m.ID == id {
				drop = true
			}
		}
		if drop {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.streams[stream] = kept
	return redis.NewIntResult(n, nil)
}

func (f *fakeStreams) entries(stream string) []redis.XMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]redis.XMessage(nil), f.streams[stream]...)
}

func TestRedisEnqueuer_Enqueue(t *testing.T) {
	streams := newFakeStreams()
	enqueuer := NewRedisEnqueuer(streams, "")

	id, err := enqueuer.Enqueue(context.Background(), testJob("job-100", 0))
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if id == "" {
		t.Error("expected stream entry ID")
	}

	entries := streams.entries("dispatch:campaigns")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry on dispatch:campaigns, got %d", len(entries))
	}
	job, err := decodeJob(entries[0].Values["data"].(string))
	if err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if job.ID != "job-100" || len(job.Recipients) != 2 {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestRedisEnqueuer_Enqueue_Error(t *testing.T) {
	streams := newFakeStreams()
	streams.addErr = errors.New("connection refused")

	_, err := NewRedisEnqueuer(streams, "vip").Enqueue(context.Background(), testJob("job-101", 0))
	if !errors.Is(err, streams.addErr) {
		t.Fatalf("expected wrapped xadd error, got %v", err)
	}
}

func TestRedisDLQ_MoveAndReprocess(t *testing.T) {
	streams := newFakeStreams()
	enqueuer := NewRedisEnqueuer(streams, "vip")
	dlq := NewRedisDLQ(streams, enqueuer, "vip")
	ctx := context.Background()

	if err := dlq.MoveToDLQ(ctx, testJob("job-110", 3), "gateway down"); err != nil {
		t.Fatalf("MoveToDLQ() error = %v", err)
	}
	dead := streams.entries("dispatch-dlq:vip")
	if len(dead) != 1 {
		t.Fatalf("expected 1 DLQ entry, got %d", len(dead))
	}

	var entry DLQEntry
	if err := json.Unmarshal([]byte(dead[0].Values["data"].(string)), &entry); err != nil {
		t.Fatalf("unmarshal DLQ entry: %v", err)
	}
	if entry.FailureReason != "gateway down" || entry.Job.RetryCount != 3 {
		t.Errorf("unexpected entry: %+v", entry)
	}

	n, err := dlq.Reprocess(ctx, []string{dead[0].ID, "0-404"})
	if err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Reprocess() = %d, want 1", n)
	}
	if left := streams.entries("dispatch-dlq:vip"); len(left) != 0 {
		t.Errorf("expected DLQ to be empty, got %d entries", len(left))
	}

	live := streams.entries("dispatch:vip")
	if len(live) != 1 {
		t.Fatalf("expected 1 requeued job, got %d", len(live))
	}
	job, err := decodeJob(live[0].Values["data"].(string))
	if err != nil {
		t.Fatalf("decode requeued job: %v", err)
	}
	if job.ID != "job-110" || job.RetryCount != 0 {
		t.Errorf("unexpected requeued job: %+v", job)
	}
}

func TestRedisDLQ_Reprocess_SkipsMalformed(t *testing.T) {
	streams := newFakeStreams()
	dlq := NewRedisDLQ(streams, NewRedisEnqueuer(streams, ""), "")
	ctx := context.Background()

	id := streams.XAdd(ctx, &redis.XAddArgs{
		Stream: "dispatch-dlq:campaigns",
		Values: map[string]interface{}{"data": "{broken"},
	}).Val()

	n, err := dlq.Reprocess(ctx, []string{id})
	if err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Reprocess() = %d, want 0", n)
	}
	if len(streams.entries("dispatch-dlq:campaigns")) != 1 {
		t.Error("malformed entry must stay in the DLQ")
	}
}

// ctxEnqueuer records the jobs it receives and whether their context was
// still live.
type ctxEnqueuer struct {
	mu   sync.Mutex
	jobs []*Job
	live []bool
}

func (e *ctxEnqueuer) Enqueue(ctx context.Context, job *Job) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
	e.live = append(e.live, ctx.Err() == nil)
	return "1-0", nil
}

func TestRedisDequeuer_RetryAfterBackoff(t *testing.T) {
	tests := []struct {
		name    string
		backoff time.Duration
		cancel  bool
	}{
		{name: "backoff elapses", backoff: time.Millisecond},
		{name: "shutdown re-enqueues early", backoff: time.Hour, cancel: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enq := &ctxEnqueuer{}
			d := &RedisDequeuer{enqueuer: enq, log: zerolog.Nop()}

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancel {
				cancel()
			} else {
				defer cancel()
			}

			job := &Job{ID: "job-1", Recipients: []string{"a@example.com"}, RetryCount: 1}
			d.wg.Add(1)
			d.retryAfterBackoff(ctx, job, tt.backoff)

			if len(enq.jobs) != 1 || enq.jobs[0].ID != "job-1" {
				t.Fatalf("expected job-1 re-enqueued once, got %v", enq.jobs)
			}
			if !enq.live[0] {
				t.Error("expected re-enqueue with a live context")
			}
		})
	}
}

// cmdRecorder is a go-redis hook that answers every command locally and
// records its name and whether its context was still live.
type cmdRecorder struct {
	mu    sync.Mutex
	names []string
	live  []bool
}

func (h *cmdRecorder) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *cmdRecorder) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.names = append(h.names, cmd.Name())
		h.live = append(h.live, ctx.Err() == nil)
		return nil
	}
}

func (h *cmdRecorder) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisDequeuer_AckSurvivesShutdown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	rec := &cmdRecorder{}
	client.AddHook(rec)

	d := &RedisDequeuer{client: client, config: DefaultConfig(), log: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.processEntry(ctx, redis.XMessage{ID: "7-0", Values: map[string]interface{}{"data": 42}})

	if len(rec.names) != 1 || rec.names[0] != "xack" {
		t.Fatalf("expected a single xack, got %v", rec.names)
	}
	if !rec.live[0] {
		t.Error("expected xack with a live context")
	}
}
