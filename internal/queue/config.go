package queue

import "time"

// Config holds configuration for the queue system.
type Config struct {
	// Type selects the queue backend: "redis" (default) or "sqs".
	Type            string        `mapstructure:"type"`
	Stream          string        `mapstructure:"stream"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	ConsumerGroup   string        `mapstructure:"consumer_group"`
	WorkerCount     int           `mapstructure:"worker_count"`
	BlockTimeout    time.Duration `mapstructure:"block_timeout"`
	ProcessTimeout  time.Duration `mapstructure:"process_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`

	// SQS-specific config
	SQSQueueURL   string `mapstructure:"sqs_queue_url"`
	SQSDLQueueURL string `mapstructure:"sqs_dlq_url"`
	SQSRegion     string `mapstructure:"sqs_region"`
	SQSEndpoint   string `mapstructure:"sqs_endpoint"`
	SQSWaitTime   int32  `mapstructure:"sqs_wait_time"`          // long poll seconds, default 20
	SQSVisTimeout int32  `mapstructure:"sqs_visibility_timeout"` // seconds, default 3600
}

// DefaultConfig returns a Config with sensible defaults. A campaign with
// pacing can run for a long time, so the process timeout is generous.
func DefaultConfig() Config {
	return Config{
		Stream:          DefaultStream,
		RedisAddr:       "localhost:6379",
		ConsumerGroup:   "dispatchers",
		WorkerCount:     4,
		BlockTimeout:    5 * time.Second,
		ProcessTimeout:  time.Hour,
		ShutdownTimeout: 30 * time.Second,
		MaxRetries:      DefaultMaxRetries,
	}
}

func (c Config) stream() string {
	if c.Stream == "" {
		return DefaultStream
	}
	return c.Stream
}
