package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a requested draft does not exist.
var ErrNotFound = errors.New("draft: not found")

// Backend stores opaque draft documents by key.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// BackendConfig selects and configures a Backend.
type BackendConfig struct {
	Type       string        `mapstructure:"type"` // local (default), s3, redis
	Path       string        `mapstructure:"path"`
	S3Bucket   string        `mapstructure:"s3_bucket"`
	S3Prefix   string        `mapstructure:"s3_prefix"`
	S3Endpoint string        `mapstructure:"s3_endpoint"`
	S3Region   string        `mapstructure:"s3_region"`
	RedisAddr  string        `mapstructure:"redis_addr"`
	RedisDB    int           `mapstructure:"redis_db"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// NewBackend builds the configured backend. An empty or unknown type
// falls back to local storage with a warning.
func NewBackend(ctx context.Context, cfg BackendConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "local":
		return NewLocalBackend(cfg.Path)
	case "s3":
		return NewS3BackendFromConfig(ctx, cfg)
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, errors.New("draft: redis addr is required")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		return NewRedisBackend(client, "draft:", cfg.TTL), nil
	default:
		log.Warn().
			Str("type", cfg.Type).
			Msg("unsupported or empty draft backend type, defaulting to local")
		return NewLocalBackend(cfg.Path)
	}
}

// validKey rejects keys that could escape a directory or prefix.
func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("draft: invalid key %q", key)
	}
	return nil
}
