// Package logger builds the service's zerolog loggers and carries
// request-scoped fields through context.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config mirrors config.LoggingConfig to avoid a circular import.
type Config struct {
	Level      string
	Output     string // stdout (default), stderr, file, console
	FilePath   string
	MaxSizeMB  int
	MaxFiles   int
	MaxAgeDays int
}

type contextKey string

const (
	loggerKey        contextKey = "logger"
	correlationIDKey contextKey = "correlation_id"
	campaignIDKey    contextKey = "campaign_id"
)

// New creates a JSON zerolog.Logger on stdout. An invalid level falls back
// to info.
func New(level string) zerolog.Logger {
	return build(os.Stdout, level)
}

// NewFromConfig selects the writer from cfg.Output:
//   - "file": rotating file via lumberjack
//   - "stderr": os.Stderr
//   - "console": human-readable output on stderr, used by the CLI
//   - anything else: os.Stdout
func NewFromConfig(cfg Config) zerolog.Logger {
	var w io.Writer
	switch cfg.Output {
	case "file":
		w = NewFileWriter(FileConfig{
			Path:       cfg.FilePath,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxFiles:   cfg.MaxFiles,
			MaxAgeDays: cfg.MaxAgeDays,
		})
	case "stderr":
		w = os.Stderr
	case "console":
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	default:
		w = os.Stdout
	}
	return build(w, cfg.Level)
}

func build(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithCorrelationID stores a correlation ID in the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// WithCampaignID stores the campaign being dispatched in the context.
func WithCampaignID(ctx context.Context, campaignID string) context.Context {
	return context.WithValue(ctx, campaignIDKey, campaignID)
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// CampaignIDFromContext returns the campaign ID, or "".
func CampaignIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(campaignIDKey).(string)
	return id
}

// FromContext returns the context logger (or an info-level stdout logger)
// with correlation_id and campaign_id attached when present.
func FromContext(ctx context.Context) zerolog.Logger {
	log, ok := ctx.Value(loggerKey).(zerolog.Logger)
	if !ok {
		log = New("info")
	}

	fields := log.With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		fields = fields.Str("correlation_id", id)
	}
	if id := CampaignIDFromContext(ctx); id != "" {
		fields = fields.Str("campaign_id", id)
	}
	return fields.Logger()
}

// NewCorrelationID generates a new UUID-based correlation ID.
func NewCorrelationID() string {
	return uuid.New().String()
}
