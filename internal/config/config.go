package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/draft"
	"github.com/sungwon/campaign-dispatch/internal/events"
	"github.com/sungwon/campaign-dispatch/internal/gateway"
	"github.com/sungwon/campaign-dispatch/internal/logger"
	"github.com/sungwon/campaign-dispatch/internal/queue"
	"github.com/sungwon/campaign-dispatch/internal/routing"
	"github.com/sungwon/campaign-dispatch/internal/storage"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig           `mapstructure:"api"`
	Database storage.PoolConfig  `mapstructure:"database"`
	Logging  LoggingConfig       `mapstructure:"logging"`
	Dispatch DispatchConfig      `mapstructure:"dispatch"`
	Gateway  GatewayConfig       `mapstructure:"gateway"`
	Queue    queue.Config        `mapstructure:"queue"`
	Drafts   draft.BackendConfig `mapstructure:"drafts"`
	Events   events.Config       `mapstructure:"events"`
	Delivery DeliveryConfig      `mapstructure:"delivery"`

	Subscribers SubscribersConfig `mapstructure:"subscribers"`
	Worker      WorkerConfig      `mapstructure:"worker"`
}

// APIConfig holds REST API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port for the HTTP listener.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxFiles   int    `mapstructure:"max_files"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Logger converts the section into a logger.Config.
func (c LoggingConfig) Logger() logger.Config {
	return logger.Config{
		Level:      c.Level,
		Output:     c.Output,
		FilePath:   c.FilePath,
		MaxSizeMB:  c.MaxSizeMB,
		MaxFiles:   c.MaxFiles,
		MaxAgeDays: c.MaxAgeDays,
	}
}

// DispatchConfig tunes batching and warm-up pacing.
type DispatchConfig struct {
	BatchSize        int           `mapstructure:"batch_size"`
	BaseDelay        time.Duration `mapstructure:"base_delay"`
	RampLength       int           `mapstructure:"ramp_length"`
	GatewayTimeout   time.Duration `mapstructure:"gateway_timeout"`
	CampaignIDPrefix string        `mapstructure:"campaign_id_prefix"`
}

// Dispatcher converts the section into a dispatch.Config. Zero values are
// replaced by the dispatcher's own defaults.
func (c DispatchConfig) Dispatcher() dispatch.Config {
	return dispatch.Config{
		BatchSize:        c.BatchSize,
		BaseDelay:        c.BaseDelay,
		RampLength:       c.RampLength,
		GatewayTimeout:   c.GatewayTimeout,
		CampaignIDPrefix: c.CampaignIDPrefix,
	}
}

// GatewayConfig lists the delivery gateways and how senders are routed
// across them.
type GatewayConfig struct {
	// Primary and Fallback form the default routing rule.
	Primary        string           `mapstructure:"primary"`
	Fallback       []string         `mapstructure:"fallback"`
	HealthInterval time.Duration    `mapstructure:"health_interval"`
	HealthTimeout  time.Duration    `mapstructure:"health_timeout"`
	Providers      []gateway.Config `mapstructure:"providers"`
	Rules          []routing.Rule   `mapstructure:"rules"`
}

// DefaultRule returns the routing rule used for senders without a
// domain-specific rule.
func (c GatewayConfig) DefaultRule() routing.Rule {
	return routing.Rule{PrimaryGateway: c.Primary, FallbackOrder: c.Fallback}
}

// DeliveryConfig selects how the API submits campaigns.
type DeliveryConfig struct {
	// Mode is "async" (enqueue for a worker, default) or "sync".
	Mode string `mapstructure:"mode"`
}

// SubscribersConfig controls startup subscriber seeding.
type SubscribersConfig struct {
	// SeedFile is a JSON array of subscriber snapshots upserted at API
	// startup. Empty disables seeding.
	SeedFile string `mapstructure:"seed_file"`
}

// WorkerConfig holds dispatch-worker process settings.
type WorkerConfig struct {
	// MetricsAddr is where the worker serves /metrics.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix CAMPAIGN_DISPATCH_ override file values.
// For example, CAMPAIGN_DISPATCH_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("CAMPAIGN_DISPATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
