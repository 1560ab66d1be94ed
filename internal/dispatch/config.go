package dispatch

import (
	"time"

	"github.com/sungwon/campaign-dispatch/internal/pacing"
)

// DefaultBatchSize is the number of recipients per outbound message.
const DefaultBatchSize = 1000

// Config tunes batching, pacing and the per-call gateway timeout.
type Config struct {
	BatchSize  int
	BaseDelay  time.Duration
	RampLength int
	// GatewayTimeout bounds every gateway send. Zero means the caller's
	// context is the only bound.
	GatewayTimeout time.Duration
	// CampaignIDPrefix is prepended to generated campaign IDs.
	CampaignIDPrefix string
}

// DefaultConfig returns batch size 1000, a 1s base delay over a 10-batch
// ramp and a 30s gateway timeout.
func DefaultConfig() Config {
	return Config{
		BatchSize:      DefaultBatchSize,
		BaseDelay:      pacing.DefaultBaseDelay,
		RampLength:     pacing.DefaultRampLength,
		GatewayTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.RampLength <= 0 {
		c.RampLength = pacing.DefaultRampLength
	}
	if c.BaseDelay < 0 {
		c.BaseDelay = pacing.DefaultBaseDelay
	}
	return c
}
