// Package pacing computes the warm-up delay applied between dispatch batches.
package pacing

import (
	"context"
	"time"
)

// Defaults for the warm-up ramp.
const (
	DefaultBaseDelay  = time.Second
	DefaultRampLength = 10
)

// Pacer models a linear warm-up: the delay before the next batch starts at
// RampLength*BaseDelay and shrinks to BaseDelay once RampLength batches
// have been sent.
type Pacer struct {
	BaseDelay  time.Duration
	RampLength int

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Pacer. Non-positive arguments fall back to the defaults;
// a zero base delay is kept so tests can disable waiting.
func New(baseDelay time.Duration, rampLength int) *Pacer {
	if baseDelay < 0 {
		baseDelay = DefaultBaseDelay
	}
	if rampLength <= 0 {
		rampLength = DefaultRampLength
	}
	return &Pacer{BaseDelay: baseDelay, RampLength: rampLength}
}

// DelayBeforeBatch returns BaseDelay / min(1, (batchIndex+1)/RampLength).
// Negative indices are treated as 0.
func (p *Pacer) DelayBeforeBatch(batchIndex int) time.Duration {
	if batchIndex < 0 {
		batchIndex = 0
	}
	ramp := p.RampLength
	if ramp <= 0 {
		ramp = DefaultRampLength
	}
	if batchIndex+1 >= ramp {
		return p.BaseDelay
	}
	return time.Duration(int64(p.BaseDelay) * int64(ramp) / int64(batchIndex+1))
}

// Wait blocks for DelayBeforeBatch(batchIndex) or until ctx is done.
func (p *Pacer) Wait(ctx context.Context, batchIndex int) error {
	d := p.DelayBeforeBatch(batchIndex)
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	return sleepWithContext(ctx, d)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
