package pacing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelayBeforeBatch_Defaults(t *testing.T) {
	p := New(DefaultBaseDelay, DefaultRampLength)

	tests := []struct {
		index int
		want  time.Duration
	}{
		{0, 10 * time.Second},
		{1, 5 * time.Second},
		{3, 2500 * time.Millisecond},
		{4, 2 * time.Second},
		{8, 10 * time.Second / 9},
		{9, time.Second},
		{10, time.Second},
		{1000, time.Second},
		{-3, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := p.DelayBeforeBatch(tt.index); got != tt.want {
			t.Errorf("DelayBeforeBatch(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestDelayBeforeBatch_NonIncreasingWithFloor(t *testing.T) {
	p := New(300*time.Millisecond, 7)

	prev := p.DelayBeforeBatch(0)
	for i := 1; i < 50; i++ {
		d := p.DelayBeforeBatch(i)
		if d > prev {
			t.Fatalf("delay increased at index %d: %v > %v", i, d, prev)
		}
		if d < p.BaseDelay {
			t.Fatalf("delay %v below floor %v at index %d", d, p.BaseDelay, i)
		}
		prev = d
	}
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	p := New(-time.Second, 0)
	if p.BaseDelay != DefaultBaseDelay {
		t.Errorf("BaseDelay = %v, want %v", p.BaseDelay, DefaultBaseDelay)
	}
	if p.RampLength != DefaultRampLength {
		t.Errorf("RampLength = %d, want %d", p.RampLength, DefaultRampLength)
	}

	zero := New(0, 5)
	if zero.DelayBeforeBatch(0) != 0 {
		t.Errorf("expected zero delay with zero base, got %v", zero.DelayBeforeBatch(0))
	}
}

func TestWait_UsesComputedDelay(t *testing.T) {
	p := New(time.Second, 10)
	var got []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		got = append(got, d)
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background(), i); err != nil {
			t.Fatalf("Wait(%d): %v", i, err)
		}
	}

	want := []time.Duration{10 * time.Second, 5 * time.Second, time.Second * 10 / 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Wait(%d) slept %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWait_CancelledContext(t *testing.T) {
	p := New(time.Hour, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Wait(ctx, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("expected Wait to return promptly on cancelled context")
	}
}
