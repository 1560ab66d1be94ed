package queue

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Stream", cfg.Stream, "campaigns"},
		{"ConsumerGroup", cfg.ConsumerGroup, "dispatchers"},
		{"WorkerCount", cfg.WorkerCount, 4},
		{"BlockTimeout", cfg.BlockTimeout, 5 * time.Second},
		{"ProcessTimeout", cfg.ProcessTimeout, time.Hour},
		{"ShutdownTimeout", cfg.ShutdownTimeout, 30 * time.Second},
		{"MaxRetries", cfg.MaxRetries, 3},
		{"RedisAddr", cfg.RedisAddr, "localhost:6379"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("DefaultConfig() %s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestConfig_StreamFallsBack(t *testing.T) {
	if got := (Config{}).stream(); got != DefaultStream {
		t.Errorf("stream() = %q, want %q", got, DefaultStream)
	}
	if got := (Config{Stream: "vip"}).stream(); got != "vip" {
		t.Errorf("stream() = %q, want vip", got)
	}
}
