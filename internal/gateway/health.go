package gateway

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultCheckInterval = 30 * time.Second
	DefaultCheckTimeout  = 10 * time.Second
	unhealthyThreshold   = 3
)

// HealthStatus is the last observed state of one gateway.
type HealthStatus struct {
	Healthy             bool      `json:"healthy"`
	LastCheck           time.Time `json:"last_check"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
}

// HealthObserver receives every health transition result, e.g. to export
// it as a metric.
type HealthObserver func(name string, healthy bool)

// HealthChecker polls every registered gateway and marks one unhealthy
// after three consecutive failed checks. A single success restores it.
type HealthChecker struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration
	observe  HealthObserver

	mu       sync.RWMutex
	statuses map[string]*HealthStatus

	stopCh  chan struct{}
	stopped chan struct{}
}

// NewHealthChecker creates a checker over registry. Zero durations fall
// back to the defaults.
func NewHealthChecker(registry *Registry, interval, timeout time.Duration, observe HealthObserver) *HealthChecker {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &HealthChecker{
		registry: registry,
		interval: interval,
		timeout:  timeout,
		observe:  observe,
		statuses: make(map[string]*HealthStatus),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start runs one check synchronously, then keeps polling in the background
// until Stop is called.
func (hc *HealthChecker) Start() {
	hc.checkAll()
	go hc.run()
}

// Stop terminates the polling loop and waits for it to exit.
func (hc *HealthChecker) Stop() {
	close(hc.stopCh)
	<-hc.stopped
}

// IsHealthy reports whether name passed its recent checks. Gateways that
// have never been checked are unhealthy.
func (hc *HealthChecker) IsHealthy(name string) bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	status, ok := hc.statuses[name]
	return ok && status.Healthy
}

// Statuses returns a snapshot of every known gateway's status.
func (hc *HealthChecker) Statuses() map[string]HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	out := make(map[string]HealthStatus, len(hc.statuses))
	for name, status := range hc.statuses {
		out[name] = *status
	}
	return out
}

func (hc *HealthChecker) run() {
	defer close(hc.stopped)

	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-hc.stopCh:
			return
		case <-ticker.C:
			hc.checkAll()
		}
	}
}

func (hc *HealthChecker) checkAll() {
	for _, c := range hc.registry.All() {
		hc.check(c)
	}
}

func (hc *HealthChecker) check(c Client) {
	ctx, cancel := context.WithTimeout(context.Background(), hc.timeout)
	err := c.HealthCheck(ctx)
	cancel()

	name := c.GetName()

	hc.mu.Lock()
	status, ok := hc.statuses[name]
	if !ok {
		status = &HealthStatus{Healthy: true}
		hc.statuses[name] = status
	}
	status.LastCheck = time.Now()
	if err != nil {
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		if status.ConsecutiveFailures >= unhealthyThreshold {
			status.Healthy = false
		}
	} else {
		status.ConsecutiveFailures = 0
		status.Healthy = true
		status.LastError = ""
	}
	healthy := status.Healthy
	hc.mu.Unlock()

	if hc.observe != nil {
		hc.observe(name, healthy)
	}
}
