// Package routing picks the gateway that serves a campaign based on the
// sender's domain and the current gateway health.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sungwon/campaign-dispatch/internal/gateway"
)

// ErrNoHealthyGateway is returned when every candidate gateway is unhealthy
// or unregistered.
var ErrNoHealthyGateway = errors.New("no healthy gateway available")

// HealthChecker reports whether a named gateway is currently healthy.
type HealthChecker interface {
	IsHealthy(name string) bool
}

// Engine resolves gateway clients from a registry using per-domain rules.
type Engine struct {
	registry *gateway.Registry
	health   HealthChecker

	mu          sync.RWMutex
	rules       map[string]*Rule
	defaultRule *Rule
}

// NewEngine creates a routing engine. A nil health checker treats every
// registered gateway as healthy.
func NewEngine(registry *gateway.Registry, health HealthChecker, defaultRule Rule) (*Engine, error) {
	if err := defaultRule.Validate(); err != nil {
		return nil, fmt.Errorf("default rule: %w", err)
	}
	return &Engine{
		registry:    registry,
		health:      health,
		rules:       make(map[string]*Rule),
		defaultRule: &defaultRule,
	}, nil
}

// SetRule adds or replaces the rule for rule.SenderDomain.
func (e *Engine) SetRule(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.SenderDomain == "" {
		return errors.New("sender domain is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[strings.ToLower(rule.SenderDomain)] = &rule
	return nil
}

// ResolveName returns the first healthy registered gateway name for the
// sender address: the matching rule's primary, then its fallbacks.
func (e *Engine) ResolveName(_ context.Context, senderEmail string) (string, error) {
	e.mu.RLock()
	rule, ok := e.rules[senderDomain(senderEmail)]
	if !ok {
		rule = e.defaultRule
	}
	e.mu.RUnlock()

	for _, name := range rule.candidates() {
		if _, err := e.registry.Get(name); err != nil {
			continue
		}
		if e.health == nil || e.health.IsHealthy(name) {
			return name, nil
		}
	}
	return "", ErrNoHealthyGateway
}

// Resolve returns the gateway client chosen by ResolveName.
func (e *Engine) Resolve(ctx context.Context, senderEmail string) (gateway.Client, error) {
	name, err := e.ResolveName(ctx, senderEmail)
	if err != nil {
		return nil, err
	}
	return e.registry.Get(name)
}
