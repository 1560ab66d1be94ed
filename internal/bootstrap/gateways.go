// Package bootstrap provides startup-time initialization routines shared
// by the service binaries: building the gateway set and seeding
// subscribers.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sungwon/campaign-dispatch/internal/config"
	"github.com/sungwon/campaign-dispatch/internal/gateway"
	"github.com/sungwon/campaign-dispatch/internal/metrics"
	"github.com/sungwon/campaign-dispatch/internal/routing"
)

// ErrNoGateways is returned when no configured gateway could be built.
var ErrNoGateways = errors.New("no usable gateway configured")

// Gateways is the assembled delivery side: registered clients, their
// health checker and the routing engine over both.
type Gateways struct {
	Registry *gateway.Registry
	Health   *gateway.HealthChecker
	Router   *routing.Engine
}

// Stop halts background health checks.
func (g *Gateways) Stop() {
	if g.Health != nil {
		g.Health.Stop()
	}
}

// BuildGateways registers every valid provider in cfg, skipping invalid
// ones with a warning, and wires the routing rules. Health checks start
// when checkHealth is set; otherwise every registered gateway is treated
// as healthy.
func BuildGateways(ctx context.Context, cfg config.GatewayConfig, checkHealth bool, log zerolog.Logger) (*Gateways, error) {
	registry := gateway.NewRegistry()
	for _, pc := range cfg.Providers {
		client, err := gateway.New(ctx, pc, nil)
		if err != nil {
			log.Warn().Err(err).
				Str("gateway", pc.Name).
				Str("type", pc.Type).
				Msg("skipping gateway")
			continue
		}
		registry.Register(client)
		log.Info().Str("gateway", client.GetName()).Str("type", pc.Type).Msg("gateway registered")
	}
	if len(registry.List()) == 0 {
		return nil, ErrNoGateways
	}

	g := &Gateways{Registry: registry}

	var health routing.HealthChecker
	if checkHealth {
		g.Health = gateway.NewHealthChecker(registry, cfg.HealthInterval, cfg.HealthTimeout, metrics.ObserveGatewayHealth)
		g.Health.Start()
		health = g.Health
	}

	defaultRule := cfg.DefaultRule()
	if defaultRule.PrimaryGateway == "" {
		defaultRule.PrimaryGateway = registry.List()[0]
	}
	engine, err := routing.NewEngine(registry, health, defaultRule)
	if err != nil {
		g.Stop()
		return nil, fmt.Errorf("routing: %w", err)
	}
	for _, rule := range cfg.Rules {
		if err := engine.SetRule(rule); err != nil {
			g.Stop()
			return nil, fmt.Errorf("routing rule %q: %w", rule.SenderDomain, err)
		}
	}
	g.Router = engine

	return g, nil
}

// Named returns a resolver that always picks the named gateway, for
// callers that bypass routing.
func (g *Gateways) Named(name string) (*FixedResolver, error) {
	client, err := g.Registry.Get(name)
	if err != nil {
		return nil, err
	}
	return &FixedResolver{client: client}, nil
}

// FixedResolver resolves every sender to one gateway.
type FixedResolver struct {
	client gateway.Client
}

// Resolve returns the fixed gateway.
func (f *FixedResolver) Resolve(context.Context, string) (gateway.Client, error) {
	return f.client, nil
}
