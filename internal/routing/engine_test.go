package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/sungwon/campaign-dispatch/internal/gateway"
)

type mockHealthChecker struct {
	healthy map[string]bool
}

func (m *mockHealthChecker) IsHealthy(name string) bool {
	return m.healthy[name]
}

type namedGateway struct{ name string }

func (g *namedGateway) Send(context.Context, *gateway.Message) (*gateway.Result, error) {
	return &gateway.Result{Status: gateway.StatusSent}, nil
}
func (g *namedGateway) GetName() string                   { return g.name }
func (g *namedGateway) Hostname() string                  { return g.name + ".test" }
func (g *namedGateway) HealthCheck(context.Context) error { return nil }

func newRegistry(names ...string) *gateway.Registry {
	r := gateway.NewRegistry()
	for _, n := range names {
		r.Register(&namedGateway{name: n})
	}
	return r
}

func TestEngine_Resolve(t *testing.T) {
	defaultRule := Rule{PrimaryGateway: "postal", FallbackOrder: []string{"ses", "sendgrid"}}

	tests := []struct {
		name    string
		healthy map[string]bool
		sender  string
		want    string
		wantErr error
	}{
		{
			name:    "primary healthy",
			healthy: map[string]bool{"postal": true, "ses": true, "sendgrid": true},
			sender:  "news@acme.test",
			want:    "postal",
		},
		{
			name:    "first fallback",
			healthy: map[string]bool{"postal": false, "ses": true, "sendgrid": true},
			sender:  "news@acme.test",
			want:    "ses",
		},
		{
			name:    "second fallback",
			healthy: map[string]bool{"sendgrid": true},
			sender:  "news@acme.test",
			want:    "sendgrid",
		},
		{
			name:    "domain rule",
			healthy: map[string]bool{"postal": true, "ses": true, "sendgrid": true},
			sender:  "Shop <orders@Shop.Example>",
			want:    "sendgrid",
		},
		{
			name:    "all unhealthy",
			healthy: map[string]bool{},
			sender:  "news@acme.test",
			wantErr: ErrNoHealthyGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(newRegistry("postal", "ses", "sendgrid"), &mockHealthChecker{healthy: tt.healthy}, defaultRule)
			if err != nil {
				t.Fatal(err)
			}
			if err := engine.SetRule(Rule{SenderDomain: "shop.example", PrimaryGateway: "sendgrid", FallbackOrder: []string{"ses"}}); err != nil {
				t.Fatal(err)
			}

			c, err := engine.Resolve(context.Background(), tt.sender)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c.GetName() != tt.want {
				t.Errorf("resolved %q, want %q", c.GetName(), tt.want)
			}
		})
	}
}

func TestEngine_SkipsUnregistered(t *testing.T) {
	engine, err := NewEngine(newRegistry("ses"), nil, Rule{PrimaryGateway: "postal", FallbackOrder: []string{"ses"}})
	if err != nil {
		t.Fatal(err)
	}
	name, err := engine.ResolveName(context.Background(), "a@b.test")
	if err != nil {
		t.Fatal(err)
	}
	if name != "ses" {
		t.Errorf("ResolveName() = %q, want ses", name)
	}
}

func TestEngine_InvalidRules(t *testing.T) {
	if _, err := NewEngine(newRegistry(), nil, Rule{}); err == nil {
		t.Error("expected error for default rule without primary")
	}
	engine, _ := NewEngine(newRegistry(), nil, Rule{PrimaryGateway: "postal"})
	if err := engine.SetRule(Rule{PrimaryGateway: "ses"}); err == nil {
		t.Error("expected error for rule without sender domain")
	}
}
