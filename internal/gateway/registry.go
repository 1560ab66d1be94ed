package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages gateway instances and allows lookup by name.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Client
}

// NewRegistry creates an empty gateway registry.
func NewRegistry() *Registry {
	return &Registry{gateways: make(map[string]Client)}
}

// Register adds a gateway, replacing any with the same name.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[c.GetName()] = c
}

// Get returns a gateway by name.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("gateway not found: %s", name)
	}
	return c, nil
}

// List returns the sorted names of all registered gateways.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered gateways.
func (r *Registry) All() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Client, 0, len(r.gateways))
	for _, c := range r.gateways {
		out = append(out, c)
	}
	return out
}

// New creates a gateway from cfg. HTTP gateways use httpClient; when it is
// nil a DefaultHTTPClient with cfg.Timeout is created.
func New(ctx context.Context, cfg Config, httpClient HTTPClient) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}

	switch cfg.Type {
	case "postal":
		return NewPostal(cfg, httpClient), nil
	case "sendgrid":
		return NewSendGrid(cfg, httpClient), nil
	case "mailgun":
		return NewMailgun(cfg, httpClient), nil
	case "ses":
		return NewSES(ctx, cfg)
	case "stdout":
		return NewStdout(nil), nil
	case "file":
		return NewFile(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported gateway type: %s", cfg.Type)
	}
}
