package gateway

import (
	"context"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockClient{name: "postal"})
	r.Register(&mockClient{name: "ses"})

	if _, err := r.Get("postal"); err != nil {
		t.Errorf("Get(postal) error = %v", err)
	}
	if _, err := r.Get("missing"); err == nil {
		t.Error("expected error for unknown gateway")
	}
	names := r.List()
	if len(names) != 2 || names[0] != "postal" || names[1] != "ses" {
		t.Errorf("List() = %v", names)
	}
	if len(r.All()) != 2 {
		t.Errorf("All() = %d entries", len(r.All()))
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{Config{Type: "postal", Endpoint: "https://p.test", APIKey: "k"}, "postal", false},
		{Config{Type: "sendgrid", APIKey: "k", Name: "sg-eu"}, "sg-eu", false},
		{Config{Type: "mailgun", APIKey: "k", Domain: "mg.test"}, "mailgun", false},
		{Config{Type: "stdout"}, "stdout", false},
		{Config{Type: "file", Endpoint: "/tmp/out"}, "file", false},
		{Config{Type: "postal"}, "", true},
		{Config{Type: "carrier-pigeon"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Type+"/"+tt.wantName, func(t *testing.T) {
			c, err := New(context.Background(), tt.cfg, &mockHTTPClient{})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c.GetName() != tt.wantName {
				t.Errorf("GetName() = %q, want %q", c.GetName(), tt.wantName)
			}
		})
	}
}
