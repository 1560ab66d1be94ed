// Package gateway defines the outbound email gateway capability used by the
// dispatcher and its concrete HTTP, SDK and development implementations.
package gateway

import (
	"context"
	"time"
)

// Client sends one outbound message per call. Implementations must be safe
// for concurrent use by independent dispatches.
type Client interface {
	// Send transmits the message. Header map and tracking flags are passed
	// to the gateway verbatim.
	Send(ctx context.Context, msg *Message) (*Result, error)
	// GetName returns the gateway identifier (e.g., "postal", "ses").
	GetName() string
	// Hostname is the host used to build List-Id values.
	Hostname() string
	// HealthCheck verifies the gateway is reachable.
	HealthCheck(ctx context.Context) error
}

// StatusReporter is implemented by gateways that can look up a message
// they accepted earlier.
type StatusReporter interface {
	MessageStatus(ctx context.Context, messageID string) (map[string]any, error)
}

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPRequest represents an outgoing HTTP request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse represents an HTTP response from a gateway API.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Message is one batch worth of campaign mail.
type Message struct {
	To                []string
	From              string // "Name <address>"
	Subject           string
	HTMLBody          string
	ReplyTo           string
	TrackOpens        bool
	TrackClicks       bool
	TrackUnsubscribes bool
	Headers           map[string]string
}

// Result contains the outcome of a successful send.
type Result struct {
	MessageID string
	Status    Status
	Timestamp time.Time
	Metadata  map[string]string
}

// Status is the gateway's view of a message.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)
