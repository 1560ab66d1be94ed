package gateway

import (
	"context"
	"sync"
)

// mockHTTPClient records requests and replays a canned response.
type mockHTTPClient struct {
	mu       sync.Mutex
	requests []*HTTPRequest
	resp     *HTTPResponse
	err      error
}

func (m *mockHTTPClient) Do(_ context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m *mockHTTPClient) last() *HTTPRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// mockClient is a Client with a configurable health result.
type mockClient struct {
	name string
	err  error
}

func (m *mockClient) Send(_ context.Context, _ *Message) (*Result, error) {
	return &Result{Status: StatusSent}, nil
}
func (m *mockClient) GetName() string                     { return m.name }
func (m *mockClient) Hostname() string                    { return "mock.test" }
func (m *mockClient) HealthCheck(_ context.Context) error { return m.err }

func testMessage() *Message {
	return &Message{
		To:                []string{"a@example.com", "b@example.com"},
		From:              "Acme News <news@acme.test>",
		Subject:           "October update",
		HTMLBody:          "<p>Hello</p>",
		ReplyTo:           "support@acme.test",
		TrackOpens:        true,
		TrackClicks:       true,
		TrackUnsubscribes: true,
		Headers: map[string]string{
			"X-Campaign-ID": "camp-1",
			"Precedence":    "bulk",
		},
	}
}
