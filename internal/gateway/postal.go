package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	postalSendPath     = "/api/v1/send/message"
	postalMessagesPath = "/api/v1/messages/"
	postalHealthPath   = "/api/v1/"
)

// Postal implements Client for a self-hosted Postal mail server.
type Postal struct {
	name     string
	apiKey   string
	endpoint string
	client   HTTPClient
}

// NewPostal creates a Postal gateway from the given configuration.
func NewPostal(cfg Config, client HTTPClient) *Postal {
	name := cfg.Name
	if name == "" {
		name = "postal"
	}
	return &Postal{
		name:     name,
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   client,
	}
}

func (p *Postal) GetName() string { return p.name }

// Hostname returns the host part of the configured server URL.
func (p *Postal) Hostname() string {
	u, err := url.Parse(p.endpoint)
	if err != nil || u.Hostname() == "" {
		return p.endpoint
	}
	return u.Hostname()
}

// Send submits the message to Postal's send/message API.
func (p *Postal) Send(ctx context.Context, msg *Message) (*Result, error) {
	body, err := json.Marshal(postalPayload{
		To:                msg.To,
		From:              msg.From,
		Subject:           msg.Subject,
		HTMLBody:          msg.HTMLBody,
		ReplyTo:           msg.ReplyTo,
		TrackOpens:        msg.TrackOpens,
		TrackClicks:       msg.TrackClicks,
		TrackUnsubscribes: msg.TrackUnsubscribes,
		CustomHeaders:     msg.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("postal: marshal request: %w", err)
	}

	resp, err := p.client.Do(ctx, &HTTPRequest{
		Method:  "POST",
		URL:     p.endpoint + postalSendPath,
		Headers: p.headers(),
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("postal: send request: %w", err)
	}
	if gerr := ClassifyHTTPError(p.name, resp.StatusCode, string(resp.Body)); gerr != nil {
		return nil, gerr
	}

	var pr postalResponse
	if err := json.Unmarshal(resp.Body, &pr); err != nil {
		return nil, fmt.Errorf("postal: decode response: %w", err)
	}
	// Postal reports API-level failures with HTTP 200 and status "error".
	if pr.Status == "error" || pr.Status == "parameter-error" {
		return nil, &GatewayError{
			Gateway:    p.name,
			StatusCode: resp.StatusCode,
			Message:    pr.errorMessage(),
			Permanent:  true,
		}
	}

	return &Result{
		MessageID: pr.messageID(),
		Status:    StatusSent,
		Timestamp: time.Now(),
		Metadata: map[string]string{
			"status_code": strconv.Itoa(resp.StatusCode),
		},
	}, nil
}

var _ StatusReporter = (*Postal)(nil)

// MessageStatus fetches Postal's record for a previously sent message.
func (p *Postal) MessageStatus(ctx context.Context, messageID string) (map[string]any, error) {
	resp, err := p.client.Do(ctx, &HTTPRequest{
		Method:  "GET",
		URL:     p.endpoint + postalMessagesPath + url.PathEscape(messageID),
		Headers: p.headers(),
	})
	if err != nil {
		return nil, fmt.Errorf("postal: status request: %w", err)
	}
	if gerr := ClassifyHTTPError(p.name, resp.StatusCode, string(resp.Body)); gerr != nil {
		return nil, gerr
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("postal: decode status: %w", err)
	}
	return out, nil
}

// HealthCheck treats any non-5xx answer from the API root as reachable.
func (p *Postal) HealthCheck(ctx context.Context) error {
	resp, err := p.client.Do(ctx, &HTTPRequest{
		Method:  "GET",
		URL:     p.endpoint + postalHealthPath,
		Headers: p.headers(),
	})
	if err != nil {
		return fmt.Errorf("postal: health check request: %w", err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("postal: health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *Postal) headers() map[string]string {
	return map[string]string{
		"X-Server-API-Key": p.apiKey,
		"Content-Type":     "application/json",
	}
}

type postalPayload struct {
	To                []string          `json:"to"`
	From              string            `json:"from"`
	Subject           string            `json:"subject"`
	HTMLBody          string            `json:"html_body"`
	ReplyTo           string            `json:"reply_to,omitempty"`
	TrackOpens        bool              `json:"track_opens"`
	TrackClicks       bool              `json:"track_clicks"`
	TrackUnsubscribes bool              `json:"track_unsubscribes"`
	CustomHeaders     map[string]string `json:"custom_headers,omitempty"`
}

type postalResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Data      struct {
		MessageID string `json:"message_id"`
		Message   string `json:"message"`
		Code      string `json:"code"`
	} `json:"data"`
}

func (r postalResponse) messageID() string {
	if r.Data.MessageID != "" {
		return r.Data.MessageID
	}
	return r.MessageID
}

func (r postalResponse) errorMessage() string {
	if r.Data.Message != "" {
		return r.Data.Message
	}
	if r.Data.Code != "" {
		return r.Data.Code
	}
	return "request rejected"
}
