package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	sendgridDefaultEndpoint = "https://api.sendgrid.com"
	sendgridSendPath        = "/v3/mail/send"
	sendgridScopesPath      = "/v3/scopes"
	sendgridHost            = "sendgrid.net"
)

// SendGrid implements Client for the SendGrid v3 API.
type SendGrid struct {
	name     string
	apiKey   string
	endpoint string
	client   HTTPClient
}

// NewSendGrid creates a SendGrid gateway from the given configuration.
func NewSendGrid(cfg Config, client HTTPClient) *SendGrid {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = sendgridDefaultEndpoint
	}
	name := cfg.Name
	if name == "" {
		name = "sendgrid"
	}
	return &SendGrid{
		name:     name,
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
	}
}

func (s *SendGrid) GetName() string  { return s.name }
func (s *SendGrid) Hostname() string { return sendgridHost }

// Send delivers a message via the SendGrid v3 Mail Send API.
func (s *SendGrid) Send(ctx context.Context, msg *Message) (*Result, error) {
	body, err := json.Marshal(s.buildPayload(msg))
	if err != nil {
		return nil, fmt.Errorf("sendgrid: marshal request: %w", err)
	}

	resp, err := s.client.Do(ctx, &HTTPRequest{
		Method: "POST",
		URL:    s.endpoint + sendgridSendPath,
		Headers: map[string]string{
			"Authorization": "Bearer " + s.apiKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("sendgrid: send request: %w", err)
	}
	if gerr := ClassifyHTTPError(s.name, resp.StatusCode, string(resp.Body)); gerr != nil {
		return nil, gerr
	}

	return &Result{
		MessageID: resp.Headers["X-Message-Id"],
		Status:    StatusSent,
		Timestamp: time.Now(),
		Metadata: map[string]string{
			"status_code": strconv.Itoa(resp.StatusCode),
		},
	}, nil
}

// HealthCheck verifies API connectivity by calling the scopes endpoint.
func (s *SendGrid) HealthCheck(ctx context.Context) error {
	resp, err := s.client.Do(ctx, &HTTPRequest{
		Method: "GET",
		URL:    s.endpoint + sendgridScopesPath,
		Headers: map[string]string{
			"Authorization": "Bearer " + s.apiKey,
		},
	})
	if err != nil {
		return fmt.Errorf("sendgrid: health check request: %w", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("sendgrid: health check returned status %d", resp.StatusCode)
	}
	return nil
}

type sendgridPayload struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridEmail             `json:"from"`
	ReplyTo          *sendgridEmail            `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
	Headers          map[string]string         `json:"headers,omitempty"`
	TrackingSettings sendgridTracking          `json:"tracking_settings"`
}

// One personalization per recipient keeps addresses private from each
// other within a batch.
type sendgridPersonalization struct {
	To []sendgridEmail `json:"to"`
}

type sendgridEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridTracking struct {
	ClickTracking        sendgridToggle `json:"click_tracking"`
	OpenTracking         sendgridToggle `json:"open_tracking"`
	SubscriptionTracking sendgridToggle `json:"subscription_tracking"`
}

type sendgridToggle struct {
	Enable bool `json:"enable"`
}

func (s *SendGrid) buildPayload(msg *Message) sendgridPayload {
	personalizations := make([]sendgridPersonalization, len(msg.To))
	for i, addr := range msg.To {
		personalizations[i] = sendgridPersonalization{To: []sendgridEmail{{Email: addr}}}
	}

	name, addr := SplitAddress(msg.From)
	payload := sendgridPayload{
		Personalizations: personalizations,
		From:             sendgridEmail{Email: addr, Name: name},
		Subject:          msg.Subject,
		Content:          []sendgridContent{{Type: "text/html", Value: msg.HTMLBody}},
		Headers:          msg.Headers,
		TrackingSettings: sendgridTracking{
			ClickTracking:        sendgridToggle{Enable: msg.TrackClicks},
			OpenTracking:         sendgridToggle{Enable: msg.TrackOpens},
			SubscriptionTracking: sendgridToggle{Enable: msg.TrackUnsubscribes},
		},
	}
	if msg.ReplyTo != "" {
		payload.ReplyTo = &sendgridEmail{Email: msg.ReplyTo}
	}
	return payload
}
