package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	mailgunDefaultEndpoint = "https://api.mailgun.net"
	mailgunHost            = "mailgun.org"
)

// Mailgun implements Client for the Mailgun v3 messages API.
type Mailgun struct {
	name     string
	apiKey   string
	domain   string
	endpoint string
	client   HTTPClient
}

// NewMailgun creates a Mailgun gateway from the given configuration.
func NewMailgun(cfg Config, client HTTPClient) *Mailgun {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = mailgunDefaultEndpoint
	}
	name := cfg.Name
	if name == "" {
		name = "mailgun"
	}
	return &Mailgun{
		name:     name,
		apiKey:   cfg.APIKey,
		domain:   cfg.Domain,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
	}
}

func (m *Mailgun) GetName() string { return m.name }

// Hostname returns the sending domain, which Mailgun uses in List-Id.
func (m *Mailgun) Hostname() string {
	if m.domain != "" {
		return m.domain
	}
	return mailgunHost
}

// Send delivers a message via the Mailgun messages API.
func (m *Mailgun) Send(ctx context.Context, msg *Message) (*Result, error) {
	resp, err := m.client.Do(ctx, &HTTPRequest{
		Method: "POST",
		URL:    fmt.Sprintf("%s/v3/%s/messages", m.endpoint, m.domain),
		Headers: map[string]string{
			"Authorization": "Basic " + basicAuth("api", m.apiKey),
			"Content-Type":  "application/x-www-form-urlencoded",
		},
		Body: []byte(m.buildForm(msg).Encode()),
	})
	if err != nil {
		return nil, fmt.Errorf("mailgun: send request: %w", err)
	}
	if gerr := ClassifyHTTPError(m.name, resp.StatusCode, string(resp.Body)); gerr != nil {
		return nil, gerr
	}

	var mgResp mailgunResponse
	_ = json.Unmarshal(resp.Body, &mgResp)
	return &Result{
		MessageID: mgResp.ID,
		Status:    StatusSent,
		Timestamp: time.Now(),
		Metadata: map[string]string{
			"message":     mgResp.Message,
			"status_code": strconv.Itoa(resp.StatusCode),
		},
	}, nil
}

// HealthCheck verifies API connectivity by requesting domain info.
func (m *Mailgun) HealthCheck(ctx context.Context) error {
	resp, err := m.client.Do(ctx, &HTTPRequest{
		Method: "GET",
		URL:    fmt.Sprintf("%s/v3/domains/%s", m.endpoint, m.domain),
		Headers: map[string]string{
			"Authorization": "Basic " + basicAuth("api", m.apiKey),
		},
	})
	if err != nil {
		return fmt.Errorf("mailgun: health check request: %w", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("mailgun: health check returned status %d", resp.StatusCode)
	}
	return nil
}

type mailgunResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (m *Mailgun) buildForm(msg *Message) url.Values {
	form := url.Values{}
	form.Set("from", msg.From)
	for _, to := range msg.To {
		form.Add("to", to)
	}
	form.Set("subject", msg.Subject)
	form.Set("html", msg.HTMLBody)
	if msg.ReplyTo != "" {
		form.Set("h:Reply-To", msg.ReplyTo)
	}
	form.Set("o:tracking-opens", yesNo(msg.TrackOpens))
	form.Set("o:tracking-clicks", yesNo(msg.TrackClicks))
	form.Set("o:tracking", yesNo(msg.TrackOpens || msg.TrackClicks || msg.TrackUnsubscribes))
	// Without recipient variables Mailgun lists every address in To.
	if len(msg.To) > 1 {
		form.Set("recipient-variables", "{}")
	}
	for key, value := range msg.Headers {
		form.Set("h:"+key, value)
	}
	return form
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
