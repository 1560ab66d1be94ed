package queue

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/sungwon/campaign-dispatch/internal/dispatch"
)

// DefaultStream is the stream name used when Config.Stream is empty.
const DefaultStream = "campaigns"

// Job is one queued campaign dispatch. A retried job carries only the
// recipients that were not delivered by the previous attempt.
type Job struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	Subject    string    `json:"subject"`
	HTMLBody   string    `json:"html_body"`
	FromName   string    `json:"from_name"`
	FromEmail  string    `json:"from_email"`
	ReplyTo    string    `json:"reply_to,omitempty"`
	Recipients []string  `json:"recipients"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewJob creates a Job for req with a generated id.
func NewJob(req *dispatch.Request) *Job {
	recipients := make([]string, len(req.Recipients))
	copy(recipients, req.Recipients)
	return &Job{
		ID:         uuid.New().String(),
		CampaignID: req.CampaignID,
		Subject:    req.Subject,
		HTMLBody:   req.HTMLBody,
		FromName:   req.FromName,
		FromEmail:  req.FromEmail,
		ReplyTo:    req.ReplyTo,
		Recipients: recipients,
		CreatedAt:  time.Now().UTC(),
	}
}

// Request converts the job back into a dispatch request.
func (j *Job) Request() *dispatch.Request {
	return &dispatch.Request{
		CampaignID: j.CampaignID,
		Subject:    j.Subject,
		HTMLBody:   j.HTMLBody,
		FromName:   j.FromName,
		FromEmail:  j.FromEmail,
		ReplyTo:    j.ReplyTo,
		Recipients: j.Recipients,
	}
}

func encodeJob(job *Job) (string, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	return string(data), nil
}

func decodeJob(data string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// streamKey returns the Redis stream key for a dispatch stream.
func streamKey(stream string) string {
	return "dispatch:" + stream
}

// dlqStreamKey returns the Redis DLQ stream key for a dispatch stream.
func dlqStreamKey(stream string) string {
	return "dispatch-dlq:" + stream
}
