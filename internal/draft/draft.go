// Package draft persists unsent campaign drafts. Dispatch never depends on
// it; the API and CLI use it to save work in progress.
package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Draft is a campaign that has not been dispatched yet. Every field other
// than ID may be incomplete.
type Draft struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	HTMLBody   string    `json:"html_body"`
	FromName   string    `json:"from_name"`
	FromEmail  string    `json:"from_email"`
	ReplyTo    string    `json:"reply_to,omitempty"`
	Recipients []string  `json:"recipients,omitempty"`
	ListID     string    `json:"list_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Persister saves and loads drafts through a Backend.
type Persister struct {
	backend Backend
	now     func() time.Time
}

// NewPersister creates a Persister over backend.
func NewPersister(backend Backend) *Persister {
	return &Persister{backend: backend, now: time.Now}
}

// SaveDraft stores d, assigning a new ID when d.ID is empty and stamping
// UpdatedAt. Saving an existing ID overwrites it.
func (p *Persister) SaveDraft(ctx context.Context, d *Draft) error {
	if d == nil {
		return errors.New("draft: nil draft")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.UpdatedAt = p.now().UTC()

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft: marshal: %w", err)
	}
	return p.backend.Put(ctx, d.ID, data)
}

// Get loads a draft. Missing drafts yield ErrNotFound.
func (p *Persister) Get(ctx context.Context, id string) (*Draft, error) {
	data, err := p.backend.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("draft: unmarshal %s: %w", id, err)
	}
	return &d, nil
}

// Delete removes a draft; deleting a missing draft is not an error.
func (p *Persister) Delete(ctx context.Context, id string) error {
	return p.backend.Delete(ctx, id)
}
