package api

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sungwon/campaign-dispatch/internal/delivery"
	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/draft"
	"github.com/sungwon/campaign-dispatch/internal/queue"
	"github.com/sungwon/campaign-dispatch/internal/segment"
	"github.com/sungwon/campaign-dispatch/internal/storage"
)

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

type mockDelivery struct {
	receipt *delivery.Receipt
	err     error
	got     *dispatch.Request
}

func (m *mockDelivery) Submit(_ context.Context, req *dispatch.Request) (*delivery.Receipt, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	if err := dispatch.Validate(req); err != nil {
		return nil, err
	}
	return m.receipt, nil
}

type mockDrafts struct {
	mu     sync.Mutex
	drafts map[string]*draft.Draft
	err    error
}

func newMockDrafts() *mockDrafts {
	return &mockDrafts{drafts: make(map[string]*draft.Draft)}
}

func (m *mockDrafts) SaveDraft(_ context.Context, d *draft.Draft) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = "draft-1"
	}
	cp := *d
	m.drafts[d.ID] = &cp
	return nil
}

func (m *mockDrafts) Get(_ context.Context, id string) (*draft.Draft, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, draft.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDrafts) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

// mockSubscribers is an in-memory SubscriberStore and RecipientSource.
type mockSubscribers struct {
	subs    []*segment.Subscriber
	updated map[string][]string
	err     error

	listLimit, listOffset int
	matchAll              bool
}

func (m *mockSubscribers) Get(_ context.Context, id string) (*segment.Subscriber, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, storage.ErrSubscriberNotFound
}

func (m *mockSubscribers) List(_ context.Context, limit, offset int) ([]*segment.Subscriber, error) {
	m.listLimit, m.listOffset = limit, offset
	if m.err != nil {
		return nil, m.err
	}
	return m.subs, nil
}

func (m *mockSubscribers) ListByGroups(_ context.Context, groups []string, matchAll bool) ([]*segment.Subscriber, error) {
	m.matchAll = matchAll
	if m.err != nil {
		return nil, m.err
	}
	return segment.ByGroups(m.subs, groups, matchAll), nil
}

func (m *mockSubscribers) GetByEmail(_ context.Context, email string) (*segment.Subscriber, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.subs {
		if strings.EqualFold(s.Email, email) {
			return s, nil
		}
	}
	return nil, storage.ErrSubscriberNotFound
}

func (m *mockSubscribers) Each(_ context.Context, fn func(*segment.Subscriber) error) error {
	if m.err != nil {
		return m.err
	}
	for _, s := range m.subs {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockSubscribers) UpdateGroups(_ context.Context, id string, groups []string) error {
	if m.updated == nil {
		m.updated = make(map[string][]string)
	}
	m.updated[id] = groups
	return nil
}

func (m *mockSubscribers) Recipients(_ context.Context, listID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for _, s := range m.subs {
		if s.Status != segment.StatusActive {
			continue
		}
		for _, l := range s.Lists {
			if l == listID {
				out = append(out, s.Email)
				break
			}
		}
	}
	return out, nil
}

type mockDLQ struct {
	reprocessed int
	err         error
	ids         []string
}

func (m *mockDLQ) MoveToDLQ(context.Context, *queue.Job, string) error { return nil }

func (m *mockDLQ) Reprocess(_ context.Context, ids []string) (int, error) {
	m.ids = ids
	return m.reprocessed, m.err
}

var errBackend = errors.New("backend unavailable")

// tagRule labels every subscriber with "tagged" and adds "inactive"
// for non-active ones.
var tagRule = segment.Rule{
	Name: "tag",
	Eval: func(sub *segment.Subscriber, _ time.Time) []string {
		if sub.Status != segment.StatusActive {
			return []string{"tagged", "inactive"}
		}
		return []string{"tagged"}
	},
}

func testClassifier() *segment.Classifier {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return segment.NewClassifier(func() time.Time { return now }, tagRule)
}
