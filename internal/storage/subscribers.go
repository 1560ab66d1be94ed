package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/sungwon/campaign-dispatch/internal/segment"
)

// ErrSubscriberNotFound is returned when no subscriber matches the lookup.
var ErrSubscriberNotFound = errors.New("subscriber not found")

// DefaultPageSize bounds List when the caller passes a non-positive limit.
const DefaultPageSize = 100

const subscriberColumns = `id::text, email, name, status, date_added, join_date, last_active,
	last_opened, last_clicked, lists, tags, segment_groups, profile`

// profile is the JSONB document holding the parts of a subscriber that are
// not queried directly.
type profile struct {
	Engagement segment.Engagement      `json:"engagement"`
	Journey    segment.Journey         `json:"journey"`
	Purchases  segment.PurchaseHistory `json:"purchases"`
}

// SubscriberRepository reads and writes subscriber snapshots.
type SubscriberRepository struct {
	db DBTX
}

// NewSubscriberRepository creates a repository on db.
func NewSubscriberRepository(db DBTX) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Get returns the subscriber with the given id.
func (r *SubscriberRepository) Get(ctx context.Context, id string) (*segment.Subscriber, error) {
	start := time.Now()
	row := r.db.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1::uuid`, id)
	sub, err := scanSubscriber(row)
	observe("get_subscriber", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber %s: %w", id, err)
	}
	return sub, nil
}

// GetByEmail returns the subscriber with the given address. Matching is
// case-insensitive.
func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (*segment.Subscriber, error) {
	start := time.Now()
	row := r.db.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE lower(email) = lower($1)`, email)
	sub, err := scanSubscriber(row)
	observe("get_subscriber_by_email", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber by email: %w", err)
	}
	return sub, nil
}

// List returns one page of subscribers ordered by date added.
func (r *SubscriberRepository) List(ctx context.Context, limit, offset int) ([]*segment.Subscriber, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return r.query(ctx, "list_subscribers",
		`SELECT `+subscriberColumns+` FROM subscribers ORDER BY date_added, email LIMIT $1 OFFSET $2`,
		limit, offset)
}

// ListByList returns every subscriber on the given list.
func (r *SubscriberRepository) ListByList(ctx context.Context, listID string) ([]*segment.Subscriber, error) {
	return r.query(ctx, "list_subscribers_by_list",
		`SELECT `+subscriberColumns+` FROM subscribers WHERE $1 = ANY(lists) ORDER BY date_added, email`,
		listID)
}

// ListByGroups returns subscribers in any of the groups, or in all of them
// when matchAll is set. An empty group set matches nobody.
func (r *SubscriberRepository) ListByGroups(ctx context.Context, groups []string, matchAll bool) ([]*segment.Subscriber, error) {
	if len(groups) == 0 {
		return []*segment.Subscriber{}, nil
	}
	op := "&&"
	if matchAll {
		op = "@>"
	}
	return r.query(ctx, "list_subscribers_by_groups",
		`SELECT `+subscriberColumns+` FROM subscribers WHERE segment_groups `+op+` $1::text[] ORDER BY date_added, email`,
		groups)
}

// Each streams every subscriber to fn in date-added order. Iteration stops
// at the first error fn returns.
func (r *SubscriberRepository) Each(ctx context.Context, fn func(*segment.Subscriber) error) error {
	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT `+subscriberColumns+` FROM subscribers ORDER BY date_added, email`)
	if err != nil {
		observe("each_subscriber", start, err)
		return fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			observe("each_subscriber", start, err)
			return fmt.Errorf("scan subscriber: %w", err)
		}
		if err := fn(sub); err != nil {
			return err
		}
	}
	err = rows.Err()
	observe("each_subscriber", start, err)
	return err
}

// UpdateGroups replaces the stored group set of one subscriber.
func (r *SubscriberRepository) UpdateGroups(ctx context.Context, id string, groups []string) error {
	if groups == nil {
		groups = []string{}
	}
	start := time.Now()
	tag, err := r.db.Exec(ctx,
		`UPDATE subscribers SET segment_groups = $2, updated_at = now() WHERE id = $1::uuid`,
		id, groups)
	observe("update_subscriber_groups", start, err)
	if err != nil {
		return fmt.Errorf("update groups for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}

// Upsert inserts sub or updates the row with the same email, and sets
// sub.ID to the stored id.
func (r *SubscriberRepository) Upsert(ctx context.Context, sub *segment.Subscriber) error {
	if strings.TrimSpace(sub.Email) == "" {
		return errors.New("subscriber email is required")
	}
	if sub.Status == "" {
		sub.Status = segment.StatusActive
	}
	if sub.DateAdded.IsZero() {
		sub.DateAdded = time.Now().UTC()
	}
	if sub.Journey.JoinDate.IsZero() {
		sub.Journey.JoinDate = sub.DateAdded
	}
	if sub.Journey.LastActive.IsZero() {
		sub.Journey.LastActive = sub.Journey.JoinDate
	}

	doc, err := json.Marshal(profile{
		Engagement: sub.Engagement,
		Journey:    sub.Journey,
		Purchases:  sub.Purchases,
	})
	if err != nil {
		return fmt.Errorf("encode subscriber profile: %w", err)
	}

	var id any
	if sub.ID != "" {
		id = sub.ID
	}

	start := time.Now()
	err = r.db.QueryRow(ctx, `
		INSERT INTO subscribers (id, email, name, status, date_added, join_date, last_active,
			last_opened, last_clicked, lists, tags, segment_groups, profile)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			join_date = EXCLUDED.join_date,
			last_active = EXCLUDED.last_active,
			last_opened = EXCLUDED.last_opened,
			last_clicked = EXCLUDED.last_clicked,
			lists = EXCLUDED.lists,
			tags = EXCLUDED.tags,
			segment_groups = EXCLUDED.segment_groups,
			profile = EXCLUDED.profile,
			updated_at = now()
		RETURNING id::text`,
		id, sub.Email, sub.Name, string(sub.Status), sub.DateAdded, sub.Journey.JoinDate,
		sub.Journey.LastActive, sub.Engagement.LastOpened, sub.Engagement.LastClicked,
		nonNil(sub.Lists), nonNil(sub.Tags), nonNil(sub.Groups), doc,
	).Scan(&sub.ID)
	observe("upsert_subscriber", start, err)
	if err != nil {
		return fmt.Errorf("upsert subscriber %s: %w", sub.Email, err)
	}
	return nil
}

// Recipients returns the addresses of active subscribers on listID, or of
// every active subscriber when listID is empty.
func (r *SubscriberRepository) Recipients(ctx context.Context, listID string) ([]string, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, `
		SELECT email FROM subscribers
		WHERE status = 'active' AND ($1 = '' OR $1 = ANY(lists))
		ORDER BY date_added, email`, listID)
	if err != nil {
		observe("list_recipients", start, err)
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	emails, err := pgx.CollectRows(rows, pgx.RowTo[string])
	observe("list_recipients", start, err)
	if err != nil {
		return nil, fmt.Errorf("collect recipients: %w", err)
	}
	return emails, nil
}

func (r *SubscriberRepository) query(ctx context.Context, name, sql string, args ...any) ([]*segment.Subscriber, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		observe(name, start, err)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer rows.Close()

	subs := []*segment.Subscriber{}
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			observe(name, start, err)
			return nil, fmt.Errorf("%s: scan: %w", name, err)
		}
		subs = append(subs, sub)
	}
	err = rows.Err()
	observe(name, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return subs, nil
}

func scanSubscriber(row pgx.Row) (*segment.Subscriber, error) {
	var (
		sub    segment.Subscriber
		status string
		doc    []byte
		p      profile
	)
	var joinDate, lastActive time.Time
	var lastOpened, lastClicked *time.Time
	if err := row.Scan(&sub.ID, &sub.Email, &sub.Name, &status, &sub.DateAdded, &joinDate,
		&lastActive, &lastOpened, &lastClicked, &sub.Lists, &sub.Tags, &sub.Groups, &doc); err != nil {
		return nil, err
	}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	sub.Status = segment.Status(status)
	sub.Engagement = p.Engagement
	sub.Journey = p.Journey
	sub.Purchases = p.Purchases

	// Columns win over the document for the fields that are indexed.
	sub.Journey.JoinDate = joinDate
	sub.Journey.LastActive = lastActive
	sub.Engagement.LastOpened = lastOpened
	sub.Engagement.LastClicked = lastClicked
	return &sub, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
