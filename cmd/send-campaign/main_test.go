package main

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sungwon/campaign-dispatch/internal/dispatch"
	"github.com/sungwon/campaign-dispatch/internal/segment"
)

func TestReadRecipients(t *testing.T) {
	input := "a@example.com\n\n  # comment\n b@example.com \n"
	got, err := readRecipients(strings.NewReader(input))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"a@example.com", "b@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a@example.com", "B@example.com", "A@example.com", "b@example.com", "c@example.com"})
	want := []string{"a@example.com", "B@example.com", "c@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome dispatch.Outcome
		want    []string
	}{
		{
			name:    "success",
			outcome: dispatch.Outcome{CampaignID: "c-1", Attempted: 3, Delivered: 3, Success: true, Batches: 1},
			want:    []string{"Result: OK", "Delivered:   3 of 3"},
		},
		{
			name: "partial",
			outcome: dispatch.Outcome{
				Attempted: 4, Delivered: 2, Batches: 2,
				Failures: []dispatch.BatchFailure{{BatchIndex: 1, Size: 2}},
			},
			want: []string{"Result: PARTIAL", "Failed:      1 batch(es)"},
		},
		{
			name:    "cancelled",
			outcome: dispatch.Outcome{Attempted: 4, Delivered: 2, Cancelled: true, Unattempted: []string{"x", "y"}},
			want:    []string{"Result: CANCELLED", "Unattempted: 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printOutcome(&buf, &tt.outcome)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("expected output to contain %q, got:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestWriteRecipients_ReadBack(t *testing.T) {
	o := &dispatch.Outcome{
		Failures: []dispatch.BatchFailure{
			{BatchIndex: 1, Size: 2, Recipients: []string{"c@example.com", "d@example.com"}},
		},
		Unattempted: []string{"e@example.com"},
	}

	var buf bytes.Buffer
	if err := writeRecipients(&buf, o.FailedRecipients()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := readRecipients(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"c@example.com", "d@example.com", "e@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

type fakeSubscribers struct {
	subs []*segment.Subscriber
	err  error
}

func (f *fakeSubscribers) Recipients(_ context.Context, listID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for _, s := range f.onList(listID) {
		if s.Status == segment.StatusActive {
			out = append(out, s.Email)
		}
	}
	return out, nil
}

func (f *fakeSubscribers) ListByList(_ context.Context, listID string) ([]*segment.Subscriber, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.onList(listID), nil
}

func (f *fakeSubscribers) ListByGroups(_ context.Context, groups []string, matchAll bool) ([]*segment.Subscriber, error) {
	if f.err != nil {
		return nil, f.err
	}
	return segment.ByGroups(f.subs, groups, matchAll), nil
}

func (f *fakeSubscribers) onList(listID string) []*segment.Subscriber {
	var out []*segment.Subscriber
	for _, s := range f.subs {
		for _, l := range s.Lists {
			if listID == "" || l == listID {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func TestSelectRecipients(t *testing.T) {
	src := &fakeSubscribers{subs: []*segment.Subscriber{
		{Email: "a@example.com", Status: segment.StatusActive, Lists: []string{"weekly"}, Groups: []string{"lost"}},
		{Email: "b@example.com", Status: segment.StatusActive, Lists: []string{"weekly"}, Groups: []string{"engaged"}},
		{Email: "c@example.com", Status: segment.StatusUnsubscribed, Lists: []string{"weekly"}, Groups: []string{"lost"}},
		{Email: "d@example.com", Status: segment.StatusActive, Lists: []string{"promo"}, Groups: []string{"lost"}},
	}}

	tests := []struct {
		name   string
		listID string
		groups []string
		want   []string
	}{
		{"list only", "weekly", nil, []string{"a@example.com", "b@example.com"}},
		{"list and group", "weekly", []string{"lost"}, []string{"a@example.com"}},
		{"group only", "", []string{"lost"}, []string{"a@example.com", "d@example.com"}},
		{"any of groups", "weekly", []string{"lost", "engaged"}, []string{"a@example.com", "b@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectRecipients(context.Background(), src, tt.listID, tt.groups)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSelectRecipients_Error(t *testing.T) {
	src := &fakeSubscribers{err: errors.New("db down")}
	if _, err := selectRecipients(context.Background(), src, "weekly", []string{"lost"}); err == nil {
		t.Error("expected error, got nil")
	}
	if _, err := selectRecipients(context.Background(), src, "weekly", nil); err == nil {
		t.Error("expected error, got nil")
	}
}
