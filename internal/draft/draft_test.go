package draft

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPersister_SaveDraft(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := NewPersister(b)
	stamp := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return stamp }

	d := &Draft{Subject: "Half-written", Recipients: []string{"a@example.com"}}
	if err := p.SaveDraft(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if d.ID == "" {
		t.Fatal("SaveDraft did not assign an ID")
	}
	if !d.UpdatedAt.Equal(stamp) {
		t.Errorf("UpdatedAt = %v", d.UpdatedAt)
	}

	got, err := p.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Subject != "Half-written" || len(got.Recipients) != 1 || !got.UpdatedAt.Equal(stamp) {
		t.Errorf("loaded draft = %+v", got)
	}

	id := d.ID
	d.Subject = "Finished"
	if err := p.SaveDraft(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if d.ID != id {
		t.Error("re-saving changed the ID")
	}
	got, _ = p.Get(context.Background(), id)
	if got.Subject != "Finished" {
		t.Errorf("Subject = %q after overwrite", got.Subject)
	}

	if err := p.Delete(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}

func TestPersister_SaveNil(t *testing.T) {
	p := NewPersister(NewRedisBackend(newFakeRedis(), "d:", 0))
	if err := p.SaveDraft(context.Background(), nil); err == nil {
		t.Error("expected error for nil draft")
	}
}

func TestPersister_CorruptDocument(t *testing.T) {
	fake := newFakeRedis()
	fake.values["d:bad"] = "{not json"
	p := NewPersister(NewRedisBackend(fake, "d:", 0))
	if _, err := p.Get(context.Background(), "bad"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want unmarshal error", err)
	}
}
