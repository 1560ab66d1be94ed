package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sungwon/campaign-dispatch/internal/segment"
)

// stubDB answers Exec with a fixed command tag and fails everything else.
type stubDB struct {
	tag     pgconn.CommandTag
	execErr error
	execSQL string
}

func (s *stubDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	s.execSQL = sql
	return s.tag, s.execErr
}

func (s *stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (s *stubDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{err: errors.New("unexpected query")}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestUpdateGroups_NoRowsIsNotFound(t *testing.T) {
	repo := NewSubscriberRepository(&stubDB{tag: pgconn.NewCommandTag("UPDATE 0")})

	err := repo.UpdateGroups(context.Background(), "id", []string{"engaged"})
	if !errors.Is(err, ErrSubscriberNotFound) {
		t.Fatalf("expected ErrSubscriberNotFound, got %v", err)
	}
}

func TestUpdateGroups_WrapsExecError(t *testing.T) {
	boom := errors.New("connection reset")
	repo := NewSubscriberRepository(&stubDB{execErr: boom})

	err := repo.UpdateGroups(context.Background(), "id", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped exec error, got %v", err)
	}
}

func TestGet_NoRowsIsNotFound(t *testing.T) {
	db := &stubDB{}
	repo := NewSubscriberRepository(db)
	repo.db = rowDB{stubDB: db, row: errRow{err: pgx.ErrNoRows}}

	_, err := repo.Get(context.Background(), "id")
	if !errors.Is(err, ErrSubscriberNotFound) {
		t.Fatalf("expected ErrSubscriberNotFound, got %v", err)
	}
}

func TestUpsert_RequiresEmail(t *testing.T) {
	repo := NewSubscriberRepository(&stubDB{})

	err := repo.Upsert(context.Background(), &segment.Subscriber{Email: "  "})
	if err == nil {
		t.Fatal("expected error for blank email")
	}
}

func TestListByGroups_EmptyMatchesNobody(t *testing.T) {
	repo := NewSubscriberRepository(&stubDB{})

	subs, err := repo.ListByGroups(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("ListByGroups() error = %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected no subscribers, got %d", len(subs))
	}
}

type rowDB struct {
	*stubDB
	row pgx.Row
}

func (r rowDB) QueryRow(context.Context, string, ...any) pgx.Row { return r.row }
