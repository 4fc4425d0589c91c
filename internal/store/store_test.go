package store

import (
	"context"
	"path/filepath"
	"testing"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

func exerciseCollection(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := LoadCollection[item](ctx, s, KeyEmployees)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", got)
	}

	want := []item{{ID: "1", Name: "João"}, {ID: "2", Name: "Maria"}}
	if err := SaveCollection(ctx, s, KeyEmployees, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = LoadCollection[item](ctx, s, KeyEmployees)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[1].Name != "Maria" {
		t.Fatalf("unexpected collection %#v", got)
	}

	// whole collection overwrite
	if err := SaveCollection(ctx, s, KeyEmployees, want[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ = LoadCollection[item](ctx, s, KeyEmployees)
	if len(got) != 1 {
		t.Fatalf("expected 1 item after overwrite, got %d", len(got))
	}

	if err := SaveCollection[item](ctx, s, KeyVisits, nil); err != nil {
		t.Fatalf("save nil: %v", err)
	}
	raw, _ := s.Load(ctx, KeyVisits)
	if string(raw) != "[]" {
		t.Fatalf("expected nil collection stored as [], got %s", raw)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseCollection(t, NewMemoryStore())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	data := []byte(`[1]`)
	s.Save(ctx, "k", data)
	data[1] = '2'
	got, _ := s.Load(ctx, "k")
	if string(got) != "[1]" {
		t.Fatalf("expected stored copy, got %s", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "tecnobra.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	exerciseCollection(t, s)
}

func TestLoadCollectionBadJSON(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Save(ctx, KeyLoanRecords, []byte(`{"not":"an array"}`))
	if _, err := LoadCollection[item](ctx, s, KeyLoanRecords); err == nil {
		t.Fatalf("expected decode error")
	}
}
