package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "gastos.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, found, err := s.Get(ctx, "gastosCasa"); err != nil || found {
		t.Fatalf("expected absent, found=%v err=%v", found, err)
	}
	if err := s.Put(ctx, "gastosCasa", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "gastosCasa", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, found, err := s.Get(ctx, "gastosCasa")
	if err != nil || !found || string(v) != "[]" {
		t.Fatalf("unexpected get: v=%q found=%v err=%v", v, found, err)
	}

	if err := s.Delete(ctx, "gastosCasa"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, err := s.Get(ctx, "gastosCasa"); err != nil || found {
		t.Fatalf("expected absent after delete, found=%v err=%v", found, err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	// Migrations must be idempotent on an existing database
	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, found, err := reopened.Get(ctx, "k")
	if err != nil || !found || string(v) != "v" {
		t.Fatalf("unexpected get after reopen: v=%q found=%v err=%v", v, found, err)
	}
}
