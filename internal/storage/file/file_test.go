package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, found, err := s.Get(ctx, "gastosCasa"); err != nil || found {
		t.Fatalf("expected absent, found=%v err=%v", found, err)
	}

	if err := s.Put(ctx, "gastosCasa", []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "gastosCasa", []byte(`[2]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, found, err := s.Get(ctx, "gastosCasa")
	if err != nil || !found || string(v) != "[2]" {
		t.Fatalf("unexpected get: v=%q found=%v err=%v", v, found, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "gastosCasa.json" {
		t.Fatalf("expected only the document file, got %v", entries)
	}

	if err := s.Delete(ctx, "gastosCasa"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gastosCasa.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file should be gone, stat err=%v", err)
	}
	if err := s.Delete(ctx, "gastosCasa"); err != nil {
		t.Fatalf("deleting absent key should not fail: %v", err)
	}
}

func TestFileStoreRejectsUnsafeKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "../escape", "a/b", "..", "with space"} {
		if err := s.Put(context.Background(), key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}
