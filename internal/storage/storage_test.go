package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func exerciseSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	if _, err := slot.Load(ctx, "policies"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty slot, got %v", err)
	}

	if err := slot.Save(ctx, "policies", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := slot.Save(ctx, "policies", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := slot.Load(ctx, "policies")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != "[]" {
		t.Fatalf("expected last write to win, got %s", got)
	}
}

func TestMemorySlot(t *testing.T) {
	exerciseSlot(t, NewMemorySlot())
}

func TestFileSlot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	exerciseSlot(t, NewFileSlot(dir))

	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("expected no temp files left, got %v", matches)
	}
}

func TestSQLiteSlot(t *testing.T) {
	slot, err := OpenSQLite(filepath.Join(t.TempDir(), "slots.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer slot.Close()
	exerciseSlot(t, slot)
}
