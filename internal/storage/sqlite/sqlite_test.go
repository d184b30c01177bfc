package sqlite

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "data", "tracker.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSetGetRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"currency":"JMD","expenses":[]}`)
	if err := st.Set(ctx, "pocketbook/document", payload); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, found, err := st.Get(ctx, "pocketbook/document")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !found {
		t.Fatal("Get() found = false after Set")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get() = %q, want %q", got, payload)
	}
}

func TestSetOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Set(ctx, "k", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(ctx, "k", []byte("second")); err != nil {
		t.Fatal(err)
	}

	got, found, err := st.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	if string(got) != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}
}

func TestGetMissingKey(t *testing.T) {
	st := newTestStore(t)

	payload, found, err := st.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if found || payload != nil {
		t.Errorf("Get() = %q, %v; want nil, false", payload, found)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tracker.db")
	ctx := context.Background()

	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := st.Set(ctx, "k", []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening runs migrations again; they must be idempotent and must not
	// touch existing rows.
	st2, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() after reopen error: %v", err)
	}
	defer st2.Close()

	got, found, err := st2.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get() after reopen = %v, %v", found, err)
	}
	if string(got) != "persisted" {
		t.Errorf("Get() after reopen = %q, want %q", got, "persisted")
	}
}
