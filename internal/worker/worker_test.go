package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pocketbook/internal/amqp"
	"pocketbook/internal/core"
	mirrormem "pocketbook/internal/mirror/memory"
	storagemem "pocketbook/internal/storage/memory"
	"pocketbook/internal/store"
)

type countingSaver struct {
	calls atomic.Int64
	ok    bool
}

func (s *countingSaver) Save(context.Context) bool {
	s.calls.Add(1)
	return s.ok
}

func TestAutosaverTicksAndFinalSave(t *testing.T) {
	saver := &countingSaver{ok: true}
	a := NewAutosaver(saver, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("autosaver did not stop")
	}

	// At least one periodic tick plus the final shutdown save.
	if saver.calls.Load() < 2 {
		t.Fatalf("expected ticks plus final save, got %d calls", saver.calls.Load())
	}
}

func TestHandleChangeMirrorsCreatedExpense(t *testing.T) {
	m := mirrormem.New()
	w := NewMirrorWorker(nil, m, nil, storagemem.New(), 0)

	e := core.Expense{ID: 42, Name: "Coffee", Category: core.CategoryFood,
		Amount: core.MoneyFromCents(350), Date: "2025-06-01"}
	msg := amqp.NewChangeMessage(amqp.ChangeExpenseAdded, 1)
	msg.ExpenseID = e.ID
	msg.Expense = &e

	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := m.Rows()
	if len(rows) != 1 || rows[0].ID != 42 {
		t.Fatalf("expense not mirrored: %v", rows)
	}
}

func TestHandleChangeIgnoresOtherKinds(t *testing.T) {
	m := mirrormem.New()
	w := NewMirrorWorker(nil, m, nil, storagemem.New(), 0)

	for _, kind := range []amqp.ChangeKind{
		amqp.ChangeExpenseDeleted, amqp.ChangeBudgetUpdated, amqp.ChangeMonthCleared,
	} {
		if err := w.HandleChange(context.Background(), amqp.NewChangeMessage(kind, 1)); err != nil {
			t.Fatalf("kind %s: unexpected error: %v", kind, err)
		}
	}
	if len(m.Rows()) != 0 {
		t.Fatalf("non-creation events must not produce rows")
	}
}

func TestSnapshotCopiesPersistedDocument(t *testing.T) {
	backend := storagemem.New()
	ctx := context.Background()
	if err := backend.Set(ctx, store.DocumentKey, []byte(`{"currency":"JMD"}`)); err != nil {
		t.Fatal(err)
	}

	m := mirrormem.New()
	w := NewMirrorWorker(nil, nil, m, backend, time.Minute)
	if err := w.Snapshot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Snapshots() != 1 {
		t.Fatalf("expected one snapshot")
	}
}

func TestSnapshotNoDocumentIsNoop(t *testing.T) {
	m := mirrormem.New()
	w := NewMirrorWorker(nil, nil, m, storagemem.New(), time.Minute)
	if err := w.Snapshot(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Snapshots() != 0 {
		t.Fatalf("no snapshot expected without a document")
	}
}
