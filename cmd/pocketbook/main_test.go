package main

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"pocketbook/internal/core"
	"pocketbook/internal/services"
	"pocketbook/internal/storage/memory"
	"pocketbook/internal/store"
)

func newTestService(t *testing.T) *services.TrackerService {
	t.Helper()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	st := store.New(memory.New(), store.WithClock(store.FixedClock(now)))
	return services.New(context.Background(), st, services.WithClock(store.FixedClock(now)))
}

func addTestExpense(t *testing.T, svc *services.TrackerService) core.Expense {
	t.Helper()
	e, err := svc.AddExpense(context.Background(), core.ExpenseDraft{
		Name:     "Coffee",
		Category: core.CategoryFood,
		Amount:   core.MoneyFromCents(350),
		Date:     "2025-06-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestRunUpdateRejectsMalformedAmount(t *testing.T) {
	svc := newTestService(t)
	e := addTestExpense(t, svc)
	idArg := strconv.FormatInt(e.ID, 10)

	err := runUpdate(context.Background(), svc, []string{"-id", idArg, "-amount", "abc"})
	if err == nil {
		t.Fatal("malformed amount must be reported, not dropped")
	}
	if !strings.Contains(err.Error(), "abc") {
		t.Errorf("error should name the bad amount, got %q", err)
	}

	got := svc.Expenses()[0]
	if got.Amount.Cents != 350 {
		t.Errorf("amount must be unchanged after rejected update, got %d", got.Amount.Cents)
	}
}

func TestRunUpdateRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(t)
	e := addTestExpense(t, svc)
	idArg := strconv.FormatInt(e.ID, 10)

	err := runUpdate(context.Background(), svc, []string{"-id", idArg, "-category", "Gizmos"})
	if err == nil {
		t.Fatal("unknown category must be reported, not ignored")
	}

	got := svc.Expenses()[0]
	if got.Category != core.CategoryFood {
		t.Errorf("category must be unchanged after rejected update, got %q", got.Category)
	}
}

func TestRunUpdateAppliesValidPatch(t *testing.T) {
	svc := newTestService(t)
	e := addTestExpense(t, svc)
	idArg := strconv.FormatInt(e.ID, 10)

	err := runUpdate(context.Background(), svc, []string{
		"-id", idArg, "-amount", "5.25", "-category", "Transport",
	})
	if err != nil {
		t.Fatalf("runUpdate() error: %v", err)
	}

	got := svc.Expenses()[0]
	if got.Amount.Cents != 525 {
		t.Errorf("Amount = %d, want 525", got.Amount.Cents)
	}
	if got.Category != core.CategoryTransport {
		t.Errorf("Category = %q, want Transport", got.Category)
	}
}
