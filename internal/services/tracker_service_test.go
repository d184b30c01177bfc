package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pocketbook/internal/amqp"
	"pocketbook/internal/core"
	"pocketbook/internal/query"
	"pocketbook/internal/storage/memory"
	"pocketbook/internal/store"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*amqp.ChangeMessage
	err      error
}

func (p *recordingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) kinds() []amqp.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.ChangeKind, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.Kind
	}
	return out
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...Option) (*TrackerService, *memory.Store) {
	t.Helper()
	backend := memory.New()
	st := store.New(backend, store.WithClock(store.FixedClock(testNow)))
	opts = append(opts, WithClock(store.FixedClock(testNow)))
	return New(context.Background(), st, opts...), backend
}

func validDraft() core.ExpenseDraft {
	return core.ExpenseDraft{
		Name:     "Coffee",
		Category: core.CategoryFood,
		Amount:   core.MoneyFromCents(350),
		Date:     "2025-06-01",
	}
}

func TestAddExpensePersistsAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, backend := newService(t, WithPublisher(pub))
	ctx := context.Background()

	e, err := svc.AddExpense(ctx, validDraft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if backend.Len() != 1 {
		t.Fatalf("document not persisted")
	}

	kinds := pub.kinds()
	if len(kinds) != 1 || kinds[0] != amqp.ChangeExpenseAdded {
		t.Fatalf("expected one expense_added event, got %v", kinds)
	}
	if pub.messages[0].Expense == nil || pub.messages[0].Month != "2025-06" {
		t.Fatalf("event payload incomplete: %+v", pub.messages[0])
	}
}

func TestAddExpenseValidationAggregatesErrors(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddExpense(context.Background(), core.ExpenseDraft{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Reasons) != 4 {
		t.Fatalf("expected all 4 reasons together, got %v", verr.Reasons)
	}
	if len(svc.Expenses()) != 0 {
		t.Fatalf("no partial insert expected")
	}
}

func TestPublisherFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, backend := newService(t, WithPublisher(pub))

	if _, err := svc.AddExpense(context.Background(), validDraft()); err != nil {
		t.Fatalf("mutation must succeed despite publisher failure: %v", err)
	}
	if backend.Len() != 1 {
		t.Fatalf("document must still be persisted")
	}
}

func TestDeleteExpense(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newService(t, WithPublisher(pub))
	ctx := context.Background()

	e, err := svc.AddExpense(ctx, validDraft())
	if err != nil {
		t.Fatal(err)
	}
	if !svc.DeleteExpense(ctx, e.ID) {
		t.Fatalf("delete should report true")
	}
	if svc.DeleteExpense(ctx, e.ID) {
		t.Fatalf("second delete must be a no-op")
	}
	if got := pub.kinds(); got[len(got)-1] != amqp.ChangeExpenseDeleted {
		t.Fatalf("expected expense_deleted event, got %v", got)
	}
}

func TestSetBudgetRejectsUnknownCategory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if !svc.SetBudget(ctx, core.CategoryFood, core.MoneyFromCents(100000)) {
		t.Fatalf("known category must be accepted")
	}
	if svc.SetBudget(ctx, "Misc", core.MoneyFromCents(1)) {
		t.Fatalf("unknown category must be rejected")
	}
	if got := svc.Budgets()[core.CategoryFood].Cents; got != 100000 {
		t.Fatalf("budget not applied: %d", got)
	}
}

func TestInsightsScenarioThroughService(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	svc.SetMonthlyIncome(ctx, core.MoneyFromCents(16000000))
	if _, err := svc.AddExpense(ctx, core.ExpenseDraft{
		Name: "Rent", Category: core.CategoryHousing,
		Amount: core.MoneyFromCents(5000000), Date: "2025-06-02",
	}); err != nil {
		t.Fatal(err)
	}
	svc.SetBudget(ctx, core.CategoryHousing, core.MoneyFromCents(6000000))

	ins := svc.Insights(svc.CurrentMonth())
	if ins.TotalSpent.Cents != 5000000 || ins.Remaining.Cents != 11000000 {
		t.Fatalf("totals wrong: %+v", ins)
	}
	if ins.SavingsRate != 68.75 {
		t.Fatalf("savings rate: %v", ins.SavingsRate)
	}
	if ins.HighestCategory != core.CategoryHousing || ins.OverBudgetCount != 0 {
		t.Fatalf("category summary wrong: %+v", ins)
	}

	// Cached read returns the same value.
	again := svc.Insights(svc.CurrentMonth())
	if again != ins {
		t.Fatalf("cached insights diverged")
	}

	// A mutation bumps the revision and invalidates the cached value.
	if _, err := svc.AddExpense(ctx, validDraft()); err != nil {
		t.Fatal(err)
	}
	fresh := svc.Insights(svc.CurrentMonth())
	if fresh.ExpenseCount != 2 {
		t.Fatalf("stale insights after mutation: %+v", fresh)
	}
}

func TestTrendThroughService(t *testing.T) {
	svc, _ := newService(t)
	points := svc.Trend(6)
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if points[5].Month.String() != "2025-06" {
		t.Fatalf("last point must be the current month: %v", points[5].Month)
	}
}

func TestMonthExpensesFilterAndSort(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	drafts := []core.ExpenseDraft{
		{Name: "Rent", Category: core.CategoryHousing, Amount: core.MoneyFromCents(5000000), Date: "2025-06-01"},
		{Name: "Coffee", Category: core.CategoryFood, Amount: core.MoneyFromCents(350), Date: "2025-06-02"},
		{Name: "Groceries", Category: core.CategoryFood, Amount: core.MoneyFromCents(12000), Date: "2025-06-03"},
	}
	for _, d := range drafts {
		if _, err := svc.AddExpense(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	month := svc.CurrentMonth()
	food := svc.MonthExpenses(month, "food", "", "")
	if len(food) != 2 {
		t.Fatalf("expected 2 food expenses, got %d", len(food))
	}

	sorted := svc.MonthExpenses(month, "", query.SortByAmount, query.Descending)
	if sorted[0].Name != "Rent" || sorted[2].Name != "Coffee" {
		t.Fatalf("unexpected order: %v", sorted)
	}
}

func TestExportMonthCSV(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.AddExpense(ctx, validDraft()); err != nil {
		t.Fatal(err)
	}

	name, csv := svc.ExportMonthCSV(svc.CurrentMonth())
	if name != "expenses-2025-06.csv" {
		t.Fatalf("filename: %q", name)
	}
	if !strings.HasPrefix(csv, "Date,Name,Category,Amount,Notes\n") {
		t.Fatalf("missing header: %q", csv)
	}
	if !strings.Contains(csv, `2025-06-01,"Coffee",Food,3.50,""`) {
		t.Fatalf("row missing: %q", csv)
	}
}

func TestSaveReloadAcrossServices(t *testing.T) {
	backend := memory.New()
	clock := store.FixedClock(testNow)
	ctx := context.Background()

	first := New(ctx, store.New(backend, store.WithClock(clock)), WithClock(clock))
	first.SetMonthlyIncome(ctx, core.MoneyFromCents(999900))
	if _, err := first.AddExpense(ctx, validDraft()); err != nil {
		t.Fatal(err)
	}

	second := New(ctx, store.New(backend, store.WithClock(clock)), WithClock(clock))
	if second.MonthlyIncome().Cents != 999900 {
		t.Fatalf("income lost across reload")
	}
	if len(second.Expenses()) != 1 {
		t.Fatalf("expenses lost across reload")
	}
}
