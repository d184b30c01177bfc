// Package services wires the document, its store, the change feed and the
// derivation cache into the one object the shells (CLI, worker) talk to.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pocketbook/internal/amqp"
	"pocketbook/internal/cache"
	"pocketbook/internal/core"
	"pocketbook/internal/derive"
	"pocketbook/internal/log"
	"pocketbook/internal/store"
)

// ChangePublisher is the outbound change-feed port. A nil publisher disables
// the feed without changing any other behavior.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// ValidationError aggregates every reason a draft was rejected, for display
// as one message list.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid expense: " + strings.Join(e.Reasons, "; ")
}

// TrackerService owns the single document instance for the session and
// serializes every mutation and save behind one mutex, preserving the
// single-writer discipline the document's consistency depends on.
type TrackerService struct {
	mu        sync.Mutex
	doc       *core.Document
	store     *store.Store
	publisher ChangePublisher
	clock     store.Clock
	logger    *log.Logger

	insights *cache.LRU[derive.Insights]
	trends   *cache.LRU[[]derive.TrendPoint]
}

// Option configures a TrackerService.
type Option func(*TrackerService)

// WithPublisher attaches a change-feed publisher.
func WithPublisher(p ChangePublisher) Option {
	return func(s *TrackerService) { s.publisher = p }
}

// WithClock replaces the wall clock, for tests.
func WithClock(c store.Clock) Option {
	return func(s *TrackerService) { s.clock = c }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *TrackerService) { s.logger = l.WithComponent(log.ComponentService) }
}

// New creates a TrackerService and loads the document from storage. Loading
// never fails; at worst the session starts from the default document.
func New(ctx context.Context, st *store.Store, opts ...Option) *TrackerService {
	s := &TrackerService{
		store:    st,
		clock:    store.SystemClock(),
		logger:   log.New(log.DefaultConfig()).WithComponent(log.ComponentService),
		insights: cache.NewLRU[derive.Insights](32, 5*time.Minute),
		trends:   cache.NewLRU[[]derive.TrendPoint](8, 5*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = st.LoadOrDefault(ctx)
	return s
}

// AddExpense validates the draft, appends it and persists. All validation
// failures come back together in a *ValidationError; nothing is inserted on
// failure.
func (s *TrackerService) AddExpense(ctx context.Context, draft core.ExpenseDraft) (core.Expense, error) {
	if res := core.ValidateDraft(draft); !res.Valid {
		return core.Expense{}, &ValidationError{Reasons: res.Errors}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.store.AddExpense(s.doc, draft)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	s.persistLocked(ctx)

	msg := amqp.NewChangeMessage(amqp.ChangeExpenseAdded, s.doc.Revision)
	msg.ExpenseID = e.ID
	msg.Expense = &e
	if ym, ok := e.Date.YearMonth(); ok {
		msg.Month = ym.String()
	}
	s.publishLocked(ctx, msg)

	s.logger.InfoContext(ctx, "Expense added",
		log.FieldExpenseID, e.ID,
		log.FieldExpenseName, e.Name,
		log.FieldCategory, string(e.Category),
		log.FieldAmountCents, e.Amount.Cents)
	return e, nil
}

// DeleteExpense removes an expense. Unknown ids are a quiet no-op.
func (s *TrackerService) DeleteExpense(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.DeleteExpense(s.doc, id) {
		return false
	}
	s.persistLocked(ctx)

	msg := amqp.NewChangeMessage(amqp.ChangeExpenseDeleted, s.doc.Revision)
	msg.ExpenseID = id
	s.publishLocked(ctx, msg)

	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
	return true
}

// UpdateExpense merges the patch into an expense. Unknown ids are a no-op.
func (s *TrackerService) UpdateExpense(ctx context.Context, id int64, patch store.ExpensePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.UpdateExpense(s.doc, id, patch) {
		return false
	}
	s.persistLocked(ctx)

	msg := amqp.NewChangeMessage(amqp.ChangeExpenseUpdated, s.doc.Revision)
	msg.ExpenseID = id
	if i := s.doc.FindExpense(id); i >= 0 {
		e := s.doc.Expenses[i]
		msg.Expense = &e
	}
	s.publishLocked(ctx, msg)
	return true
}

// SetBudget updates one category's limit. Unknown categories are rejected.
func (s *TrackerService) SetBudget(ctx context.Context, category core.Category, limit core.Money) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.UpdateBudget(s.doc, category, limit) {
		return false
	}
	s.persistLocked(ctx)

	msg := amqp.NewChangeMessage(amqp.ChangeBudgetUpdated, s.doc.Revision)
	msg.Category = category
	s.publishLocked(ctx, msg)
	return true
}

// SetMonthlyIncome replaces the configured income.
func (s *TrackerService) SetMonthlyIncome(ctx context.Context, income core.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.SetMonthlyIncome(s.doc, income)
	s.persistLocked(ctx)
}

// ClearMonth drops every expense of the month and reports how many went.
func (s *TrackerService) ClearMonth(ctx context.Context, month core.YearMonth) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.ClearMonth(s.doc, month)
	if removed == 0 {
		return 0
	}
	s.persistLocked(ctx)

	msg := amqp.NewChangeMessage(amqp.ChangeMonthCleared, s.doc.Revision)
	msg.Month = month.String()
	s.publishLocked(ctx, msg)

	s.logger.InfoContext(ctx, "Month cleared",
		log.FieldMonth, month.String(), "removed", removed)
	return removed
}

// Save persists the document on demand. The autosaver calls this on its
// ticker; shells call it before exit.
func (s *TrackerService) Save(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Save(ctx, s.doc)
}

// persistLocked saves after a mutation. Persistence failure is soft: the
// mutation stays applied in memory and the session continues.
func (s *TrackerService) persistLocked(ctx context.Context) {
	if !s.store.Save(ctx, s.doc) {
		s.logger.WarnContext(ctx, "Document not persisted, keeping in-memory state",
			log.FieldRevision, s.doc.Revision)
	}
}

// publishLocked emits a change event. Feed failures never fail the mutation;
// the local write already succeeded.
func (s *TrackerService) publishLocked(ctx context.Context, msg *amqp.ChangeMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			"kind", string(msg.Kind), log.FieldError, err)
	}
}
