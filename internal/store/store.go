// Package store owns mutation of the tracker document and its load/save
// lifecycle. Callers hold the single document instance and pass it to every
// operation; the store itself keeps no document state, only the id sequence.
package store

import (
	"context"
	"log/slog"
	"sync"

	"pocketbook/internal/core"
)

// Store performs document mutations and persistence. All operations are
// synchronous; serialization of concurrent callers is the owner's concern.
type Store struct {
	storage Storage
	clock   Clock

	mu     sync.Mutex // guards lastID
	lastID int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates a Store backed by the given storage collaborator.
func New(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		clock:   SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextID returns a fresh expense id. Ids are wall-clock milliseconds bumped
// past the last issued value, so they stay strictly increasing even when two
// expenses land in the same millisecond.
func (s *Store) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.clock.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// observeID raises the id floor so ids loaded from storage are never reissued.
func (s *Store) observeID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.lastID {
		s.lastID = id
	}
}

// AddExpense assigns a fresh id and creation timestamp to the draft and
// appends it to the document. The category must belong to the fixed set;
// everything else is the caller's job to validate (core.ValidateDraft).
func (s *Store) AddExpense(doc *core.Document, draft core.ExpenseDraft) (core.Expense, error) {
	if !draft.Category.Valid() {
		return core.Expense{}, core.ErrUnknownCategory
	}
	e := core.Expense{
		ID:        s.nextID(),
		Name:      draft.Name,
		Category:  draft.Category,
		Amount:    draft.Amount,
		Date:      draft.Date,
		Notes:     draft.Notes,
		CreatedAt: s.clock.Now(),
	}
	doc.Expenses = append(doc.Expenses, e)
	doc.Revision++
	return e, nil
}

// DeleteExpense removes the expense with the given id. Unknown ids are a
// no-op, reported as false rather than an error.
func (s *Store) DeleteExpense(doc *core.Document, id int64) bool {
	i := doc.FindExpense(id)
	if i < 0 {
		return false
	}
	doc.Expenses = append(doc.Expenses[:i], doc.Expenses[i+1:]...)
	doc.Revision++
	return true
}

// ExpensePatch carries the fields of an update. Nil fields stay untouched.
type ExpensePatch struct {
	Name     *string
	Category *core.Category
	Amount   *core.Money
	Date     *core.Date
	Notes    *string
}

// UpdateExpense merges the patch into the matching expense. Unknown ids are
// a no-op. Id and CreatedAt are immutable and cannot be patched. A patch
// category outside the fixed set is ignored, preserving the invariant that
// stored categories stay within the closed set once admitted.
func (s *Store) UpdateExpense(doc *core.Document, id int64, patch ExpensePatch) bool {
	i := doc.FindExpense(id)
	if i < 0 {
		return false
	}
	e := &doc.Expenses[i]
	if patch.Name != nil {
		e.Name = *patch.Name
	}
	if patch.Category != nil && patch.Category.Valid() {
		e.Category = *patch.Category
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}
	doc.Revision++
	return true
}

// UpdateBudget sets the limit for one category. Categories outside the fixed
// set are rejected so the budgets map never grows beyond its eight keys.
func (s *Store) UpdateBudget(doc *core.Document, category core.Category, limit core.Money) bool {
	if !category.Valid() {
		slog.Warn("Ignoring budget update for unknown category", "category", string(category))
		return false
	}
	doc.Budgets[category] = limit
	doc.Revision++
	return true
}

// SetMonthlyIncome replaces the configured income.
func (s *Store) SetMonthlyIncome(doc *core.Document, income core.Money) {
	doc.MonthlyIncome = income
	doc.Revision++
}

// ClearMonth removes every expense whose date falls in the given month and
// returns how many were dropped. Expenses with malformed dates never match.
func (s *Store) ClearMonth(doc *core.Document, month core.YearMonth) int {
	kept := doc.Expenses[:0]
	removed := 0
	for _, e := range doc.Expenses {
		if ym, ok := e.Date.YearMonth(); ok && ym == month {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed > 0 {
		doc.Expenses = kept
		doc.Revision++
	}
	return removed
}

// LoadOrDefault fetches the persisted document and merges it over defaults.
// It never fails: a missing key, a read error or a corrupt payload all log
// and degrade to the default document. The current month is always reset to
// the clock's month, whatever was persisted.
func (s *Store) LoadOrDefault(ctx context.Context) *core.Document {
	now := core.YearMonthOf(s.clock.Now())
	doc := core.NewDocument(now)

	payload, found, err := s.storage.Get(ctx, DocumentKey)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read document, starting from defaults",
			"key", DocumentKey, "error", err)
		return doc
	}
	if !found {
		slog.InfoContext(ctx, "No persisted document, starting from defaults",
			"key", DocumentKey)
		return doc
	}

	if err := decodeInto(doc, payload); err != nil {
		slog.ErrorContext(ctx, "Corrupt persisted document, starting from defaults",
			"key", DocumentKey, "error", err)
		return core.NewDocument(now)
	}

	// Never trust a persisted month across sessions.
	doc.CurrentMonth = now

	for _, e := range doc.Expenses {
		s.observeID(e.ID)
	}

	slog.InfoContext(ctx, "Document loaded",
		"expenses", len(doc.Expenses),
		"currency", doc.Currency,
		"month", doc.CurrentMonth.String())
	return doc
}

// Save serializes the document and writes it to storage. Failures are
// reported as false, never raised; the session keeps running on its
// in-memory state.
func (s *Store) Save(ctx context.Context, doc *core.Document) bool {
	payload, err := encode(doc)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to serialize document", "error", err)
		return false
	}
	if err := s.storage.Set(ctx, DocumentKey, payload); err != nil {
		slog.ErrorContext(ctx, "Failed to persist document",
			"key", DocumentKey, "bytes", len(payload), "error", err)
		return false
	}
	return true
}
