package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryHousing       Category = "Housing"
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealthcare    Category = "Healthcare"
	CategoryShopping      Category = "Shopping"
	CategoryOther         Category = "Other"
)

// DefaultCurrency is a display code only; no conversion happens anywhere.
const DefaultCurrency = "JMD"

type (
	// Category is one of the fixed, closed set of spending classifications.
	Category string

	// Date is a calendar date in ISO YYYY-MM-DD form. Persisted documents may
	// carry malformed values; those are tolerated and simply never match any
	// month filter.
	Date string

	// Expense is a single logged transaction. ID and CreatedAt are assigned
	// by the store at creation and never change afterwards.
	Expense struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Category  Category  `json:"category"`
		Amount    Money     `json:"amount_cents"`
		Date      Date      `json:"date"`
		Notes     string    `json:"notes,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Budgets maps every category of the fixed set to its monthly limit.
	// A well-formed document always carries all eight keys.
	Budgets map[Category]Money

	// Document is the complete in-memory representation of one user's data.
	// It is owned by a single writer; all mutation goes through the store.
	Document struct {
		Currency      string    `json:"currency"`
		MonthlyIncome Money     `json:"monthly_income_cents"`
		Expenses      []Expense `json:"expenses"`
		Budgets       Budgets   `json:"budgets"`
		CurrentMonth  YearMonth `json:"current_month"`
		// Revision counts in-process mutations. It only serves cache
		// invalidation and carries no meaning across sessions.
		Revision int64 `json:"-"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidYearMonth = errors.New("invalid year-month token")
)

// Categories returns the closed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryHousing,
		CategoryFood,
		CategoryTransport,
		CategoryUtilities,
		CategoryEntertainment,
		CategoryHealthcare,
		CategoryShopping,
		CategoryOther,
	}
}

// Valid reports whether c belongs to the fixed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryHousing, CategoryFood, CategoryTransport, CategoryUtilities,
		CategoryEntertainment, CategoryHealthcare, CategoryShopping, CategoryOther:
		return true
	default:
		return false
	}
}

// Time parses the date. ok is false for malformed values.
func (d Date) Time() (time.Time, bool) {
	t, err := time.Parse("2006-01-02", string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// YearMonth extracts the calendar month of the date. ok is false for
// malformed values, which callers treat as matching no month at all.
func (d Date) YearMonth() (YearMonth, bool) {
	t, ok := d.Time()
	if !ok {
		return YearMonth{}, false
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, true
}

// Valid reports whether the date parses as an ISO calendar date.
func (d Date) Valid() bool {
	_, ok := d.Time()
	return ok
}

func (d Date) Validate() error {
	if strings.TrimSpace(string(d)) == "" {
		return ErrInvalidDate
	}
	if !d.Valid() {
		return ErrInvalidDate
	}
	return nil
}

// DefaultBudgets returns a fresh budgets map with the starting monthly limit
// for every category, in JMD.
func DefaultBudgets() Budgets {
	return Budgets{
		CategoryHousing:       MoneyFromCents(6000000),
		CategoryFood:          MoneyFromCents(3000000),
		CategoryTransport:     MoneyFromCents(1500000),
		CategoryUtilities:     MoneyFromCents(2000000),
		CategoryEntertainment: MoneyFromCents(1000000),
		CategoryHealthcare:    MoneyFromCents(1000000),
		CategoryShopping:      MoneyFromCents(1500000),
		CategoryOther:         MoneyFromCents(1000000),
	}
}

// Clone returns an independent copy of the budgets map.
func (b Budgets) Clone() Budgets {
	out := make(Budgets, len(b))
	for c, m := range b {
		out[c] = m
	}
	return out
}

// NewDocument returns the default document: empty expenses, default budgets
// for all eight categories, and the given month as current.
func NewDocument(now YearMonth) *Document {
	return &Document{
		Currency:      DefaultCurrency,
		MonthlyIncome: Money{},
		Expenses:      nil,
		Budgets:       DefaultBudgets(),
		CurrentMonth:  now,
	}
}

// FindExpense returns the index of the expense with the given id, or -1.
func (d *Document) FindExpense(id int64) int {
	for i := range d.Expenses {
		if d.Expenses[i].ID == id {
			return i
		}
	}
	return -1
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if !e.Category.Valid() {
		return ErrUnknownCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}
