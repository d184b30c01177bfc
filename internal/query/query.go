// Package query provides pure search and sort helpers over expense slices.
// Both return fresh slices and leave their input untouched.
package query

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"pocketbook/internal/core"
)

type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByAmount   SortKey = "amount"
	SortByName     SortKey = "name"
	SortByCategory SortKey = "category"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Filter returns the expenses whose name, category or notes contain the term,
// case-insensitively. A blank term returns the input unchanged, not an empty
// result.
func Filter(expenses []core.Expense, term string) []core.Expense {
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return expenses
	}
	var out []core.Expense
	for _, e := range expenses {
		if strings.Contains(strings.ToLower(e.Name), term) ||
			strings.Contains(strings.ToLower(string(e.Category)), term) ||
			strings.Contains(strings.ToLower(e.Notes), term) {
			out = append(out, e)
		}
	}
	return out
}

// Sort returns a stably sorted copy of expenses. Date and amount compare
// numerically; name and category compare with a locale-aware collator.
// Descending order is the exact negation of ascending, not a separate
// comparator. Malformed dates compare before every real date.
func Sort(expenses []core.Expense, key SortKey, order SortOrder) []core.Expense {
	out := append([]core.Expense(nil), expenses...)
	less := lessFunc(key)
	if order == Descending {
		asc := less
		less = func(a, b core.Expense) bool { return asc(b, a) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func lessFunc(key SortKey) func(a, b core.Expense) bool {
	switch key {
	case SortByAmount:
		return func(a, b core.Expense) bool { return a.Amount.Cents < b.Amount.Cents }
	case SortByName:
		c := newCollator()
		return func(a, b core.Expense) bool { return c.CompareString(a.Name, b.Name) < 0 }
	case SortByCategory:
		c := newCollator()
		return func(a, b core.Expense) bool {
			return c.CompareString(string(a.Category), string(b.Category)) < 0
		}
	default: // SortByDate
		return func(a, b core.Expense) bool { return dateInstant(a.Date).Before(dateInstant(b.Date)) }
	}
}

func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

func dateInstant(d core.Date) time.Time {
	t, ok := d.Time()
	if !ok {
		return time.Time{}
	}
	return t
}
