package services

import (
	"fmt"

	"pocketbook/internal/core"
	"pocketbook/internal/derive"
	"pocketbook/internal/export"
	"pocketbook/internal/query"
)

// Read-side accessors. Everything here returns copies or freshly derived
// values; callers can never reach the live document.

// CurrentMonth returns the document's current month.
func (s *TrackerService) CurrentMonth() core.YearMonth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.CurrentMonth
}

// Currency returns the display currency code.
func (s *TrackerService) Currency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Currency
}

// MonthlyIncome returns the configured income.
func (s *TrackerService) MonthlyIncome() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.MonthlyIncome
}

// Budgets returns a copy of the budgets map.
func (s *TrackerService) Budgets() core.Budgets {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Budgets.Clone()
}

// Expenses returns a copy of the full expense list in insertion order.
func (s *TrackerService) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.doc.Expenses...)
}

// MonthExpenses returns the month's expenses, optionally filtered by a
// search term and sorted.
func (s *TrackerService) MonthExpenses(month core.YearMonth, term string, key query.SortKey, order query.SortOrder) []core.Expense {
	s.mu.Lock()
	expenses := derive.ExpensesForMonth(s.doc, month)
	s.mu.Unlock()

	expenses = query.Filter(expenses, term)
	if key != "" {
		expenses = query.Sort(expenses, key, order)
	}
	return expenses
}

// MonthTotal returns the month's spend.
func (s *TrackerService) MonthTotal(month core.YearMonth) core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return derive.TotalForMonth(s.doc, month)
}

// ByCategory returns the month's per-category aggregation.
func (s *TrackerService) ByCategory(month core.YearMonth) map[core.Category]derive.CategoryGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return derive.ByCategory(s.doc, month)
}

// Insights returns the month's summary, cached per document revision so
// repeated reads between mutations cost one map lookup.
func (s *TrackerService) Insights(month core.YearMonth) derive.Insights {
	s.mu.Lock()
	key := fmt.Sprintf("%d/%s", s.doc.Revision, month)
	if cached, ok := s.insights.Get(key); ok {
		s.mu.Unlock()
		return cached
	}
	expenses := derive.ExpensesForMonth(s.doc, month)
	income := s.doc.MonthlyIncome
	budgets := s.doc.Budgets.Clone()
	s.mu.Unlock()

	ins := derive.ComputeInsights(expenses, income, budgets)
	s.insights.Set(key, ins)
	return ins
}

// Trend returns totals for the n months ending at the current month, cached
// per document revision.
func (s *TrackerService) Trend(n int) []derive.TrendPoint {
	now := s.clock.Now()

	s.mu.Lock()
	key := fmt.Sprintf("%d/%d/%s", s.doc.Revision, n, core.YearMonthOf(now))
	if cached, ok := s.trends.Get(key); ok {
		s.mu.Unlock()
		return cached
	}
	points := derive.Trend(s.doc, n, now)
	s.mu.Unlock()

	s.trends.Set(key, points)
	return points
}

// ExportMonthCSV renders the month's expenses as CSV and names the download.
func (s *TrackerService) ExportMonthCSV(month core.YearMonth) (filename, csv string) {
	expenses := s.MonthExpenses(month, "", "", "")
	return export.Filename(month), export.CSV(expenses)
}
