// Package derive holds the pure query functions of the tracker. Everything
// here recomputes from the document on each call; nothing mutates and
// nothing touches I/O.
package derive

import (
	"sort"
	"time"

	"pocketbook/internal/core"
)

// CategoryGroup aggregates one category's expenses within a month.
type CategoryGroup struct {
	Total core.Money
	Count int
	Items []core.Expense
}

// TrendPoint is one month of the spending trend.
type TrendPoint struct {
	Month core.YearMonth
	Label string
	Total core.Money
}

// Insights is the summary panel of a set of expenses against income and
// budgets.
type Insights struct {
	TotalSpent            core.Money
	Remaining             core.Money
	SavingsRate           float64
	HighestCategory       core.Category
	HighestCategoryAmount core.Money
	OverBudgetCount       int
	AverageExpense        core.Money
	ExpenseCount          int
}

// ExpensesForMonth returns the expenses whose date falls in the given month,
// in document order. Expenses with malformed dates never match.
func ExpensesForMonth(doc *core.Document, month core.YearMonth) []core.Expense {
	var out []core.Expense
	for _, e := range doc.Expenses {
		if ym, ok := e.Date.YearMonth(); ok && ym == month {
			out = append(out, e)
		}
	}
	return out
}

// TotalForMonth sums the amounts of the month's expenses.
func TotalForMonth(doc *core.Document, month core.YearMonth) core.Money {
	var total core.Money
	for _, e := range ExpensesForMonth(doc, month) {
		total = total.Add(e.Amount)
	}
	return total
}

// ByCategory groups the month's expenses per category. The result is sparse:
// only categories with at least one expense appear as keys, unlike the
// document's budgets map which always carries all eight.
func ByCategory(doc *core.Document, month core.YearMonth) map[core.Category]CategoryGroup {
	out := make(map[core.Category]CategoryGroup)
	for _, e := range ExpensesForMonth(doc, month) {
		g := out[e.Category]
		g.Total = g.Total.Add(e.Amount)
		g.Count++
		g.Items = append(g.Items, e)
		out[e.Category] = g
	}
	return out
}

// Trend computes totals for the n calendar months ending at the month
// containing now, oldest first. Each point recomputes over the full expense
// history; the document is small enough that incremental bookkeeping would
// not pay for itself.
func Trend(doc *core.Document, n int, now time.Time) []TrendPoint {
	if n <= 0 {
		return nil
	}
	current := core.YearMonthOf(now)
	points := make([]TrendPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		month := current.AddMonths(-i)
		points = append(points, TrendPoint{
			Month: month,
			Label: month.Label(),
			Total: TotalForMonth(doc, month),
		})
	}
	return points
}

// ComputeInsights summarizes a pre-filtered expense collection against the
// configured income and budgets.
//
// The savings rate is remaining/income as a percentage, zero when no income
// is configured. The highest category is the one with the largest aggregated
// spend among categories that appear in expenses; ties break lexicographically
// so the answer is deterministic. A category with spend but no budget counts
// as over budget: an absent limit is a zero limit.
func ComputeInsights(expenses []core.Expense, income core.Money, budgets core.Budgets) Insights {
	ins := Insights{ExpenseCount: len(expenses)}

	perCategory := make(map[core.Category]core.Money)
	for _, e := range expenses {
		ins.TotalSpent = ins.TotalSpent.Add(e.Amount)
		perCategory[e.Category] = perCategory[e.Category].Add(e.Amount)
	}

	ins.Remaining = income.Sub(ins.TotalSpent)
	if income.Cents > 0 {
		ins.SavingsRate = float64(ins.Remaining.Cents) / float64(income.Cents) * 100
	}

	categories := make([]core.Category, 0, len(perCategory))
	for c := range perCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	for _, c := range categories {
		spent := perCategory[c]
		if spent.Cents > ins.HighestCategoryAmount.Cents {
			ins.HighestCategory = c
			ins.HighestCategoryAmount = spent
		}
		if spent.Cents > budgets[c].Cents {
			ins.OverBudgetCount++
		}
	}

	if ins.ExpenseCount > 0 {
		ins.AverageExpense = ins.TotalSpent.Div(int64(ins.ExpenseCount))
	}
	return ins
}
