package core

import "testing"

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Fatalf("%q should be valid", c)
		}
	}
	for _, c := range []Category{"", "food", "Groceries", "HOUSING"} {
		if c.Valid() {
			t.Fatalf("%q should be invalid", c)
		}
	}
}

func TestDateParsing(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{"2025-01-31", true},
		{"2024-02-29", true},
		{"2025-02-29", false}, // not a leap year
		{"2025-13-01", false},
		{"not-a-date", false},
		{"", false},
	}
	for i, tc := range cases {
		if got := tc.d.Valid(); got != tc.ok {
			t.Fatalf("case %d (%q): expected valid=%v", i, tc.d, tc.ok)
		}
	}

	ym, ok := Date("2025-06-15").YearMonth()
	if !ok || ym.String() != "2025-06" {
		t.Fatalf("expected 2025-06, got %v (ok=%v)", ym, ok)
	}
	if _, ok := Date("garbage").YearMonth(); ok {
		t.Fatalf("malformed date must not yield a month")
	}
}

func TestDefaultBudgetsComplete(t *testing.T) {
	b := DefaultBudgets()
	if len(b) != 8 {
		t.Fatalf("expected 8 budget keys, got %d", len(b))
	}
	for _, c := range Categories() {
		m, ok := b[c]
		if !ok {
			t.Fatalf("missing budget key %q", c)
		}
		if m.Cents <= 0 {
			t.Fatalf("default budget for %q should be positive", c)
		}
	}
}

func TestNewDocumentDefaults(t *testing.T) {
	ym := YearMonth{Year: 2025, Month: 3}
	doc := NewDocument(ym)
	if doc.Currency != DefaultCurrency {
		t.Fatalf("expected currency %q, got %q", DefaultCurrency, doc.Currency)
	}
	if len(doc.Expenses) != 0 {
		t.Fatalf("expected no expenses")
	}
	if doc.CurrentMonth != ym {
		t.Fatalf("expected current month %v, got %v", ym, doc.CurrentMonth)
	}
}

func TestFindExpense(t *testing.T) {
	doc := NewDocument(YearMonth{Year: 2025, Month: 1})
	doc.Expenses = []Expense{{ID: 10}, {ID: 20}, {ID: 30}}
	if i := doc.FindExpense(20); i != 1 {
		t.Fatalf("expected index 1, got %d", i)
	}
	if i := doc.FindExpense(99); i != -1 {
		t.Fatalf("expected -1 for unknown id, got %d", i)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Name:     "Coffee",
		Category: CategoryFood,
		Amount:   Money{Cents: 350},
		Date:     "2025-01-05",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Name: "  ", Category: CategoryFood, Amount: Money{Cents: 1}, Date: "2025-01-05"},
		{Name: "a", Category: "Snacks", Amount: Money{Cents: 1}, Date: "2025-01-05"},
		{Name: "a", Category: CategoryFood, Amount: Money{Cents: 0}, Date: "2025-01-05"},
		{Name: "a", Category: CategoryFood, Amount: Money{Cents: 1}, Date: "junk"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
