package store

import (
	"encoding/json"

	"pocketbook/internal/core"
)

// persistedDocument mirrors core.Document with presence-aware fields so a
// partially written or legacy payload merges over defaults instead of
// zeroing them out.
type persistedDocument struct {
	Currency      *string                      `json:"currency"`
	MonthlyIncome *core.Money                  `json:"monthly_income_cents"`
	Expenses      []core.Expense               `json:"expenses"`
	Budgets       map[core.Category]core.Money `json:"budgets"`
	CurrentMonth  core.YearMonth               `json:"current_month"`
}

// encode serializes the document for storage.
func encode(doc *core.Document) ([]byte, error) {
	return json.Marshal(doc)
}

// decodeInto merges the persisted payload over the defaults already in doc.
// Top-level fields fall back to the default when absent. Budgets are merged
// one key deeper: a persisted budgets object that lacks some categories keeps
// the default for the missing keys instead of dropping them, and keys outside
// the fixed set are discarded.
func decodeInto(doc *core.Document, payload []byte) error {
	var p persistedDocument
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}

	if p.Currency != nil && *p.Currency != "" {
		doc.Currency = *p.Currency
	}
	if p.MonthlyIncome != nil {
		doc.MonthlyIncome = *p.MonthlyIncome
	}
	if p.Expenses != nil {
		doc.Expenses = p.Expenses
	}
	for category, limit := range p.Budgets {
		if category.Valid() {
			doc.Budgets[category] = limit
		}
	}
	if !p.CurrentMonth.IsZero() {
		doc.CurrentMonth = p.CurrentMonth
	}
	return nil
}
