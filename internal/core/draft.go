package core

import "strings"

// ExpenseDraft is user-supplied, not-yet-validated input for a prospective
// expense. Amount is zero-valued when the user supplied nothing.
type ExpenseDraft struct {
	Name     string
	Category Category
	Amount   Money
	Date     Date
	Notes    string
}

// ValidationResult carries every failed check of a draft, not just the first.
// The caller concatenates Errors for display.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateDraft checks a draft field by field and reports all failures
// together. It never short-circuits: a draft with a blank name and a zero
// amount yields two messages.
func ValidateDraft(d ExpenseDraft) ValidationResult {
	var errs []string
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, "Please enter an expense name")
	}
	if d.Category == "" {
		errs = append(errs, "Please select a category")
	}
	if d.Amount.Cents <= 0 {
		errs = append(errs, "Please enter a valid amount greater than 0")
	}
	if strings.TrimSpace(string(d.Date)) == "" {
		errs = append(errs, "Please select a date")
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
