package core

import (
	"strings"
	"testing"
)

func TestValidateDraftAllReported(t *testing.T) {
	res := ValidateDraft(ExpenseDraft{})
	if res.Valid {
		t.Fatalf("empty draft must be invalid")
	}
	if len(res.Errors) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestValidateDraftBlankNameOnly(t *testing.T) {
	res := ValidateDraft(ExpenseDraft{
		Name:     "",
		Category: CategoryFood,
		Amount:   Money{Cents: 1000},
		Date:     "2024-01-01",
	})
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", res.Errors)
	}
	if !strings.Contains(strings.ToLower(res.Errors[0]), "name") {
		t.Fatalf("error should mention the name: %q", res.Errors[0])
	}
}

func TestValidateDraftOK(t *testing.T) {
	res := ValidateDraft(ExpenseDraft{
		Name:     "Coffee",
		Category: CategoryFood,
		Amount:   Money{Cents: 350},
		Date:     "2024-01-05",
	})
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("expected valid, got %v", res.Errors)
	}
}
