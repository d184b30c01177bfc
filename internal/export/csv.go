// Package export serializes expense collections for download.
package export

import (
	"fmt"
	"strings"

	"pocketbook/internal/core"
)

// Header is the fixed first row of every export.
const Header = "Date,Name,Category,Amount,Notes"

// CSV renders expenses as flat tabular text, one row per expense in input
// order. Name and notes are wrapped in double quotes without escaping of
// embedded quotes or commas; that is the legacy format existing exports use,
// and changing it would break consumers of those files. Amounts carry exactly
// two decimals.
func CSV(expenses []core.Expense) string {
	var sb strings.Builder
	sb.WriteString(Header)
	for _, e := range expenses {
		sb.WriteString("\n")
		sb.WriteString(string(e.Date))
		sb.WriteString(`,"`)
		sb.WriteString(e.Name)
		sb.WriteString(`",`)
		sb.WriteString(string(e.Category))
		sb.WriteString(",")
		sb.WriteString(e.Amount.String())
		sb.WriteString(`,"`)
		sb.WriteString(e.Notes)
		sb.WriteString(`"`)
	}
	return sb.String()
}

// Filename names the download for a month's export.
func Filename(month core.YearMonth) string {
	return fmt.Sprintf("expenses-%s.csv", month)
}
