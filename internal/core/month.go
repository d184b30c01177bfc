package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth identifies a calendar month. Its text form is the YYYY-MM token
// used as grouping key and filter predicate throughout the tracker.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses a YYYY-MM token.
func ParseYearMonth(s string) (YearMonth, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return YearMonth{}, ErrInvalidYearMonth
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return YearMonth{}, ErrInvalidYearMonth
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, ErrInvalidYearMonth
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// YearMonthOf returns the calendar month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// String renders the YYYY-MM token.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Label renders a short human form, e.g. "Jan 2025".
func (ym YearMonth) Label() string {
	return ym.First().Format("Jan 2006")
}

// First returns midnight UTC on the first day of the month.
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the month n calendar months after ym. Negative n moves
// backwards. Normalization is delegated to time.Date.
func (ym YearMonth) AddMonths(n int) YearMonth {
	t := time.Date(ym.Year, ym.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return YearMonthOf(t)
}

// IsZero reports whether ym is the zero value.
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// MarshalText encodes the YYYY-MM token.
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText decodes a YYYY-MM token. The empty string decodes to the
// zero value so legacy documents without the field load cleanly.
func (ym *YearMonth) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*ym = YearMonth{}
		return nil
	}
	parsed, err := ParseYearMonth(string(text))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
