package domain

import (
	"fmt"
	"time"
)

// Dates are stored and compared as ISO YYYY-MM-DD strings. Lexical order
// coincides with chronological order for this format, which the due-date
// and streak comparisons rely on.
const DateLayout = "2006-01-02"

// FormatDate renders t as an ISO date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidArgument, s)
	}
	return t, nil
}

// Today returns the current local date as an ISO string.
func Today() string {
	return FormatDate(time.Now())
}

// AddDays returns date shifted by n calendar days, as an ISO string.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}
