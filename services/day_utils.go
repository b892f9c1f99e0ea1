package services

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire format for calendar dates.
const DayLayout = "2006-01-02"

// CivilDate returns midnight UTC of the calendar day t falls on in its own location.
// Every stored and compared date in the progress pipeline goes through this.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CivilDate(now.In(loc))
}

// ParseDay parses a YYYY-MM-DD string into a civil date.
func ParseDay(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(raw string) (int, time.Month, error) {
	t, err := time.ParseInLocation("2006-01", strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: expected YYYY-MM", raw)
	}
	return t.Year(), t.Month(), nil
}

// FormatDay renders the calendar day of t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return CivilDate(t).Format(DayLayout)
}

// MonthBounds returns the first and last calendar day of the month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}
