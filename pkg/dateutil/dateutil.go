package dateutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ISODayLayout is the date format Hurma expects in day-level queries
	ISODayLayout = "2006-01-02"
	// MonthKeyLayout is the month format used by the timeline endpoint
	MonthKeyLayout = "01-2006"
)

// Genitive month names, used as in "7 октября"
var ruMonthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// Target is the date a run is evaluated for.
// It is computed once from a single "now" snapshot so that every request
// and comparison in a run refers to the same day even across midnight.
type Target struct {
	Date    time.Time
	NextDay bool
}

// NewTarget resolves today (or tomorrow when nextDay is set) relative to now
func NewTarget(now time.Time, nextDay bool) Target {
	date := StartOfDay(now)
	if nextDay {
		date = date.AddDate(0, 0, 1)
	}
	return Target{Date: date, NextDay: nextDay}
}

// ISODay returns the target date as YYYY-MM-DD
func (t Target) ISODay() string {
	return t.Date.Format(ISODayLayout)
}

// MonthKey returns the target month as MM-YYYY
func (t Target) MonthKey() string {
	return t.Date.Format(MonthKeyLayout)
}

// DayLabel returns a Russian "day month" label, e.g. "7 октября"
func (t Target) DayLabel() string {
	return FormatDayLabel(t.Date)
}

// DaysUntil counts the days from the target date to "to", both inclusive.
// Periods that already ended yield zero or negative values.
func (t Target) DaysUntil(to time.Time) int {
	return DaysBetween(t.Date, to) + 1
}

// FormatDayLabel formats date as "<day> <genitive month>"
func FormatDayLabel(date time.Time) string {
	return fmt.Sprintf("%d %s", date.Day(), ruMonthsGenitive[date.Month()-1])
}

// DaysBetween returns the number of calendar days from "from" to "to".
// Only the calendar dates are compared; clock time and DST shifts are ignored.
func DaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// TruncateDate drops any time component from a server timestamp:
// "2024-05-01 00:00:00" and "2024-05-01T00:00:00Z" both become "2024-05-01"
func TruncateDate(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexAny(value, " T"); idx >= 0 {
		return value[:idx]
	}
	return value
}

// ParseDate parses date string in various formats
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)

	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"02.01.2006",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date format: %q", dateStr)
}

// Today returns today's date (start of day)
func Today() time.Time {
	return StartOfDay(time.Now())
}
