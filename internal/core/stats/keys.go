package stats

import (
	"fmt"
	"time"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// DayKey returns the calendar date of t in loc, e.g. "2025-03-14".
// Keys sort lexically in chronological order.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayKeyLayout)
}

// MonthKey returns the calendar month of t in loc, e.g. "2025-03".
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(monthKeyLayout)
}

// ParseDayKey returns local midnight of the keyed date.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// ParseMonthKey returns local midnight of the first day of the keyed month.
func ParseMonthKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(monthKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t, nil
}

// MonthKeyOfDay maps a day key to the month key containing it.
func MonthKeyOfDay(dayKey string) string {
	if len(dayKey) < len(monthKeyLayout) {
		return dayKey
	}
	return dayKey[:len(monthKeyLayout)]
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
