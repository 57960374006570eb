package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedDate is returned when an expression matches none of the
// accepted forms.
var ErrMalformedDate = errors.New("malformed date")

// AcceptedFormats is reported back to callers that pass a malformed date.
const AcceptedFormats = `"now", "today", relative "-{N}{d|w|m|y}" (e.g. -7d, -2w), ` +
	`ISO date "YYYY-MM-DD" or date-time "YYYY-MM-DDTHH:MM[:SS][Z|±HH:MM]"`

var relativePattern = regexp.MustCompile(`^-(\d+)([dwmy])$`)

// unitDays uses fixed multipliers; a "month" is always 30 days and a "year"
// always 365.
var unitDays = map[string]int{
	"d": 1,
	"w": 7,
	"m": 30,
	"y": 365,
}

// Layouts without a zone are read in the resolver's location.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Resolver turns date expressions into instants. The zero value uses the
// wall clock and time.Local.
type Resolver struct {
	Now      func() time.Time
	Location *time.Location
}

// NewResolver returns a resolver bound to the given clock and location.
func NewResolver(now func() time.Time, loc *time.Location) *Resolver {
	return &Resolver{Now: now, Location: loc}
}

// Resolve parses expr. It performs no I/O.
func (r *Resolver) Resolve(expr string) (time.Time, error) {
	now := r.now()
	expr = strings.TrimSpace(expr)

	switch strings.ToLower(expr) {
	case "", "now":
		return now, nil
	case "today":
		return midnight(now), nil
	}

	if m := relativePattern.FindStringSubmatch(strings.ToLower(expr)); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, malformed(expr)
		}
		return DaysBefore(now, n*unitDays[m[2]]), nil
	}

	loc := r.location()
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, expr, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, malformed(expr)
}

// Resolve uses the wall clock and local time zone.
func Resolve(expr string) (time.Time, error) {
	var r Resolver
	return r.Resolve(expr)
}

// DaysBefore steps back whole calendar days in t's location.
func DaysBefore(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, -days)
}

func malformed(expr string) error {
	return fmt.Errorf("%w: %q (accepted formats: %s)", ErrMalformedDate, expr, AcceptedFormats)
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now().In(r.location())
	}
	return time.Now().In(r.location())
}

func (r *Resolver) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.Local
}

func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
