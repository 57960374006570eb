package projection

import (
	"fmt"
	"strings"
	"time"

	"github.com/aevon-lab/tokenledger/internal/core/dates"
)

const dateOnlyLayout = "2006-01-02"

type timeRange struct {
	Start time.Time
	End   time.Time
	Label string
}

func (r timeRange) contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// overlaps reports whether [from, until) intersects the range.
func (r timeRange) overlaps(from, until time.Time) bool {
	return !from.After(r.End) && until.After(r.Start)
}

func (s *Service) resolveRange(p Params) (timeRange, error) {
	now := s.now()

	if p.RelativeDays != nil {
		n := *p.RelativeDays
		if n < MinRelativeDays || n > MaxRelativeDays {
			return timeRange{}, fmt.Errorf("%w: %d (must be %d-%d)", ErrOutOfRange, n, MinRelativeDays, MaxRelativeDays)
		}
		return timeRange{Start: dates.DaysBefore(now, n), End: now, Label: lastDaysLabel(n)}, nil
	}

	if p.StartDate != "" || p.EndDate != "" {
		return s.explicitRange(p.StartDate, p.EndDate, now)
	}

	switch strings.ToLower(strings.TrimSpace(p.Period)) {
	case "", PeriodAll:
		return timeRange{Start: time.Unix(0, 0).In(s.location), End: now, Label: "All time"}, nil
	case PeriodToday:
		y, m, d := now.Date()
		return timeRange{Start: time.Date(y, m, d, 0, 0, 0, 0, s.location), End: now, Label: "Today"}, nil
	case PeriodWeek:
		return timeRange{Start: dates.DaysBefore(now, 7), End: now, Label: "Last 7 days"}, nil
	case PeriodMonth:
		return timeRange{Start: dates.DaysBefore(now, 30), End: now, Label: "Last 30 days"}, nil
	default:
		return timeRange{}, invalidQueryf("unknown period %q (must be all, today, week or month)", p.Period)
	}
}

func (s *Service) explicitRange(startExpr, endExpr string, now time.Time) (timeRange, error) {
	resolver := dates.NewResolver(s.now, s.location)

	start := time.Unix(0, 0).In(s.location)
	if startExpr != "" {
		t, err := resolver.Resolve(startExpr)
		if err != nil {
			return timeRange{}, fmt.Errorf("startDate: %w", err)
		}
		start = t
	}

	end := now
	if endExpr != "" {
		t, err := resolver.Resolve(endExpr)
		if err != nil {
			return timeRange{}, fmt.Errorf("endDate: %w", err)
		}
		// A bare calendar date as the end covers that whole day.
		if isDateOnly(endExpr) {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		end = t
	}

	if end.After(now) {
		end = now
	}
	// Checked after clamping so a range starting in the future is rejected.
	if start.After(end) {
		return timeRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return timeRange{Start: start, End: end, Label: explicitLabel(startExpr, endExpr, start, end)}, nil
}

func isDateOnly(expr string) bool {
	_, err := time.Parse(dateOnlyLayout, strings.TrimSpace(expr))
	return err == nil
}

func lastDaysLabel(n int) string {
	if n == 1 {
		return "Last 1 day"
	}
	return fmt.Sprintf("Last %d days", n)
}

func explicitLabel(startExpr, endExpr string, start, end time.Time) string {
	switch {
	case startExpr == "":
		return "Until " + end.Format(dateOnlyLayout)
	case endExpr == "":
		return "Since " + start.Format(dateOnlyLayout)
	default:
		return start.Format(dateOnlyLayout) + " to " + end.Format(dateOnlyLayout)
	}
}
