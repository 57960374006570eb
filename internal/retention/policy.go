package retention

import (
	"fmt"
	"time"

	"github.com/aevon-lab/tokenledger/internal/core/dates"
)

// Default tier boundaries.
const (
	DefaultRecentDays   = 30
	DefaultDailyDays    = 365
	DefaultMonthlyYears = 5
)

// Policy defines the tier boundaries and the time zone calendar keys are
// computed in.
type Policy struct {
	RecentDays   int
	DailyDays    int
	MonthlyYears int
	Location     *time.Location
}

// DefaultPolicy returns 30 days / 365 days / 5 years in local time.
func DefaultPolicy() Policy {
	return Policy{
		RecentDays:   DefaultRecentDays,
		DailyDays:    DefaultDailyDays,
		MonthlyYears: DefaultMonthlyYears,
		Location:     time.Local,
	}
}

// Validate ensures the tiers are positive and nested.
func (p Policy) Validate() error {
	if p.RecentDays <= 0 {
		return fmt.Errorf("recent_days must be positive, got %d", p.RecentDays)
	}
	if p.DailyDays <= p.RecentDays {
		return fmt.Errorf("daily_days (%d) must exceed recent_days (%d)", p.DailyDays, p.RecentDays)
	}
	if p.MonthlyYears*365 <= p.DailyDays {
		return fmt.Errorf("monthly_years (%d) must cover more than daily_days (%d)", p.MonthlyYears, p.DailyDays)
	}
	return nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// Cutoffs are the instants separating the tiers. An instant equal to a
// cutoff belongs to the newer tier.
type Cutoffs struct {
	Recent  time.Time
	Daily   time.Time
	Monthly time.Time
}

// Cutoffs computes the tier boundaries relative to now.
func (p Policy) Cutoffs(now time.Time) Cutoffs {
	now = now.In(p.location())
	return Cutoffs{
		Recent:  dates.DaysBefore(now, p.RecentDays),
		Daily:   dates.DaysBefore(now, p.DailyDays),
		Monthly: dates.DaysBefore(now, p.MonthlyYears*365),
	}
}
