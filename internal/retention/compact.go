package retention

import (
	"log/slog"
	"sort"
	"time"

	"github.com/aevon-lab/tokenledger/internal/core/stats"
)

// Report describes what one compaction pass moved.
type Report struct {
	KeptRecent    int
	EventsToDaily int
	EventsToMonth int
	DaysRolledUp  int
	MonthsPruned  int
	EventsPruned  int64 // events counted by the pruned month aggregates
	BadTimestamps int

	RecentCutoff  time.Time
	DailyCutoff   time.Time
	MonthlyCutoff time.Time
	CompactedAt   time.Time
}

// Changed reports whether any entry moved tier or was pruned.
func (r Report) Changed() bool {
	return r.EventsToDaily > 0 || r.EventsToMonth > 0 || r.DaysRolledUp > 0 || r.MonthsPruned > 0
}

// Compact returns a copy of store with every entry placed in the tier its
// age dictates and expired months removed. The input is not modified and the
// lifetime summary is carried over unchanged.
//
// Placement depends only on timestamps and keys compared against cutoffs
// computed from now, so compacting an already-compacted store with the same
// now is a no-op.
func (p Policy) Compact(store *stats.Store, now time.Time) (*stats.Store, Report) {
	var out *stats.Store
	if store == nil {
		out = stats.NewStore()
	} else {
		out = store.Clone()
		out.Normalize()
	}

	loc := p.location()
	cut := p.Cutoffs(now)
	rep := Report{
		RecentCutoff:  cut.Recent,
		DailyCutoff:   cut.Daily,
		MonthlyCutoff: cut.Monthly,
		CompactedAt:   now,
	}

	kept := make([]stats.Event, 0, len(out.Recent))
	for _, e := range out.Recent {
		switch {
		case e.Timestamp.IsZero():
			// Unreadable timestamps are treated as older than every tier.
			rep.BadTimestamps++
			foldInto(out.Monthly, stats.MonthKey(e.Timestamp, loc), e)
			rep.EventsToMonth++
		case !e.Timestamp.Before(cut.Recent):
			kept = append(kept, e)
		case !e.Timestamp.Before(cut.Daily):
			foldInto(out.Daily, stats.DayKey(e.Timestamp, loc), e)
			rep.EventsToDaily++
		default:
			foldInto(out.Monthly, stats.MonthKey(e.Timestamp, loc), e)
			rep.EventsToMonth++
		}
	}
	out.Recent = kept
	rep.KeptRecent = len(kept)

	dailyKey := stats.DayKey(cut.Daily, loc)
	for _, key := range sortedKeys(out.Daily) {
		if key >= dailyKey {
			continue
		}
		month := stats.MonthKeyOfDay(key)
		agg := out.Monthly[month]
		agg.Merge(out.Daily[key])
		out.Monthly[month] = agg
		delete(out.Daily, key)
		rep.DaysRolledUp++
	}

	monthlyKey := stats.MonthKey(cut.Monthly, loc)
	for _, key := range sortedKeys(out.Monthly) {
		if key >= monthlyKey {
			continue
		}
		rep.EventsPruned += out.Monthly[key].Count
		delete(out.Monthly, key)
		rep.MonthsPruned++
	}

	if rep.BadTimestamps > 0 {
		slog.Warn("[Retention] events with unreadable timestamps treated as expired",
			"count", rep.BadTimestamps,
		)
	}

	ts := now
	out.LastCompaction = &ts
	return out, rep
}

func foldInto(tier map[string]stats.Aggregate, key string, e stats.Event) {
	agg := tier[key]
	agg.AddEvent(e)
	tier[key] = agg
}

func sortedKeys(m map[string]stats.Aggregate) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
