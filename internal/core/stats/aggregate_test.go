package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func costedEvent(model string, saved int64, cost string) Event {
	e := NewEvent(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC), "f.go", saved*2, saved, "full", "text")
	e.AttachCost(model, "test", decimal.NewFromInt(3), decimal.RequireFromString(cost))
	return e
}

func TestAggregate_AddEvent(t *testing.T) {
	var agg Aggregate

	agg.AddEvent(costedEvent("claude-sonnet-4", 100, "0.0003"))
	agg.AddEvent(costedEvent("claude-sonnet-4", 50, "0.00015"))
	agg.AddEvent(NewEvent(time.Now(), "legacy.go", 80, 20, "full", "text"))

	require.Equal(t, int64(3), agg.Count)
	require.Equal(t, int64(380), agg.OriginalSize)
	require.Equal(t, int64(170), agg.CompressedSize)
	require.Equal(t, int64(210), agg.SavedAmount)
	require.Equal(t, int64(2), agg.RecordsWithCost)
	require.Equal(t, "0.00045", agg.CostSavingsUSD.String())

	sonnet := agg.Models["claude-sonnet-4"]
	require.Equal(t, int64(2), sonnet.Compressions)
	require.Equal(t, int64(150), sonnet.TokensSaved)
	require.Len(t, agg.Models, 1)
}

func TestAggregate_MergeIsOrderIndependent(t *testing.T) {
	var a, b Aggregate
	a.AddEvent(costedEvent("gpt-4o", 10, "0.1"))
	b.AddEvent(costedEvent("claude-sonnet-4", 20, "0.2"))
	b.AddEvent(costedEvent("gpt-4o", 30, "0.3"))

	ab := a.Clone()
	ab.Merge(b)
	ba := b.Clone()
	ba.Merge(a)

	require.Equal(t, ab.Count, ba.Count)
	require.Equal(t, ab.SavedAmount, ba.SavedAmount)
	require.True(t, ab.CostSavingsUSD.Equal(ba.CostSavingsUSD))
	require.Equal(t, int64(2), ab.Models["gpt-4o"].Compressions)
	require.Equal(t, "0.4", ab.Models["gpt-4o"].CostSavingsUSD.String())

	// Clone must not share the models map with the original.
	require.Len(t, a.Models, 1)
}

func TestStore_AppendAndTotals(t *testing.T) {
	s := NewStore()
	s.Append(NewEvent(time.Now(), "a", 100, 40, "full", "text"))
	s.Append(NewEvent(time.Now(), "b", 50, 10, "minimal", "text"))
	s.Daily["2025-01-01"] = Aggregate{Count: 2, OriginalSize: 10, CompressedSize: 4, SavedAmount: 6}
	s.Monthly["2024-06"] = Aggregate{Count: 1, OriginalSize: 5, CompressedSize: 5}

	totals := s.Totals()
	require.Equal(t, int64(5), totals.Count)
	require.Equal(t, int64(165), totals.OriginalSize)
	require.Equal(t, int64(106), totals.SavedAmount)

	require.Equal(t, int64(2), s.Summary.TotalCompressions)
	require.Equal(t, int64(100), s.Summary.TotalSaved)

	clone := s.Clone()
	clone.Recent[0].Path = "changed"
	require.Equal(t, "a", s.Recent[0].Path)
}

func TestKeys(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ts := time.Date(2025, 1, 31, 20, 0, 0, 0, time.UTC)

	require.Equal(t, "2025-02-01", DayKey(ts, loc))
	require.Equal(t, "2025-02", MonthKey(ts, loc))
	require.Equal(t, "2025-02", MonthKeyOfDay("2025-02-01"))

	day, err := ParseDayKey("2025-02-01", loc)
	require.NoError(t, err)
	require.True(t, time.Date(2025, 2, 1, 0, 0, 0, 0, loc).Equal(day))

	_, err = ParseMonthKey("2025-13", loc)
	require.Error(t, err)
}

func TestEstimateOriginalSize(t *testing.T) {
	tests := []struct {
		level string
		want  int64
	}{
		{level: "minimal", want: 1000},
		{level: "signatures", want: 600},
		{level: "full", want: 400},
		{level: "FULL", want: 400},
		{level: "aggressive", want: 400},
		{level: "", want: 400},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			require.Equal(t, tc.want, EstimateOriginalSize(tc.level, 100))
		})
	}
}
