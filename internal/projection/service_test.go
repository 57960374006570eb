package projection

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/tokenledger/internal/core/dates"
	"github.com/aevon-lab/tokenledger/internal/core/pricing"
	"github.com/aevon-lab/tokenledger/internal/core/stats"
	"github.com/aevon-lab/tokenledger/internal/core/storage"
	"github.com/aevon-lab/tokenledger/internal/core/storage/file"
	"github.com/aevon-lab/tokenledger/internal/retention"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func newTestService(reader StoreReader) *Service {
	svc := NewService(reader, pricing.DefaultCatalog(), time.UTC)
	svc.nowFn = func() time.Time { return testNow }
	return svc
}

func eventDaysAgo(days int, original, compressed int64) stats.Event {
	return stats.NewEvent(testNow.AddDate(0, 0, -days), fmt.Sprintf("f%d.go", days), original, compressed, "full", "text")
}

func costedEvent(days int, original, compressed int64, model, cost string) stats.Event {
	e := eventDaysAgo(days, original, compressed)
	e.AttachCost(model, pricing.ClientUnknown, decimal.RequireFromString("3"), decimal.RequireFromString(cost))
	return e
}

func storeWith(events ...stats.Event) *stats.Store {
	s := stats.NewStore()
	for _, e := range events {
		s.Append(e)
	}
	return s
}

func TestService_RelativeDaysFiltersRecent(t *testing.T) {
	svc := newTestService(nil)
	store := storeWith(
		eventDaysAgo(1, 1000, 250),
		eventDaysAgo(28, 1000, 200),
	)

	res, err := svc.Evaluate(store, Params{RelativeDays: intPtr(3)})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Summary.TotalCompressions)
	require.Equal(t, int64(750), res.Summary.TotalSaved)
	require.Equal(t, "Last 3 days", res.Summary.PeriodLabel)
	require.Nil(t, res.Details)
}

func TestService_QueryOutOfRangeLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.json")
	fs := file.New(path)
	handle := storage.NewHandle(fs, retention.DefaultPolicy())

	_, err := handle.Update(ctx, func(s *stats.Store) error {
		s.Append(eventDaysAgo(1, 1000, 250))
		return nil
	})
	require.NoError(t, err)
	before, beforeRev, err := fs.Load(ctx)
	require.NoError(t, err)

	svc := newTestService(handle)
	for _, days := range []int{400, 0, -1, 366} {
		_, err = svc.Query(ctx, Params{RelativeDays: intPtr(days)})
		require.ErrorIs(t, err, ErrOutOfRange, "days=%d", days)
	}

	after, afterRev, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, beforeRev, afterRev)
	require.Equal(t, string(before), string(after))
}

func TestService_QueryReadsThroughHandle(t *testing.T) {
	ctx := context.Background()
	handle := storage.NewHandle(file.New(filepath.Join(t.TempDir(), "stats.json")), retention.DefaultPolicy())
	_, err := handle.Update(ctx, func(s *stats.Store) error {
		s.Append(eventDaysAgo(0, 400, 100))
		s.Append(eventDaysAgo(2, 400, 100))
		return nil
	})
	require.NoError(t, err)

	res, err := newTestService(handle).Query(ctx, Params{Period: PeriodWeek})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Summary.TotalCompressions)
	require.Equal(t, "Last 7 days", res.Summary.PeriodLabel)
}

func TestService_RangeErrors(t *testing.T) {
	svc := newTestService(nil)
	store := storeWith(eventDaysAgo(1, 10, 5))

	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{
			name:    "start after end",
			params:  Params{StartDate: "2025-02-01", EndDate: "2025-01-01"},
			wantErr: ErrInvalidRange,
		},
		{
			name:    "range entirely in the future",
			params:  Params{StartDate: "2025-06-20", EndDate: "2025-06-30"},
			wantErr: ErrInvalidRange,
		},
		{
			name:    "future start without end",
			params:  Params{StartDate: "2025-06-20"},
			wantErr: ErrInvalidRange,
		},
		{
			name:    "malformed start",
			params:  Params{StartDate: "last tuesday"},
			wantErr: dates.ErrMalformedDate,
		},
		{
			name:    "malformed end",
			params:  Params{StartDate: "-7d", EndDate: "-7"},
			wantErr: dates.ErrMalformedDate,
		},
		{
			name:    "unknown period",
			params:  Params{Period: "fortnight"},
			wantErr: ErrInvalidQuery,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Evaluate(store, tc.params)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestService_RelativeDaysTakesPriority(t *testing.T) {
	svc := newTestService(nil)
	store := storeWith(
		eventDaysAgo(2, 100, 50),
		eventDaysAgo(20, 100, 50),
	)

	plain, err := svc.Evaluate(store, Params{RelativeDays: intPtr(7)})
	require.NoError(t, err)
	mixed, err := svc.Evaluate(store, Params{RelativeDays: intPtr(7), Period: PeriodAll, StartDate: "2020-01-01"})
	require.NoError(t, err)
	all, err := svc.Evaluate(store, Params{Period: PeriodAll})
	require.NoError(t, err)

	require.Equal(t, plain.Summary.TotalCompressions, mixed.Summary.TotalCompressions)
	require.Equal(t, plain.Summary.PeriodLabel, mixed.Summary.PeriodLabel)
	require.Equal(t, int64(1), mixed.Summary.TotalCompressions)
	require.Equal(t, int64(2), all.Summary.TotalCompressions)
	require.Equal(t, "All time", all.Summary.PeriodLabel)
}

func TestService_Presets(t *testing.T) {
	svc := newTestService(nil)
	store := storeWith(
		stats.NewEvent(time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC), "today.go", 10, 5, "full", "text"),
		stats.NewEvent(time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC), "yesterday.go", 10, 5, "full", "text"),
		eventDaysAgo(20, 10, 5),
	)

	tests := []struct {
		period    string
		wantCount int64
		wantLabel string
	}{
		{period: "", wantCount: 3, wantLabel: "All time"},
		{period: "TODAY", wantCount: 1, wantLabel: "Today"},
		{period: "week", wantCount: 2, wantLabel: "Last 7 days"},
		{period: "month", wantCount: 3, wantLabel: "Last 30 days"},
	}
	for _, tc := range tests {
		t.Run(tc.wantLabel, func(t *testing.T) {
			res, err := svc.Evaluate(store, Params{Period: tc.period})
			require.NoError(t, err)
			require.Equal(t, tc.wantCount, res.Summary.TotalCompressions)
			require.Equal(t, tc.wantLabel, res.Summary.PeriodLabel)
		})
	}
}

func TestService_ExplicitRangeAcrossTiers(t *testing.T) {
	svc := newTestService(nil)
	store := storeWith(eventDaysAgo(1, 100, 40))
	store.Daily["2025-06-01"] = stats.Aggregate{Count: 2, OriginalSize: 200, CompressedSize: 100, SavedAmount: 100}
	store.Daily["2025-06-02"] = stats.Aggregate{Count: 4, OriginalSize: 400, CompressedSize: 200, SavedAmount: 200}
	store.Monthly["2025-03"] = stats.Aggregate{Count: 5, OriginalSize: 500, CompressedSize: 250, SavedAmount: 250}
	store.Monthly["2025-02"] = stats.Aggregate{Count: 7, OriginalSize: 700, CompressedSize: 350, SavedAmount: 350}
	store.Monthly["garbage"] = stats.Aggregate{Count: 100}

	res, err := svc.Evaluate(store, Params{StartDate: "2025-03-31", EndDate: "2025-06-01"})
	require.NoError(t, err)

	// March overlaps on its last day; June 1st counts as a whole day.
	require.Equal(t, int64(7), res.Summary.TotalCompressions)
	require.Equal(t, int64(350), res.Summary.TotalSaved)
	require.Equal(t, "2025-03-31 to 2025-06-01", res.Summary.PeriodLabel)
	require.InDelta(t, 0.5, res.Summary.AverageRatio, 1e-9)
	require.InDelta(t, 50.0, res.Summary.AverageSavingsPercent, 1e-9)
}

func TestService_EndIsClampedToNow(t *testing.T) {
	svc := newTestService(nil)
	store := storeWith(eventDaysAgo(1, 10, 5))

	res, err := svc.Evaluate(store, Params{StartDate: "-7d", EndDate: "2030-01-01"})
	require.NoError(t, err)
	require.True(t, testNow.Equal(res.Summary.End))
	require.Equal(t, int64(1), res.Summary.TotalCompressions)

	res, err = svc.Evaluate(store, Params{StartDate: "2025-06-10"})
	require.NoError(t, err)
	require.Equal(t, "Since 2025-06-10", res.Summary.PeriodLabel)
	require.Equal(t, int64(1), res.Summary.TotalCompressions)
}

func TestService_WeightedAverages(t *testing.T) {
	svc := newTestService(nil)
	store := storeWith(
		eventDaysAgo(1, 1000, 250),
		eventDaysAgo(2, 100, 90),
	)

	res, err := svc.Evaluate(store, Params{})
	require.NoError(t, err)
	require.InDelta(t, 340.0/1100.0, res.Summary.AverageRatio, 1e-9)
	require.InDelta(t, 760.0/1100.0*100, res.Summary.AverageSavingsPercent, 1e-9)

	empty, err := svc.Evaluate(stats.NewStore(), Params{})
	require.NoError(t, err)
	require.Zero(t, empty.Summary.AverageRatio)
	require.Zero(t, empty.Summary.AverageSavingsPercent)
	require.True(t, empty.Summary.Cost.AverageCostPerCompression.IsZero())
	require.Empty(t, empty.Summary.Cost.ModelBreakdown)
}

func TestService_CostBreakdown(t *testing.T) {
	svc := newTestService(nil)
	store := storeWith(
		costedEvent(1, 2000, 1000, "claude-sonnet-4", "0.003"),
		costedEvent(2, 2000, 1000, "claude-sonnet-4", "0.003"),
		costedEvent(3, 5000, 1000, "gpt-4o", "0.01"),
		eventDaysAgo(4, 100, 50),
	)
	var daily stats.Aggregate
	daily.AddEvent(costedEvent(40, 1000, 0, "mystery-model", "0.001"))
	store.Daily[stats.DayKey(testNow.AddDate(0, 0, -40), time.UTC)] = daily

	res, err := svc.Evaluate(store, Params{})
	require.NoError(t, err)

	cost := res.Summary.Cost
	require.Equal(t, "0.017", cost.TotalCostSavingsUSD.String())
	require.Equal(t, "0.00425", cost.AverageCostPerCompression.String())
	require.Equal(t, int64(4), cost.RecordsWithCost)
	require.Equal(t, int64(1), cost.RecordsWithoutCost)

	require.Len(t, cost.ModelBreakdown, 3)
	require.Equal(t, "gpt-4o", cost.ModelBreakdown[0].Model)
	require.Equal(t, "GPT-4o", cost.ModelBreakdown[0].ModelName)
	require.Equal(t, "claude-sonnet-4", cost.ModelBreakdown[1].Model)
	require.Equal(t, "Claude Sonnet 4", cost.ModelBreakdown[1].ModelName)
	require.Equal(t, int64(2), cost.ModelBreakdown[1].Compressions)
	require.Equal(t, int64(2000), cost.ModelBreakdown[1].TokensSaved)
	require.Equal(t, "0.006", cost.ModelBreakdown[1].CostSavingsUSD.String())
	require.Equal(t, "mystery-model", cost.ModelBreakdown[2].ModelName)
}

func TestService_Details(t *testing.T) {
	svc := newTestService(nil)
	var events []stats.Event
	for i := 0; i < 15; i++ {
		events = append(events, eventDaysAgo(i, 10, 5))
	}
	store := storeWith(events...)

	res, err := svc.Evaluate(store, Params{IncludeDetails: true})
	require.NoError(t, err)
	require.Len(t, res.Details, DefaultDetailLimit)
	for i := 1; i < len(res.Details); i++ {
		require.True(t, res.Details[i-1].Timestamp.After(res.Details[i].Timestamp))
	}
	require.Equal(t, "f0.go", res.Details[0].Path)

	res, err = svc.Evaluate(store, Params{IncludeDetails: true, Limit: 500})
	require.NoError(t, err)
	require.Len(t, res.Details, 15)

	res, err = svc.Evaluate(store, Params{IncludeDetails: true, Limit: 3, RelativeDays: intPtr(5)})
	require.NoError(t, err)
	require.Len(t, res.Details, 3)
	require.Equal(t, int64(6), res.Summary.TotalCompressions)

	// Detail order must not leak into the stored slice.
	require.Equal(t, "f0.go", store.Recent[0].Path)
}

func TestDetailLimit(t *testing.T) {
	require.Equal(t, DefaultDetailLimit, detailLimit(0))
	require.Equal(t, DefaultDetailLimit, detailLimit(-4))
	require.Equal(t, 42, detailLimit(42))
	require.Equal(t, MaxDetailLimit, detailLimit(101))
}
