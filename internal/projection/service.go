package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aevon-lab/tokenledger/internal/core/pricing"
	"github.com/aevon-lab/tokenledger/internal/core/stats"
)

var (
	// ErrInvalidQuery marks parameters that cannot be interpreted.
	ErrInvalidQuery = errors.New("invalid stats query")

	// ErrOutOfRange is returned when RelativeDays is outside [1, 365].
	ErrOutOfRange = errors.New("relative days out of range")

	// ErrInvalidRange is returned when the start date is after the end date.
	ErrInvalidRange = errors.New("start date is after end date")
)

// StoreReader yields a snapshot of the persisted store.
type StoreReader interface {
	Read(ctx context.Context) (*stats.Store, error)
}

// Service answers range queries across all tiers.
type Service struct {
	reader   StoreReader
	catalog  *pricing.Catalog
	location *time.Location
	nowFn    func() time.Time
}

// NewService returns a query service. A nil catalog reports model IDs as
// display names; a nil location uses time.Local.
func NewService(reader StoreReader, catalog *pricing.Catalog, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		reader:   reader,
		catalog:  catalog,
		location: loc,
		nowFn:    time.Now,
	}
}

// Query reads the store and evaluates p against it. It never writes.
func (s *Service) Query(ctx context.Context, p Params) (*Result, error) {
	if s.reader == nil {
		return nil, errors.New("projection: no store reader configured")
	}
	// Validate before touching the store so bad input costs nothing.
	if _, err := s.resolveRange(p); err != nil {
		return nil, err
	}

	store, err := s.reader.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats store: %w", err)
	}
	return s.Evaluate(store, p)
}

// Evaluate answers p against an in-memory store.
func (s *Service) Evaluate(store *stats.Store, p Params) (*Result, error) {
	rng, err := s.resolveRange(p)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = stats.NewStore()
	}

	var total stats.Aggregate
	var included []stats.Event

	for _, e := range store.Recent {
		if rng.contains(e.Timestamp) {
			total.AddEvent(e)
			included = append(included, e)
		}
	}

	firstDay := stats.DayKey(rng.Start, s.location)
	lastDay := stats.DayKey(rng.End, s.location)
	for key, agg := range store.Daily {
		if key >= firstDay && key <= lastDay {
			total.Merge(agg)
		}
	}

	for key, agg := range store.Monthly {
		monthStart, err := stats.ParseMonthKey(key, s.location)
		if err != nil {
			slog.Warn("[Projection] skipping unreadable month key", "key", key, "error", err)
			continue
		}
		if rng.overlaps(monthStart, monthStart.AddDate(0, 1, 0)) {
			total.Merge(agg)
		}
	}

	res := &Result{Summary: s.summarize(rng, total)}
	if p.IncludeDetails {
		res.Details = newestFirst(included, detailLimit(p.Limit))
	}
	return res, nil
}

func (s *Service) summarize(rng timeRange, total stats.Aggregate) Summary {
	sum := Summary{
		PeriodLabel:         rng.Label,
		Start:               rng.Start,
		End:                 rng.End,
		TotalCompressions:   total.Count,
		TotalOriginalSize:   total.OriginalSize,
		TotalCompressedSize: total.CompressedSize,
		TotalSaved:          total.SavedAmount,
	}
	if total.OriginalSize > 0 {
		original := float64(total.OriginalSize)
		sum.AverageRatio = float64(total.CompressedSize) / original
		sum.AverageSavingsPercent = float64(total.SavedAmount) / original * 100
	}
	sum.Cost = s.costBreakdown(total)
	return sum
}

func (s *Service) costBreakdown(total stats.Aggregate) CostBreakdown {
	out := CostBreakdown{
		TotalCostSavingsUSD:       stats.RoundUSD(total.CostSavingsUSD),
		AverageCostPerCompression: decimal.Zero,
		RecordsWithCost:           total.RecordsWithCost,
		RecordsWithoutCost:        total.Count - total.RecordsWithCost,
		ModelBreakdown:            make([]ModelCost, 0, len(total.Models)),
	}
	if out.RecordsWithoutCost < 0 {
		out.RecordsWithoutCost = 0
	}
	if total.RecordsWithCost > 0 {
		out.AverageCostPerCompression = stats.RoundUSD(
			total.CostSavingsUSD.Div(decimal.NewFromInt(total.RecordsWithCost)),
		)
	}

	for model, m := range total.Models {
		out.ModelBreakdown = append(out.ModelBreakdown, ModelCost{
			Model:          model,
			ModelName:      s.displayName(model),
			Compressions:   m.Compressions,
			TokensSaved:    m.TokensSaved,
			CostSavingsUSD: stats.RoundUSD(m.CostSavingsUSD),
		})
	}
	sort.Slice(out.ModelBreakdown, func(i, j int) bool {
		a, b := out.ModelBreakdown[i], out.ModelBreakdown[j]
		if c := a.CostSavingsUSD.Cmp(b.CostSavingsUSD); c != 0 {
			return c > 0
		}
		return a.Model < b.Model
	})
	return out
}

func (s *Service) displayName(model string) string {
	if s.catalog == nil {
		return model
	}
	return s.catalog.DisplayName(model)
}

func (s *Service) now() time.Time {
	return s.nowFn().In(s.location)
}

func detailLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultDetailLimit
	case limit > MaxDetailLimit:
		return MaxDetailLimit
	default:
		return limit
	}
}

func newestFirst(events []stats.Event, limit int) []stats.Event {
	out := make([]stats.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
