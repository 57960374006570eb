package retention

import (
	"context"
	"log/slog"
	"time"
)

// Compactor runs one compaction pass against persisted state.
type Compactor interface {
	Compact(ctx context.Context) (Report, error)
}

// Scheduler runs compaction on a fixed interval. Compaction also runs on
// every write, so the scheduler only matters for long idle periods where
// entries age across a boundary without new events arriving.
type Scheduler struct {
	interval  time.Duration
	compactor Compactor
}

// NewScheduler creates a periodic compaction scheduler.
func NewScheduler(interval time.Duration, compactor Compactor) *Scheduler {
	return &Scheduler{interval: interval, compactor: compactor}
}

// Start runs one pass immediately, then one per tick, and a final pass on
// shutdown. Runs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting compaction scheduler", "interval", s.interval)

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			slog.Info("[Scheduler] Running final compaction before shutdown...")
			s.runOnce(shutdownCtx)
			slog.Info("[Scheduler] Final compaction complete")

			return nil
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	rep, err := s.compactor.Compact(ctx)
	if err != nil {
		slog.Error("[Scheduler] Compaction failed", "error", err)
		return
	}
	if !rep.Changed() {
		slog.Debug("[Scheduler] Compaction pass made no changes")
		return
	}
	slog.Info("[Scheduler] Compaction pass complete",
		"to_daily", rep.EventsToDaily,
		"to_monthly", rep.EventsToMonth,
		"days_rolled_up", rep.DaysRolledUp,
		"months_pruned", rep.MonthsPruned,
	)
}
