package retention

import (
	"log/slog"
	"time"

	"github.com/aevon-lab/tokenledger/internal/core/stats"
)

// MigrateLegacy builds a tiered store from the flat pre-tier shape. The
// lifetime summary is taken from the legacy document when it has one and
// recomputed from its events otherwise.
func (p Policy) MigrateLegacy(legacy stats.LegacyDocument, now time.Time) *stats.Store {
	flat := stats.NewStore()
	flat.Recent = append(flat.Recent, legacy.Compressions...)
	if legacy.Summary != nil {
		flat.Summary = *legacy.Summary
	} else {
		flat.Summary = stats.SummaryFromEvents(legacy.Compressions)
	}

	out, rep := p.Compact(flat, now)
	slog.Info("[Retention] migrated legacy store",
		"events", len(legacy.Compressions),
		"recent", rep.KeptRecent,
		"daily_keys", len(out.Daily),
		"monthly_keys", len(out.Monthly),
		"pruned_months", rep.MonthsPruned,
	)
	return out
}
