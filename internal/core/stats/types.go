package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentVersion is the version written by this engine. Documents without a
// version (or with the flat legacy shape) are migrated on load.
const DocumentVersion = 2

// Store is the single persisted document. Each event lives in exactly one of
// Recent, Daily or Monthly; Summary counts every event ever recorded and is
// never decremented.
type Store struct {
	Version int                  `json:"version"`
	Recent  []Event              `json:"recent"`
	Daily   map[string]Aggregate `json:"daily"`
	Monthly map[string]Aggregate `json:"monthly"`
	Summary Summary              `json:"summary"`

	LastCompaction *time.Time `json:"lastCompaction,omitempty"`
}

// Summary holds lifetime cumulative totals.
type Summary struct {
	TotalCompressions   int64 `json:"totalCompressions"`
	TotalOriginalSize   int64 `json:"totalOriginalSize"`
	TotalCompressedSize int64 `json:"totalCompressedSize"`
	TotalSaved          int64 `json:"totalSaved"`
}

// Aggregate is the shape shared by day and month buckets. No per-event
// detail survives aggregation; cost is carried so that per-model breakdowns
// remain answerable after compaction.
type Aggregate struct {
	Count          int64 `json:"count"`
	OriginalSize   int64 `json:"originalSize"`
	CompressedSize int64 `json:"compressedSize"`
	SavedAmount    int64 `json:"savedAmount"`

	CostSavingsUSD  decimal.Decimal        `json:"costSavingsUSD"`
	RecordsWithCost int64                  `json:"recordsWithCost"`
	Models          map[string]ModelTotals `json:"models,omitempty"`
}

// ModelTotals is the per-model cost slice of an aggregate.
type ModelTotals struct {
	Compressions   int64           `json:"compressions"`
	TokensSaved    int64           `json:"tokensSaved"`
	CostSavingsUSD decimal.Decimal `json:"costSavingsUSD"`
}

// Totals is a tier-independent sum used to check conservation.
type Totals struct {
	Count          int64
	OriginalSize   int64
	CompressedSize int64
	SavedAmount    int64
}

// LegacyDocument is the pre-tier flat shape: one unstructured list of events.
type LegacyDocument struct {
	Compressions []Event  `json:"compressions"`
	Summary      *Summary `json:"summary,omitempty"`
}
