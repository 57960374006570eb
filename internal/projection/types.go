package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aevon-lab/tokenledger/internal/core/stats"
)

// Named presets accepted in Params.Period.
const (
	PeriodAll   = "all"
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

const (
	MinRelativeDays = 1
	MaxRelativeDays = 365

	DefaultDetailLimit = 10
	MaxDetailLimit     = 100
)

// Params selects the range and shape of a query. Range fields are applied in
// priority order: RelativeDays, then StartDate/EndDate, then Period.
type Params struct {
	RelativeDays *int   `json:"relativeDays,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Period       string `json:"period,omitempty"`

	IncludeDetails bool `json:"includeDetails,omitempty"`
	Limit          int  `json:"limit,omitempty"`
}

// Result is the answer to a query.
type Result struct {
	Summary Summary       `json:"summary"`
	Details []stats.Event `json:"details,omitempty"`
}

// Summary holds totals for the resolved range.
type Summary struct {
	PeriodLabel string    `json:"periodLabel"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`

	TotalCompressions   int64 `json:"totalCompressions"`
	TotalOriginalSize   int64 `json:"totalOriginalSize"`
	TotalCompressedSize int64 `json:"totalCompressedSize"`
	TotalSaved          int64 `json:"totalSaved"`

	// Weighted by token totals, not averaged per event.
	AverageRatio          float64 `json:"averageRatio"`
	AverageSavingsPercent float64 `json:"averageSavingsPercent"`

	Cost CostBreakdown `json:"cost"`
}

// CostBreakdown covers entries that carry cost fields.
type CostBreakdown struct {
	TotalCostSavingsUSD       decimal.Decimal `json:"totalCostSavingsUSD"`
	AverageCostPerCompression decimal.Decimal `json:"averageCostPerCompression"`
	RecordsWithCost           int64           `json:"recordsWithCost"`
	RecordsWithoutCost        int64           `json:"recordsWithoutCost"`
	ModelBreakdown            []ModelCost     `json:"modelBreakdown"`
}

// ModelCost is one row of the per-model breakdown.
type ModelCost struct {
	Model          string          `json:"model"`
	ModelName      string          `json:"modelName"`
	Compressions   int64           `json:"compressions"`
	TokensSaved    int64           `json:"tokensSaved"`
	CostSavingsUSD decimal.Decimal `json:"costSavingsUSD"`
}
