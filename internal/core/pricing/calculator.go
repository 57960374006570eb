package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for a negative, NaN or infinite token amount.
var ErrInvalidAmount = errors.New("invalid token amount")

// MaxAmount caps the token amount priced in one call.
const MaxAmount = 1e12

// USDPrecision is the number of decimal places kept in computed costs.
const USDPrecision = 6

var million = decimal.NewFromInt(1_000_000)

// CostResult is the cost attribution for one event.
type CostResult struct {
	CostSavingsUSD       decimal.Decimal
	Model                string
	Client               string
	PricePerMillionUnits decimal.Decimal
}

// Calculator prices saved tokens against a catalog.
type Calculator struct {
	Catalog  *Catalog
	Detector *Detector
}

// NewCalculator returns a calculator using the given catalog and detector.
func NewCalculator(catalog *Catalog, detector *Detector) *Calculator {
	return &Calculator{Catalog: catalog, Detector: detector}
}

// Cost computes saved/1e6 × price. An empty model uses the detected one; an
// unknown model is priced at the default model's rate. The detected client is
// always reported.
func (c *Calculator) Cost(saved float64, model string) (CostResult, error) {
	if math.IsNaN(saved) || math.IsInf(saved, 0) || saved < 0 {
		return CostResult{}, fmt.Errorf("%w: %v", ErrInvalidAmount, saved)
	}
	if saved > MaxAmount {
		saved = MaxAmount
	}

	res := c.Attribution(model)
	res.CostSavingsUSD = decimal.NewFromFloat(saved).
		Div(million).
		Mul(res.PricePerMillionUnits).
		Round(USDPrecision)
	return res, nil
}

// Attribution returns a zero-cost result carrying the model, client and
// price that a cost for model would have used.
func (c *Calculator) Attribution(model string) CostResult {
	det := Detection{Client: ClientUnknown, Model: c.Catalog.DefaultModelID()}
	if c.Detector != nil {
		det = c.Detector.Detect()
	}
	if model == "" {
		model = det.Model
	}
	entry := c.Catalog.Resolve(model)
	return CostResult{
		CostSavingsUSD:       decimal.Zero,
		Model:                entry.ID,
		Client:               det.Client,
		PricePerMillionUnits: entry.PricePerMillion,
	}
}
