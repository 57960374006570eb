package stats

import "github.com/shopspring/decimal"

// AddEvent folds one event into the aggregate.
func (a *Aggregate) AddEvent(e Event) {
	a.Count++
	a.OriginalSize += e.OriginalSize
	a.CompressedSize += e.CompressedSize
	a.SavedAmount += e.SavedAmount

	if !e.HasCost() {
		return
	}
	a.CostSavingsUSD = a.CostSavingsUSD.Add(*e.CostSavingsUSD)
	a.RecordsWithCost++

	if a.Models == nil {
		a.Models = make(map[string]ModelTotals)
	}
	m := a.Models[e.Model]
	m.Compressions++
	m.TokensSaved += e.SavedAmount
	m.CostSavingsUSD = m.CostSavingsUSD.Add(*e.CostSavingsUSD)
	a.Models[e.Model] = m
}

// Merge folds another aggregate into this one. Every field is a sum, so
// merging is associative and order-independent.
func (a *Aggregate) Merge(other Aggregate) {
	a.Count += other.Count
	a.OriginalSize += other.OriginalSize
	a.CompressedSize += other.CompressedSize
	a.SavedAmount += other.SavedAmount
	a.CostSavingsUSD = a.CostSavingsUSD.Add(other.CostSavingsUSD)
	a.RecordsWithCost += other.RecordsWithCost

	if len(other.Models) == 0 {
		return
	}
	if a.Models == nil {
		a.Models = make(map[string]ModelTotals, len(other.Models))
	}
	for model, incoming := range other.Models {
		current := a.Models[model]
		current.Compressions += incoming.Compressions
		current.TokensSaved += incoming.TokensSaved
		current.CostSavingsUSD = current.CostSavingsUSD.Add(incoming.CostSavingsUSD)
		a.Models[model] = current
	}
}

// Clone returns a copy that shares no map with the receiver.
func (a Aggregate) Clone() Aggregate {
	out := a
	if a.Models != nil {
		out.Models = make(map[string]ModelTotals, len(a.Models))
		for k, v := range a.Models {
			out.Models[k] = v
		}
	}
	return out
}

// RoundUSD applies the single cost precision used across the engine.
func RoundUSD(d decimal.Decimal) decimal.Decimal {
	return d.Round(USDPrecision)
}

// USDPrecision is the number of decimal places kept for USD amounts.
const USDPrecision = 6
