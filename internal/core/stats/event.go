package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidSize is returned when a token count is negative.
var ErrInvalidSize = errors.New("invalid token size")

// CurrencyUSD is the only currency cost accounting is done in.
const CurrencyUSD = "USD"

// Event is one completed compression operation. It is the finest-grain
// record and only ever lives in the recent tier.
type Event struct {
	// ID is assigned at record time. Legacy records have none.
	ID string `json:"id,omitempty"`

	Timestamp      time.Time `json:"timestamp"`
	Path           string    `json:"path"`
	OriginalSize   int64     `json:"originalSize"`
	CompressedSize int64     `json:"compressedSize"`
	SavedAmount    int64     `json:"savedAmount"`
	Ratio          float64   `json:"ratio"`
	SavingsPercent float64   `json:"savingsPercent"`
	Level          string    `json:"level"`
	Format         string    `json:"format"`

	// Estimated is set when OriginalSize was derived from a level multiplier
	// instead of being measured.
	Estimated bool `json:"estimated,omitempty"`

	// Cost fields are either all set or all empty.
	Model                string           `json:"model,omitempty"`
	Client               string           `json:"client,omitempty"`
	PricePerMillionUnits *decimal.Decimal `json:"pricePerMillionUnits,omitempty"`
	CostSavingsUSD       *decimal.Decimal `json:"costSavingsUSD,omitempty"`
	Currency             string           `json:"currency,omitempty"`
}

// NewEvent builds an event and fills in the derived fields.
func NewEvent(ts time.Time, path string, originalSize, compressedSize int64, level, format string) Event {
	e := Event{
		Timestamp:      ts,
		Path:           path,
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Level:          level,
		Format:         format,
	}
	e.derive()
	return e
}

func (e *Event) derive() {
	e.SavedAmount = e.OriginalSize - e.CompressedSize
	if e.OriginalSize == 0 {
		e.Ratio = 0
		e.SavingsPercent = 0
		return
	}
	e.Ratio = float64(e.CompressedSize) / float64(e.OriginalSize)
	e.SavingsPercent = float64(e.SavedAmount) / float64(e.OriginalSize) * 100
}

// AttachCost sets every cost field at once.
func (e *Event) AttachCost(model, client string, pricePerMillion, costUSD decimal.Decimal) {
	price := pricePerMillion
	cost := costUSD
	e.Model = model
	e.Client = client
	e.PricePerMillionUnits = &price
	e.CostSavingsUSD = &cost
	e.Currency = CurrencyUSD
}

// HasCost reports whether the event participates in cost accounting.
func (e Event) HasCost() bool {
	return e.CostSavingsUSD != nil && e.Model != ""
}

// Validate ensures the event is internally consistent.
func (e *Event) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if e.OriginalSize < 0 {
		return fmt.Errorf("%w: originalSize %d", ErrInvalidSize, e.OriginalSize)
	}
	if e.CompressedSize < 0 {
		return fmt.Errorf("%w: compressedSize %d", ErrInvalidSize, e.CompressedSize)
	}
	if e.SavedAmount != e.OriginalSize-e.CompressedSize {
		return fmt.Errorf("savedAmount %d does not match originalSize-compressedSize", e.SavedAmount)
	}

	costFields := 0
	if e.Model != "" {
		costFields++
	}
	if e.PricePerMillionUnits != nil {
		costFields++
	}
	if e.CostSavingsUSD != nil {
		costFields++
	}
	if costFields != 0 && costFields != 3 {
		return fmt.Errorf("cost fields must be all present or all absent")
	}

	return nil
}

// timestampLayouts are tried in order when decoding stored timestamps.
// Layouts without a zone are interpreted in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// UnmarshalJSON decodes an event without failing on a malformed timestamp.
// An unreadable timestamp decodes to the zero instant, which compaction
// treats as older than every tier.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Timestamp = parseTimestamp(aux.Timestamp)
	return nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
