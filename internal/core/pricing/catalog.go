package pricing

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultModel prices events whose model is unknown or undetected.
const DefaultModel = "claude-sonnet-4"

// Model is one catalog entry. Price is USD per million saved tokens.
type Model struct {
	ID              string
	DisplayName     string
	PricePerMillion decimal.Decimal
}

// Catalog maps model identifiers to display names and prices. It is safe for
// concurrent use.
type Catalog struct {
	mu           sync.RWMutex
	models       map[string]Model
	defaultModel string
}

// NewCatalog builds a catalog from models. defaultModel must be one of them.
func NewCatalog(defaultModel string, models ...Model) *Catalog {
	c := &Catalog{
		models:       make(map[string]Model, len(models)),
		defaultModel: defaultModel,
	}
	for _, m := range models {
		c.models[m.ID] = m
	}
	return c
}

// DefaultCatalog returns the built-in price table.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultModel,
		Model{ID: "claude-sonnet-4", DisplayName: "Claude Sonnet 4", PricePerMillion: decimal.RequireFromString("3.00")},
		Model{ID: "claude-opus-4", DisplayName: "Claude Opus 4", PricePerMillion: decimal.RequireFromString("15.00")},
		Model{ID: "claude-3-5-haiku", DisplayName: "Claude 3.5 Haiku", PricePerMillion: decimal.RequireFromString("0.80")},
		Model{ID: "gpt-4o", DisplayName: "GPT-4o", PricePerMillion: decimal.RequireFromString("2.50")},
		Model{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", PricePerMillion: decimal.RequireFromString("0.15")},
		Model{ID: "gpt-4.1", DisplayName: "GPT-4.1", PricePerMillion: decimal.RequireFromString("2.00")},
		Model{ID: "o1", DisplayName: "OpenAI o1", PricePerMillion: decimal.RequireFromString("15.00")},
	)
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id string) (Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[id]
	return m, ok
}

// Known reports whether id is in the catalog.
func (c *Catalog) Known(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Resolve returns the entry for id, or the default model's entry when id is
// not in the catalog.
func (c *Catalog) Resolve(id string) Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.models[id]; ok {
		return m
	}
	return c.models[c.defaultModel]
}

// Price returns the per-million price for id, falling back to the default
// model's price.
func (c *Catalog) Price(id string) decimal.Decimal {
	return c.Resolve(id).PricePerMillion
}

// DisplayName returns the human name for id, or id itself if unknown.
func (c *Catalog) DisplayName(id string) string {
	if m, ok := c.Lookup(id); ok && m.DisplayName != "" {
		return m.DisplayName
	}
	return id
}

// DefaultModelID returns the fallback model identifier.
func (c *Catalog) DefaultModelID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultModel
}

// Merge adds or replaces entries. An empty defaultModel leaves the current
// default in place; an unknown one is ignored.
func (c *Catalog) Merge(defaultModel string, models ...Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range models {
		c.models[m.ID] = m
	}
	if _, ok := c.models[defaultModel]; ok {
		c.defaultModel = defaultModel
	}
}

// Models lists all entries sorted by identifier.
func (c *Catalog) Models() []Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Model, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
