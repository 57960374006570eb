package pricing

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the result of loading a catalog extension file.
type CatalogFile struct {
	DefaultModel string
	Models       []Model
	Fingerprint  string // SHA-256 of the raw YAML; lets callers log which price sheet is active
}

// rawCatalogFile is the on-disk YAML shape.
type rawCatalogFile struct {
	DefaultModel string     `yaml:"default_model"`
	Models       []rawModel `yaml:"models"`
}

type rawModel struct {
	ID              string `yaml:"id"`
	DisplayName     string `yaml:"display_name"`
	PricePerMillion string `yaml:"price_per_million"`
}

// LoadCatalogFile reads extra or replacement catalog entries from a YAML file:
//
//	default_model: claude-sonnet-4
//	models:
//	  - id: my-finetune
//	    display_name: My Finetune
//	    price_per_million: "4.20"
//
// Unlike the override file, a broken catalog file is a configuration error.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	var raw rawCatalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}

	out := &CatalogFile{
		DefaultModel: strings.TrimSpace(raw.DefaultModel),
		Fingerprint:  fmt.Sprintf("%x", sha256.Sum256(data)),
	}
	seen := make(map[string]struct{}, len(raw.Models))
	for i, rm := range raw.Models {
		id := strings.TrimSpace(rm.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog file %s: model #%d: id must not be empty", path, i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("catalog file %s: duplicate model %q", path, id)
		}
		seen[id] = struct{}{}

		price, err := decimal.NewFromString(strings.TrimSpace(rm.PricePerMillion))
		if err != nil {
			return nil, fmt.Errorf("catalog file %s: model %q: invalid price_per_million %q: %w", path, id, rm.PricePerMillion, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("catalog file %s: model %q: price_per_million must not be negative", path, id)
		}

		name := rm.DisplayName
		if name == "" {
			name = id
		}
		out.Models = append(out.Models, Model{ID: id, DisplayName: name, PricePerMillion: price})
	}
	return out, nil
}

// Apply merges the file's entries into c.
func (f *CatalogFile) Apply(c *Catalog) {
	c.Merge(f.DefaultModel, f.Models...)
}
