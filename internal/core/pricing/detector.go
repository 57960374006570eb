package pricing

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Client identifiers reported by detection.
const (
	ClientOverride  = "config-override"
	ClientDesktop   = "claude-desktop"
	ClientCode      = "claude-code"
	ClientCursor    = "cursor"
	ClientVSCode    = "vscode"
	ClientAnthropic = "anthropic-api"
	ClientOpenAI    = "openai-api"
	ClientUnknown   = "unknown"
)

// Detection is the client and model that costs are attributed to.
type Detection struct {
	Client string
	Model  string
}

// Strategy is one step of the detection chain. It reports ok=false to pass
// control to the next step; strategies never fail.
type Strategy func() (Detection, bool)

// LookupEnv matches os.LookupEnv so tests can supply a fake environment.
type LookupEnv func(key string) (string, bool)

// DetectionCache memoizes one detection result. The zero value is empty and
// ready to use.
type DetectionCache struct {
	mu    sync.RWMutex
	value *Detection
	gen   uint64
	group singleflight.Group // dedupes concurrent recomputation
}

const detectionKey = "detect"

// Get returns the cached detection, computing it on first use. compute runs
// outside the lock; a Reset that lands while it runs discards its result.
func (c *DetectionCache) Get(compute func() Detection) Detection {
	c.mu.RLock()
	if c.value != nil {
		d := *c.value
		c.mu.RUnlock()
		return d
	}
	gen := c.gen
	c.mu.RUnlock()

	result, _, _ := c.group.Do(detectionKey, func() (interface{}, error) {
		c.mu.RLock()
		if c.value != nil {
			d := *c.value
			c.mu.RUnlock()
			return d, nil
		}
		c.mu.RUnlock()

		d := compute()

		c.mu.Lock()
		if c.gen == gen {
			c.value = &d
		}
		c.mu.Unlock()

		return d, nil
	})
	return result.(Detection)
}

// Reset drops the cached value; the next Get recomputes it.
func (c *DetectionCache) Reset() {
	c.mu.Lock()
	c.value = nil
	c.gen++
	c.mu.Unlock()
	c.group.Forget(detectionKey)
}

// Detector runs its strategies in order and memoizes the first match.
type Detector struct {
	Strategies []Strategy
	Cache      *DetectionCache
	Default    Detection
}

// NewDetector builds the standard chain: override file, environment, default.
func NewDetector(catalog *Catalog, overridePath string, lookup LookupEnv, cache *DetectionCache) *Detector {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if cache == nil {
		cache = &DetectionCache{}
	}
	return &Detector{
		Strategies: []Strategy{
			OverrideFileStrategy(overridePath, catalog),
			EnvStrategy(lookup, catalog),
		},
		Cache:   cache,
		Default: Detection{Client: ClientUnknown, Model: catalog.DefaultModelID()},
	}
}

// Detect returns the memoized detection, running the chain if needed.
func (d *Detector) Detect() Detection {
	if d.Cache == nil {
		return d.run()
	}
	return d.Cache.Get(d.run)
}

func (d *Detector) run() Detection {
	for _, s := range d.Strategies {
		if det, ok := s(); ok {
			slog.Debug("[Pricing] client detected", "client", det.Client, "model", det.Model)
			return det
		}
	}
	return d.Default
}

// OverrideFileStrategy reads {"model": "..."} from path. A missing, empty,
// unparseable or non-object file, or one naming an unknown model, falls
// through silently.
func OverrideFileStrategy(path string, catalog *Catalog) Strategy {
	return func() (Detection, bool) {
		if path == "" {
			return Detection{}, false
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("[Pricing] override file unreadable, ignoring", "path", path, "error", err)
			}
			return Detection{}, false
		}

		var doc map[string]interface{}
		if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
			slog.Warn("[Pricing] override file is not a JSON object, ignoring", "path", path)
			return Detection{}, false
		}
		model, _ := doc["model"].(string)
		model = strings.TrimSpace(model)
		if !catalog.Known(model) {
			slog.Warn("[Pricing] override file names an unknown model, ignoring", "path", path, "model", model)
			return Detection{}, false
		}
		return Detection{Client: ClientOverride, Model: model}, true
	}
}

// envSignal maps one environment variable to a detection.
type envSignal struct {
	key   string
	match func(value string) (Detection, bool)
}

// EnvStrategy checks, in order: the desktop client, IDE integrations, an
// explicit Anthropic model and an explicit OpenAI model.
func EnvStrategy(lookup LookupEnv, catalog *Catalog) Strategy {
	present := func(client, model string) func(string) (Detection, bool) {
		return func(string) (Detection, bool) { return Detection{Client: client, Model: model}, true }
	}
	explicit := func(client string) func(string) (Detection, bool) {
		return func(v string) (Detection, bool) {
			v = strings.TrimSpace(v)
			if !catalog.Known(v) {
				slog.Debug("[Pricing] ignoring unknown model from environment", "client", client, "model", v)
				return Detection{}, false
			}
			return Detection{Client: client, Model: v}, true
		}
	}
	def := catalog.DefaultModelID()

	signals := []envSignal{
		{key: "CLAUDE_DESKTOP", match: present(ClientDesktop, def)},
		{key: "CLAUDECODE", match: present(ClientCode, def)},
		{key: "CLAUDE_CODE_ENTRYPOINT", match: present(ClientCode, def)},
		{key: "CURSOR_TRACE_ID", match: present(ClientCursor, def)},
		{key: "TERM_PROGRAM", match: func(v string) (Detection, bool) {
			if v != "vscode" {
				return Detection{}, false
			}
			return Detection{Client: ClientVSCode, Model: def}, true
		}},
		{key: "ANTHROPIC_MODEL", match: explicit(ClientAnthropic)},
		{key: "OPENAI_MODEL", match: explicit(ClientOpenAI)},
	}

	return func() (Detection, bool) {
		for _, sig := range signals {
			v, ok := lookup(sig.key)
			if !ok || v == "" {
				continue
			}
			if det, ok := sig.match(v); ok {
				return det, true
			}
		}
		return Detection{}, false
	}
}
