package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aevon-lab/tokenledger/internal/retention"
)

// EnvPrefix marks environment overrides; "__" separates nested keys, so
// TOKENLEDGER_STORAGE__BACKEND=sqlite sets storage.backend.
const EnvPrefix = "TOKENLEDGER_"

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config represents the top-level configuration for tokenledger.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Storage   StorageConfig   `koanf:"storage"`
	Retention RetentionConfig `koanf:"retention"`
	Pricing   PricingConfig   `koanf:"pricing"`
}

// LogConfig holds the slog handler settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn or error
	Format string `koanf:"format"` // text or json
}

// StorageConfig selects where the stats document lives. The file and SQLite
// paths are fixed under the user's home directory.
type StorageConfig struct {
	Backend  string         `koanf:"backend"`
	Postgres PostgresConfig `koanf:"postgres"`
}

// PostgresConfig holds the connection settings for the postgres backend.
type PostgresConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// RetentionConfig holds the tier boundaries, the time zone used for day and
// month keys, and the background compaction interval.
type RetentionConfig struct {
	RecentDays         int    `koanf:"recent_days"`
	DailyDays          int    `koanf:"daily_days"`
	MonthlyYears       int    `koanf:"monthly_years"`
	Timezone           string `koanf:"timezone"`
	CompactionInterval string `koanf:"compaction_interval"` // parsed as time.Duration
}

// PricingConfig holds the optional catalog extension file and whether serve
// watches the model override file.
type PricingConfig struct {
	CatalogFile   string `koanf:"catalog_file"`
	WatchOverride bool   `koanf:"watch_override"`
}

// Location loads the configured time zone.
func (c RetentionConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// Interval parses compaction_interval.
func (c RetentionConfig) Interval() (time.Duration, error) {
	return time.ParseDuration(c.CompactionInterval)
}

// Policy builds the retention policy these settings describe.
func (c RetentionConfig) Policy() (retention.Policy, error) {
	loc, err := c.Location()
	if err != nil {
		return retention.Policy{}, fmt.Errorf("invalid retention.timezone %q: %w", c.Timezone, err)
	}
	p := retention.Policy{
		RecentDays:   c.RecentDays,
		DailyDays:    c.DailyDays,
		MonthlyYears: c.MonthlyYears,
		Location:     loc,
	}
	if err := p.Validate(); err != nil {
		return retention.Policy{}, err
	}
	return p, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (must be debug, info, warn or error)", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q (must be text or json)", c.Log.Format)
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if strings.TrimSpace(c.Storage.Postgres.DSN) == "" {
			return fmt.Errorf("storage.postgres.dsn is required when storage.backend is postgres")
		}
		if c.Storage.Postgres.MaxOpenConns <= 0 {
			return fmt.Errorf("storage.postgres.max_open_conns must be > 0")
		}
		if c.Storage.Postgres.MaxIdleConns <= 0 {
			return fmt.Errorf("storage.postgres.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported storage.backend %q (must be file, postgres or sqlite)", c.Storage.Backend)
	}

	if c.Retention.RecentDays <= 0 {
		return fmt.Errorf("retention.recent_days must be > 0")
	}
	if c.Retention.DailyDays <= c.Retention.RecentDays {
		return fmt.Errorf("retention.daily_days must be > retention.recent_days")
	}
	if c.Retention.MonthlyYears*365 <= c.Retention.DailyDays {
		return fmt.Errorf("retention.monthly_years must cover more than retention.daily_days")
	}
	if _, err := c.Retention.Location(); err != nil {
		return fmt.Errorf("invalid retention.timezone %q: %w", c.Retention.Timezone, err)
	}
	interval, err := c.Retention.Interval()
	if err != nil {
		return fmt.Errorf("invalid retention.compaction_interval %q: %w", c.Retention.CompactionInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("retention.compaction_interval must be > 0")
	}

	return nil
}

// Load reads defaults, then the optional YAML file at configPath, then the
// environment (after a .env file in the working directory), and validates
// the result.
func Load(configPath string) (*Config, error) {
	loadDotEnv(".env")

	k := koanf.New(".")

	defaults := map[string]interface{}{
		"log.level":                       "info",
		"log.format":                      "text",
		"storage.backend":                 BackendFile,
		"storage.postgres.dsn":            "",
		"storage.postgres.max_open_conns": 5,
		"storage.postgres.max_idle_conns": 5,
		"storage.postgres.auto_migrate":   true,
		"retention.recent_days":           retention.DefaultRecentDays,
		"retention.daily_days":            retention.DefaultDailyDays,
		"retention.monthly_years":         retention.DefaultMonthlyYears,
		"retention.timezone":              "Local",
		"retention.compaction_interval":   "1h",
		"pricing.catalog_file":            "",
		"pricing.watch_override":          true,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports variables from path without overriding ones already set.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("[Config] ignoring unreadable env file", "path", path, "error", err)
	}
}
