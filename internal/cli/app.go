package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aevon-lab/tokenledger/internal/config"
	"github.com/aevon-lab/tokenledger/internal/core/pricing"
	"github.com/aevon-lab/tokenledger/internal/core/storage"
	"github.com/aevon-lab/tokenledger/internal/core/storage/file"
	"github.com/aevon-lab/tokenledger/internal/core/storage/postgres"
	"github.com/aevon-lab/tokenledger/internal/core/storage/sqlite"
	"github.com/aevon-lab/tokenledger/internal/ingestion"
	"github.com/aevon-lab/tokenledger/internal/projection"
	"github.com/aevon-lab/tokenledger/internal/report"
)

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	paths    storage.Paths
	location *time.Location
	handle   *storage.Handle
	catalog  *pricing.Catalog
	cache    *pricing.DetectionCache
	calc     *pricing.Calculator
	close    func() error
}

func openApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.Log)

	paths, err := resolvePaths()
	if err != nil {
		return nil, err
	}

	policy, err := cfg.Retention.Policy()
	if err != nil {
		return nil, err
	}

	catalog := pricing.DefaultCatalog()
	if cfg.Pricing.CatalogFile != "" {
		f, err := pricing.LoadCatalogFile(cfg.Pricing.CatalogFile)
		if err != nil {
			return nil, err
		}
		f.Apply(catalog)
		slog.Info("Loaded pricing catalog", "path", cfg.Pricing.CatalogFile, "models", len(f.Models), "fingerprint", f.Fingerprint)
	}

	docs, closeFn, err := openStore(cfg, paths)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	cache := &pricing.DetectionCache{}
	detector := pricing.NewDetector(catalog, paths.Override, os.LookupEnv, cache)

	return &app{
		cfg:      cfg,
		paths:    paths,
		location: policy.Location,
		handle:   storage.NewHandle(docs, policy),
		catalog:  catalog,
		cache:    cache,
		calc:     pricing.NewCalculator(catalog, detector),
		close:    closeFn,
	}, nil
}

func (a *app) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

func (a *app) recorder() *ingestion.Recorder {
	return ingestion.NewRecorder(a.handle, a.calc)
}

func (a *app) queries() *projection.Service {
	return projection.NewService(a.handle, a.catalog, a.location)
}

func (a *app) reporter(cmd *cobra.Command) *report.Reporter {
	return report.New(outputFormat, cmd.OutOrStdout())
}

func resolvePaths() (storage.Paths, error) {
	if dataDir != "" {
		return storage.PathsIn(expandPath(dataDir)), nil
	}
	return storage.DefaultPaths()
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// openStore returns the document store for the configured backend and a
// function releasing it.
func openStore(cfg *config.Config, paths storage.Paths) (storage.DocumentStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendFile:
		if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		return file.New(paths.Document), noop, nil

	case config.BackendSQLite:
		s, err := sqlite.NewDocumentStore(paths.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.BackendPostgres:
		s, err := postgres.NewDocumentStore(postgres.Options{
			DSN:          cfg.Storage.Postgres.DSN,
			MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Storage.Postgres.MaxIdleConns,
			AutoMigrate:  cfg.Storage.Postgres.AutoMigrate,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		return nil, nil, errors.New("unsupported storage backend " + cfg.Storage.Backend)
	}
}

// setupLogging replaces the default logger according to cfg. Logs go to
// stderr so command output on stdout stays machine readable.
func setupLogging(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
