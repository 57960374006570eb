package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aevon-lab/tokenledger/internal/core/pricing"
	"github.com/aevon-lab/tokenledger/internal/retention"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run periodic compaction until interrupted",
		Long: `Compact the store on the configured interval and watch the model override
file for changes. A final compaction runs on SIGINT or SIGTERM.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return serve(ctx, a)
}

// serve blocks until ctx is cancelled or a background task fails.
func serve(ctx context.Context, a *app) error {
	interval, err := a.cfg.Retention.Interval()
	if err != nil {
		return err
	}
	rec := a.recorder()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return retention.NewScheduler(interval, rec).Start(gctx)
	})
	if a.cfg.Pricing.WatchOverride {
		g.Go(func() error {
			return pricing.WatchOverride(gctx, a.paths.Override, a.cache)
		})
	}

	slog.Info("Serving", "backend", a.cfg.Storage.Backend, "data_dir", a.paths.Dir, "interval", interval)
	runErr := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rec.Close(closeCtx); err != nil {
		slog.Error("Recorder did not drain before shutdown", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("serve: %w", runErr)
	}
	slog.Info("Shutdown complete")
	return nil
}
