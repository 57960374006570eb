package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchOverride resets cache whenever the override file at path is created,
// written, renamed or removed, so the next cost calculation re-runs
// detection. It watches the parent directory because the file may not exist
// yet, and blocks until ctx is cancelled.
func WatchOverride(ctx context.Context, path string, cache *DetectionCache) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating override dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	slog.Info("[Pricing] watching override file", "path", path)

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				cache.Reset()
				slog.Info("[Pricing] override file changed, detection reset", "op", event.Op.String())
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("[Pricing] watcher error", "error", err)
		}
	}
}
