package pricing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchOverride_ResetsDetectionOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "model.json")
	catalog := DefaultCatalog()
	cache := &DetectionCache{}
	d := NewDetector(catalog, path, fakeEnv(nil), cache)

	require.Equal(t, catalog.DefaultModelID(), d.Detect().Model)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- WatchOverride(ctx, path, cache) }()

	// Rewrite on every poll: the watcher may not be registered yet on the
	// first write.
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte(`{"model":"gpt-4o"}`), 0o644); err != nil {
			return false
		}
		return d.Detect().Model == "gpt-4o"
	}, 5*time.Second, 50*time.Millisecond)
	require.Equal(t, ClientOverride, d.Detect().Client)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return d.Detect().Model == catalog.DefaultModelID()
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchOverride_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "model.json")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, WatchOverride(ctx, path, &DetectionCache{}))
	require.DirExists(t, filepath.Dir(path))
}
