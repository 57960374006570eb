package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/tokenledger/internal/core/stats"
	"github.com/aevon-lab/tokenledger/internal/retention"
)

const (
	defaultMaxAttempts = 5
	defaultBackoff     = 20 * time.Millisecond
)

// Handle performs read-modify-write cycles against a DocumentStore. Each
// Update reloads the document, applies the mutation and saves it against the
// revision it loaded, retrying the whole cycle on ErrConflict.
type Handle struct {
	store       DocumentStore
	policy      retention.Policy
	nowFn       func() time.Time
	maxAttempts int
	backoff     time.Duration
}

// HandleOption customises a Handle.
type HandleOption func(*Handle)

// WithClock overrides the clock used for legacy migration.
func WithClock(now func() time.Time) HandleOption {
	return func(h *Handle) { h.nowFn = now }
}

// WithRetry overrides the conflict retry budget.
func WithRetry(maxAttempts int, backoff time.Duration) HandleOption {
	return func(h *Handle) {
		if maxAttempts > 0 {
			h.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			h.backoff = backoff
		}
	}
}

// NewHandle wraps store. policy places events when a legacy document is
// migrated on load.
func NewHandle(store DocumentStore, policy retention.Policy, opts ...HandleOption) *Handle {
	h := &Handle{
		store:       store,
		policy:      policy,
		nowFn:       time.Now,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Policy returns the retention policy the handle was built with.
func (h *Handle) Policy() retention.Policy {
	return h.policy
}

// Read loads the current store. A missing or corrupt document reads as an
// empty store; a legacy document is migrated in memory only. Read never
// writes, so a corrupt document is only backed up by the Update that
// replaces it.
func (h *Handle) Read(ctx context.Context) (*stats.Store, error) {
	s, _, _, err := h.load(ctx)
	return s, err
}

// Update applies fn to the current store and persists the result. If fn
// returns an error nothing is written. The returned store is the one that
// was saved.
func (h *Handle) Update(ctx context.Context, fn func(*stats.Store) error) (*stats.Store, error) {
	var lastErr error
	quarantined := false
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		s, rev, corrupt, err := h.load(ctx)
		if err != nil {
			return nil, err
		}
		if err := fn(s); err != nil {
			return nil, err
		}

		data, err := Encode(s)
		if err != nil {
			return nil, err
		}

		if corrupt != nil && !quarantined {
			h.quarantine(ctx, corrupt)
			quarantined = true
		}

		_, err = h.store.Save(ctx, data, rev)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("failed to save statistics document: %w", err)
		}

		lastErr = err
		slog.Debug("[Storage] revision conflict, retrying", "attempt", attempt)
		if attempt < h.maxAttempts && h.backoff > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}
	}
	return nil, fmt.Errorf("gave up after %d attempts: %w", h.maxAttempts, lastErr)
}

// load decodes the stored document. When the document is corrupt it returns
// an empty store along with the raw bytes so the caller can back them up
// before overwriting.
func (h *Handle) load(ctx context.Context) (*stats.Store, Revision, []byte, error) {
	data, rev, err := h.store.Load(ctx)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load statistics document: %w", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		if !errors.Is(err, ErrCorruptDocument) {
			return nil, "", nil, err
		}
		slog.Warn("[Storage] corrupt statistics document, reading as empty", "error", err)
		return stats.NewStore(), rev, data, nil
	}

	if decoded.Legacy != nil {
		return h.policy.MigrateLegacy(*decoded.Legacy, h.nowFn()), rev, nil, nil
	}
	return decoded.Store, rev, nil, nil
}

func (h *Handle) quarantine(ctx context.Context, data []byte) {
	q, ok := h.store.(Quarantiner)
	if !ok {
		slog.Warn("[Storage] overwriting corrupt statistics document")
		return
	}
	backup, err := q.Quarantine(ctx, data)
	if err != nil {
		slog.Error("[Storage] failed to back up corrupt document", "error", err)
		return
	}
	slog.Warn("[Storage] corrupt statistics document backed up before overwrite", "backup", backup)
}
