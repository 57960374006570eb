package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aevon-lab/tokenledger/internal/core/pricing"
	"github.com/aevon-lab/tokenledger/internal/core/stats"
	"github.com/aevon-lab/tokenledger/internal/core/storage"
	"github.com/aevon-lab/tokenledger/internal/retention"
)

const asyncWriteTimeout = 10 * time.Second

// OperationResult is what the compression step reports for one operation.
// A nil OriginalSize means the original could not be measured and is
// estimated from the level.
type OperationResult struct {
	Path           string
	OriginalSize   *int64
	CompressedSize int64
	Level          string
	Format         string
	// Model overrides detection for this event when set.
	Model string
}

// Recorder appends events to the store and compacts it on every write.
type Recorder struct {
	handle *storage.Handle
	calc   *pricing.Calculator
	nowFn  func() time.Time
	idFn   func() string

	// writeMu serialises this process's writers so they do not spend the
	// store's conflict retries on each other.
	writeMu sync.Mutex

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// Option customises a Recorder.
type Option func(*Recorder)

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.nowFn = now }
}

// WithIDs overrides event ID generation.
func WithIDs(next func() string) Option {
	return func(r *Recorder) { r.idFn = next }
}

// NewRecorder returns a recorder writing through handle. A nil calc records
// events without cost fields.
func NewRecorder(handle *storage.Handle, calc *pricing.Calculator, opts ...Option) *Recorder {
	if handle == nil {
		panic("ingestion: handle must not be nil")
	}
	r := &Recorder{
		handle: handle,
		calc:   calc,
		nowFn:  time.Now,
		idFn:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildEvent turns an operation result into an event, estimating the
// original size and attaching cost as needed. It does not touch the store.
func (r *Recorder) BuildEvent(res OperationResult) (stats.Event, error) {
	if res.CompressedSize < 0 {
		return stats.Event{}, fmt.Errorf("%w: compressedSize %d", stats.ErrInvalidSize, res.CompressedSize)
	}

	var original int64
	estimated := res.OriginalSize == nil
	if estimated {
		original = stats.EstimateOriginalSize(res.Level, res.CompressedSize)
	} else {
		original = *res.OriginalSize
	}
	if original < 0 {
		return stats.Event{}, fmt.Errorf("%w: originalSize %d", stats.ErrInvalidSize, original)
	}

	e := stats.NewEvent(r.nowFn(), res.Path, original, res.CompressedSize, res.Level, res.Format)
	e.ID = r.idFn()
	e.Estimated = estimated

	if r.calc != nil {
		cost, err := r.calc.Cost(float64(e.SavedAmount), res.Model)
		if err != nil {
			if !errors.Is(err, pricing.ErrInvalidAmount) {
				return stats.Event{}, err
			}
			slog.Warn("[Recorder] cost not computable, recording zero cost",
				"path", res.Path,
				"saved", e.SavedAmount,
				"error", err,
			)
			cost = r.calc.Attribution(res.Model)
		}
		e.AttachCost(cost.Model, cost.Client, cost.PricePerMillionUnits, cost.CostSavingsUSD)
	}

	if err := e.Validate(); err != nil {
		return stats.Event{}, err
	}
	return e, nil
}

// RecordEvent appends one event and compacts the store in the same write.
func (r *Recorder) RecordEvent(ctx context.Context, res OperationResult) (*stats.Event, error) {
	e, err := r.BuildEvent(res)
	if err != nil {
		return nil, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	policy := r.handle.Policy()
	_, err = r.handle.Update(ctx, func(s *stats.Store) error {
		s.Append(e)
		compacted, _ := policy.Compact(s, r.nowFn())
		*s = *compacted
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recording event: %w", err)
	}

	slog.Debug("[Recorder] event recorded", "id", e.ID, "path", e.Path, "saved", e.SavedAmount)
	return &e, nil
}

// RecordAsync records in the background. Failures are logged. Call Close
// before exiting so in-flight writes are not lost.
func (r *Recorder) RecordAsync(res OperationResult) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		slog.Warn("[Recorder] dropping event after close", "path", res.Path)
		return
	}
	r.inflight.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
		defer cancel()

		if _, err := r.RecordEvent(ctx, res); err != nil {
			slog.Error("[Recorder] background record failed", "path", res.Path, "error", err)
		}
	}()
}

// Compact runs one compaction pass against the persisted store.
func (r *Recorder) Compact(ctx context.Context) (retention.Report, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var rep retention.Report
	policy := r.handle.Policy()
	_, err := r.handle.Update(ctx, func(s *stats.Store) error {
		compacted, report := policy.Compact(s, r.nowFn())
		*s = *compacted
		rep = report
		return nil
	})
	if err != nil {
		return retention.Report{}, fmt.Errorf("compacting store: %w", err)
	}
	return rep, nil
}

// Close stops accepting async records and waits for in-flight ones, or for
// ctx to expire.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight records: %w", ctx.Err())
	}
}
