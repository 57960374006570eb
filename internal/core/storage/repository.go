package storage

import (
	"context"
	"errors"
)

// ErrConflict is returned by Save when the stored document no longer has the
// revision the caller loaded.
var ErrConflict = errors.New("document revision conflict")

// ErrCorruptDocument is returned when a stored document is present but cannot
// be decoded as any known shape.
var ErrCorruptDocument = errors.New("corrupt statistics document")

// Revision identifies one stored version of the document. It is opaque to
// callers; the empty revision means "no document yet".
type Revision string

// DocumentStore persists the single statistics document. Implementations
// provide compare-and-swap semantics on Save.
type DocumentStore interface {
	// Load returns the raw document and its revision. A missing document is
	// reported as nil data with the empty revision and no error.
	Load(ctx context.Context) ([]byte, Revision, error)

	// Save replaces the document if its current revision equals expected and
	// returns the new revision. It returns ErrConflict otherwise.
	Save(ctx context.Context, data []byte, expected Revision) (Revision, error)
}

// Quarantiner is implemented by stores that can set aside a corrupt
// document before it is overwritten.
type Quarantiner interface {
	Quarantine(ctx context.Context, data []byte) (string, error)
}
