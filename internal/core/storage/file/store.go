// Package file stores the statistics document as a JSON file. Writers are
// serialised with an advisory flock on a sidecar lock file, and every write
// goes through a temp file that is fsynced and renamed over the target.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aevon-lab/tokenledger/internal/core/storage"
)

// Store implements storage.DocumentStore on a single file.
type Store struct {
	path  string
	nowFn func() time.Time
}

// New returns a store for the document at path. The parent directory is
// created on first save.
func New(path string) *Store {
	return &Store{path: path, nowFn: time.Now}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing file is an empty store.
func (s *Store) Load(_ context.Context) ([]byte, storage.Revision, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", s.path, err)
	}
	return data, revisionOf(data), nil
}

// Save writes data if the file still has the expected revision.
func (s *Store) Save(_ context.Context, data []byte, expected storage.Revision) (storage.Revision, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}

	unlock, err := s.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	current, err := os.ReadFile(s.path)
	var currentRev storage.Revision
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return "", fmt.Errorf("reading %s: %w", s.path, err)
	default:
		currentRev = revisionOf(current)
	}
	if currentRev != expected {
		return "", storage.ErrConflict
	}

	if err := atomicWriteFile(s.path, data, 0o644); err != nil {
		return "", err
	}
	return revisionOf(data), nil
}

// Quarantine copies a corrupt document next to the original so that the
// next save does not destroy it.
func (s *Store) Quarantine(_ context.Context, data []byte) (string, error) {
	backup := fmt.Sprintf("%s.corrupt-%d", s.path, s.nowFn().Unix())
	if err := atomicWriteFile(backup, data, 0o600); err != nil {
		return "", err
	}
	return backup, nil
}

func (s *Store) lock() (func(), error) {
	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}

func revisionOf(data []byte) storage.Revision {
	sum := sha256.Sum256(data)
	return storage.Revision(hex.EncodeToString(sum[:]))
}

// atomicWriteFile writes to a temp file in the target directory, syncs it and
// renames it into place. Readers see either the old or the new content.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
