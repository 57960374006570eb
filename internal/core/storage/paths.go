package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names under the data directory.
const (
	DirName          = ".tokenledger"
	DocumentFileName = "stats.json"
	SQLiteFileName   = "stats.db"
	OverrideFileName = "config.json"
)

// Paths are the fixed per-installation locations.
type Paths struct {
	Dir      string
	Document string
	SQLite   string
	Override string
}

// PathsIn lays the fixed file names out under dir.
func PathsIn(dir string) Paths {
	return Paths{
		Dir:      dir,
		Document: filepath.Join(dir, DocumentFileName),
		SQLite:   filepath.Join(dir, SQLiteFileName),
		Override: filepath.Join(dir, OverrideFileName),
	}
}

// DefaultPaths returns the locations under the user's home directory.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolving home directory: %w", err)
	}
	return PathsIn(filepath.Join(home, DirName)), nil
}
