package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/aevon-lab/tokenledger/internal/core/storage/sqldoc"
)

const schema = `
	CREATE TABLE IF NOT EXISTS stats_documents (
		id         TEXT PRIMARY KEY,
		revision   INTEGER NOT NULL,
		body       TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

var documentQueries = sqldoc.Queries{
	Load: `SELECT revision, body FROM stats_documents WHERE id = ?`,
	Insert: `INSERT INTO stats_documents (id, revision, body, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT (id) DO NOTHING
		RETURNING revision`,
	Update: `UPDATE stats_documents
		SET body = ?, updated_at = ?, revision = revision + 1
		WHERE id = ? AND revision = ?`,
}

// NewDocumentStore opens (creating if needed) the SQLite database at dbPath
// and returns a document store on it.
func NewDocumentStore(dbPath string) (*sqldoc.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// WAL lets readers proceed while a save is in flight.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return sqldoc.New(db, documentQueries), nil
}
