package postgres

import "github.com/aevon-lab/tokenledger/internal/core/storage/sqldoc"

// SQL for the single-row statistics document.

const (
	// queryLoadDocument returns the current revision and body.
	queryLoadDocument = `
		SELECT revision, body
		FROM stats_documents
		WHERE id = $1
	`

	// queryInsertDocument creates the row at revision 1.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) when another
	// writer created it first.
	queryInsertDocument = `
		INSERT INTO stats_documents (id, revision, body, updated_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (id) DO NOTHING
		RETURNING revision
	`

	// queryUpdateDocument replaces the body only if the revision the caller
	// loaded is still current.
	queryUpdateDocument = `
		UPDATE stats_documents
		SET body = $1, updated_at = $2, revision = revision + 1
		WHERE id = $3 AND revision = $4
	`

	// queryTableExists checks that migrations have run.
	queryTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'stats_documents'
		)
	`
)

var documentQueries = sqldoc.Queries{
	Load:   queryLoadDocument,
	Insert: queryInsertDocument,
	Update: queryUpdateDocument,
}
