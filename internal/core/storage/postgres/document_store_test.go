package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/tokenledger/internal/core/storage"
	"github.com/aevon-lab/tokenledger/internal/core/storage/sqldoc"
)

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name       string
		mockResult func(mock sqlmock.Sqlmock)
		wantErr    string
	}{
		{
			name: "table present",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryTableExists)).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
		},
		{
			name: "table missing",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryTableExists)).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantErr: "stats_documents table does not exist",
		},
		{
			name: "query fails",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryTableExists)).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: "failed to check schema",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tc.mockResult(mock)

			err = validateSchema(db)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentQueries_UpdateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sqldoc.New(db, documentQueries)
	body := []byte(`{"version":2}`)

	mock.ExpectQuery(regexp.QuoteMeta(queryLoadDocument)).
		WithArgs(sqldoc.DocumentID).
		WillReturnRows(sqlmock.NewRows([]string{"revision", "body"}).AddRow(int64(3), body))
	mock.ExpectExec(regexp.QuoteMeta(queryUpdateDocument)).
		WithArgs(string(body), sqlmock.AnyArg(), sqldoc.DocumentID, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	got, rev, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, storage.Revision("3"), rev)

	_, err = s.Save(ctx, got, rev)
	require.ErrorIs(t, err, storage.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}
