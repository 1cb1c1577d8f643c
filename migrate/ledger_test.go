package migrate

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/dbmigrate/dialect"
)

func TestLedgerSQLite(t *testing.T) {
	t.Parallel()

	d, err := dialect.Get(dialect.SQLite)
	require.NoError(t, err)
	target := sqliteTarget(t, "ledger")
	db, err := d.Open(t.Context(), target.ConnectionString)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l := NewLedger(db, d, "main", "dbversion", discardLogger())
	require.NoError(t, l.Ensure(t.Context()))
	// Idempotent
	require.NoError(t, l.Ensure(t.Context()))

	maxVer, err := l.Max(t.Context())
	require.NoError(t, err)
	assert.True(t, maxVer.Equal(VersionUnknown), "empty ledger max is %s", maxVer)

	applied, err := l.Applied(t.Context())
	require.NoError(t, err)
	assert.Empty(t, applied)

	before := time.Now().UTC().Add(-time.Minute)
	for _, v := range []string{"0", "1", "1.5", "10"} {
		require.NoError(t, l.Record(t.Context(), MustParseVersion(v)))
	}

	applied, err = l.Applied(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "1.5", "1", "0"}, versionStrings(applied))

	maxVer, err = l.Max(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "10", maxVer.String())

	entries, err := l.Entries(t.Context())
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.True(t, e.AppliedAt.After(before), "applied at %s", e.AppliedAt)
	}

	err = l.Record(t.Context(), MustParseVersion("10"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed recording version 10")
}

func TestLedgerMax(t *testing.T) {
	t.Parallel()

	d, err := dialect.Get(dialect.Postgres)
	require.NoError(t, err)
	q := d.MaxVersionSQL("public", "dbversion")

	tests := []struct {
		name      string
		rows      func() *sqlmock.Rows
		queryErr  error
		expVer    string
		expErrMsg string
	}{
		{
			name:   "ok/value",
			rows:   func() *sqlmock.Rows { return sqlmock.NewRows([]string{"max"}).AddRow("3.0001") },
			expVer: "3.0001",
		},
		{
			name:   "ok/null",
			rows:   func() *sqlmock.Rows { return sqlmock.NewRows([]string{"max"}).AddRow(nil) },
			expVer: "-1",
		},
		{
			name:   "ok/unparsable",
			rows:   func() *sqlmock.Rows { return sqlmock.NewRows([]string{"max"}).AddRow("n/a") },
			expVer: "-1",
		},
		{
			name:   "ok/no_row",
			rows:   func() *sqlmock.Rows { return sqlmock.NewRows([]string{"max"}) },
			expVer: "-2",
		},
		{
			name:      "err/query",
			queryErr:  errors.New(`relation "public.dbversion" does not exist`),
			expErrMsg: `failed querying max ledger version: relation "public.dbversion" does not exist`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			exp := mock.ExpectQuery(q)
			if tt.queryErr != nil {
				exp.WillReturnError(tt.queryErr)
			} else {
				exp.WillReturnRows(tt.rows())
			}

			l := NewLedger(db, d, "public", "dbversion", discardLogger())
			v, err := l.Max(t.Context())
			if tt.expErrMsg != "" {
				assert.EqualError(t, err, tt.expErrMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expVer, v.String())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLedgerEntriesSkipsInvalid(t *testing.T) {
	t.Parallel()

	d, err := dialect.Get(dialect.Postgres)
	require.NoError(t, err)
	db, mock := newMockDB(t)

	applied := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(d.ListVersionsSQL("public", "dbversion")).
		WillReturnRows(sqlmock.NewRows([]string{"dbversionid", "createutcdatetime"}).
			AddRow("2", applied).
			AddRow(nil, applied).
			AddRow("bogus", applied).
			AddRow("1", "2024-02-01 08:30:00.250"))

	l := NewLedger(db, d, "public", "dbversion", discardLogger())
	entries, err := l.Entries(t.Context())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].Version.String())
	assert.Equal(t, applied, entries[0].AppliedAt)
	assert.Equal(t, "1", entries[1].Version.String())
	assert.Equal(t, time.Date(2024, 2, 1, 8, 30, 0, 250e6, time.UTC), entries[1].AppliedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerEnsureFailure(t *testing.T) {
	t.Parallel()

	d, err := dialect.Get(dialect.Postgres)
	require.NoError(t, err)
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(d.CreateSchemaSQL("public")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(d.CreateLedgerSQL("public", "dbversion")).
		WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	l := NewLedger(db, d, "public", "dbversion", discardLogger())
	err = l.Ensure(t.Context())
	assert.EqualError(t, err, "failed creating ledger table 'public.dbversion': permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}
