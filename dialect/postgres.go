package dialect

import (
	"context"
	"database/sql"
	"fmt"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgres struct{}

var _ Dialect = postgres{}

func (postgres) Type() Type            { return Postgres }
func (postgres) DriverName() string    { return "pgx" }
func (postgres) DefaultSchema() string { return "public" }
func (postgres) Extensions() []string  { return []string{".psql"} }

func (postgres) CreateSchemaSQL(schema string) string {
	return fmt.Sprintf(`create schema if not exists %s;`, schema)
}

func (postgres) CreateLedgerSQL(schema, table string) string {
	return fmt.Sprintf(`
		create table if not exists %[1]s.%[2]s (
			dbversionid numeric not null,
			createutcdatetime timestamp not null,
			constraint %[2]s_pkey primary key (dbversionid));`, schema, table)
}

func (postgres) InsertVersionSQL(schema, table string) string {
	return fmt.Sprintf(`insert into %s.%s (dbversionid, createutcdatetime)
		values ($1::numeric, now() at time zone 'utc');`, schema, table)
}

func (postgres) ListVersionsSQL(schema, table string) string {
	return fmt.Sprintf(`select dbversionid::text, createutcdatetime
		from %s.%s order by dbversionid desc;`, schema, table)
}

func (postgres) MaxVersionSQL(schema, table string) string {
	return fmt.Sprintf(`select max(dv.dbversionid)::text from %s.%s dv;`, schema, table)
}

func (postgres) Open(ctx context.Context, connString string) (*sql.DB, error) {
	return open(ctx, "pgx", connString)
}
