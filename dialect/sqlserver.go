package dialect

import (
	"context"
	"database/sql"
	"fmt"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/microsoft/go-mssqldb"
)

type sqlServer struct{}

var _ Dialect = sqlServer{}

func (sqlServer) Type() Type            { return SQLServer }
func (sqlServer) DriverName() string    { return "sqlserver" }
func (sqlServer) DefaultSchema() string { return "dbo" }
func (sqlServer) Extensions() []string  { return []string{".sql"} }

func (sqlServer) CreateSchemaSQL(schema string) string {
	return fmt.Sprintf(`if not exists (select 1 from sys.schemas where name = N'%[1]s')
		begin exec('create schema [%[1]s]'); end;`, schema)
}

func (sqlServer) CreateLedgerSQL(schema, table string) string {
	return fmt.Sprintf(`
		if not exists (
			select 1
			from sys.tables t
			inner join sys.schemas s on t.schema_id = s.schema_id
				and s.name = N'%[1]s'
			where t.name = N'%[2]s')
		create table %[1]s.%[2]s (
			dbversionid numeric(8,5) not null,
			createutcdatetime datetime not null,
			constraint PK__%[2]s primary key (dbversionid)
		);`, schema, table)
}

func (sqlServer) InsertVersionSQL(schema, table string) string {
	return fmt.Sprintf(`insert into %s.%s (dbversionid, createutcdatetime)
		values (cast(@p1 as numeric(8,5)), SYSUTCDATETIME());`, schema, table)
}

func (sqlServer) ListVersionsSQL(schema, table string) string {
	return fmt.Sprintf(`select cast(dbversionid as varchar(20)), createutcdatetime
		from %s.%s order by dbversionid desc;`, schema, table)
}

func (sqlServer) MaxVersionSQL(schema, table string) string {
	return fmt.Sprintf(`select cast(max(dv.dbversionid) as varchar(20)) from %s.%s dv;`, schema, table)
}

func (sqlServer) Open(ctx context.Context, connString string) (*sql.DB, error) {
	return open(ctx, "sqlserver", connString)
}
