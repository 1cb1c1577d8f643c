package dialect

import (
	"context"
	"database/sql"
	"fmt"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
)

// sqlite treats the schema as the name of an attached database, "main" by
// default. Attached databases can't be created with DDL, so CreateSchemaSQL
// returns nothing.
type sqlite struct{}

var _ Dialect = sqlite{}

func (sqlite) Type() Type                    { return SQLite }
func (sqlite) DriverName() string            { return "sqlite" }
func (sqlite) DefaultSchema() string         { return "main" }
func (sqlite) Extensions() []string          { return []string{".sqlite"} }
func (sqlite) CreateSchemaSQL(string) string { return "" }

func (sqlite) CreateLedgerSQL(schema, table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			dbversionid NUMERIC NOT NULL PRIMARY KEY,
			createutcdatetime DATETIME NOT NULL
		);`, schema, table)
}

func (sqlite) InsertVersionSQL(schema, table string) string {
	return fmt.Sprintf(`INSERT INTO %s.%s (dbversionid, createutcdatetime)
		VALUES (?, strftime('%%Y-%%m-%%d %%H:%%M:%%f', 'now'));`, schema, table)
}

func (sqlite) ListVersionsSQL(schema, table string) string {
	return fmt.Sprintf(`SELECT CAST(dbversionid AS TEXT), createutcdatetime
		FROM %s.%s ORDER BY dbversionid DESC;`, schema, table)
}

func (sqlite) MaxVersionSQL(schema, table string) string {
	return fmt.Sprintf(`SELECT CAST(MAX(dv.dbversionid) AS TEXT) FROM %s.%s dv;`, schema, table)
}

func (sqlite) Open(ctx context.Context, connString string) (*sql.DB, error) {
	db, err := open(ctx, "sqlite", connString)
	if err != nil {
		return nil, err
	}

	// Scripts may rely on the constraints they declare.
	if _, err = db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
	}

	return db, nil
}
