package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// Type are the supported database families.
type Type string

// All supported database families.
const (
	Postgres  Type = "postgres"
	SQLServer Type = "sqlserver"
	SQLite    Type = "sqlite"
)

// TypeFromString returns a valid Type for the given string, or an error if the
// value is invalid.
func TypeFromString(val string) (Type, error) {
	switch Type(strings.ToLower(val)) {
	case Postgres:
		return Postgres, nil
	case SQLServer:
		return SQLServer, nil
	case SQLite:
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database type '%s'", val)
}

// Dialect is the interface to a database family.
type Dialect interface {
	Type() Type

	// DriverName is the database/sql driver used to open connections.
	DriverName() string

	// DefaultSchema is used when the caller doesn't set a schema.
	DefaultSchema() string

	// Extensions are the script file extensions, including the leading dot,
	// this dialect executes. Order matters when looking up the base script.
	Extensions() []string

	// CreateSchemaSQL returns idempotent DDL that creates the schema if it
	// doesn't exist. An empty string means there's nothing to create.
	CreateSchemaSQL(schema string) string

	// CreateLedgerSQL returns idempotent DDL that creates the ledger table if
	// it doesn't exist.
	CreateLedgerSQL(schema, table string) string

	// InsertVersionSQL returns a single-row insert with one placeholder for
	// the version. The timestamp comes from the server's UTC clock.
	InsertVersionSQL(schema, table string) string

	// ListVersionsSQL returns a query selecting version and applied-at
	// columns of every ledger row, highest version first.
	ListVersionsSQL(schema, table string) string

	// MaxVersionSQL returns a query selecting the highest ledger version.
	MaxVersionSQL(schema, table string) string

	// Open returns a connection pool to the database described by connString.
	Open(ctx context.Context, connString string) (*sql.DB, error)
}

// Get returns the built-in Dialect for t.
//
//nolint:ireturn // Intentional, callers only need the interface.
func Get(t Type) (Dialect, error) {
	switch t {
	case Postgres:
		return postgres{}, nil
	case SQLServer:
		return sqlServer{}, nil
	case SQLite:
		return sqlite{}, nil
	}
	return nil, fmt.Errorf("unsupported database type '%s'", t)
}

var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier checks that a schema or table name is a plain SQL
// identifier. They are interpolated into DDL, so nothing else is accepted.
func ValidateIdentifier(name string) error {
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier: %q", name)
	}
	return nil
}

// open opens a pool pinned to a single connection, and checks that the
// database is reachable.
func open(ctx context.Context, driverName, connString string) (*sql.DB, error) {
	db, err := sql.Open(driverName, connString)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s database: %w", driverName, err)
	}

	// A target owns exactly one connection at a time.
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed connecting to %s database: %w", driverName, err)
	}

	return db, nil
}
