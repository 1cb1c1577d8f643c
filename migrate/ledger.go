package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.hackfix.me/dbmigrate/dialect"
)

// Ledger operation timeouts.
const (
	ledgerDDLTimeout   = 15 * time.Second
	ledgerQueryTimeout = 30 * time.Second
)

// Ledger is the table in a target database that records applied versions.
type Ledger struct {
	db      *sql.DB
	exec    *Executor
	dialect dialect.Dialect
	schema  string
	table   string
	logger  *slog.Logger
}

// NewLedger returns the ledger stored in schema.table of db. The schema and
// table names must be valid identifiers.
func NewLedger(db *sql.DB, d dialect.Dialect, schema, table string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledger")
	return &Ledger{
		db:      db,
		exec:    NewExecutor(db, "", logger),
		dialect: d,
		schema:  schema,
		table:   table,
		logger:  logger,
	}
}

// Ensure creates the ledger schema and table if they don't exist.
func (l *Ledger) Ensure(ctx context.Context) error {
	if ddl := l.dialect.CreateSchemaSQL(l.schema); ddl != "" {
		if err := l.exec.Exec(ctx, ddl, ledgerDDLTimeout); err != nil {
			return fmt.Errorf("failed creating schema '%s': %w", l.schema, err)
		}
	}

	ddl := l.dialect.CreateLedgerSQL(l.schema, l.table)
	if err := l.exec.Exec(ctx, ddl, ledgerDDLTimeout); err != nil {
		return fmt.Errorf("failed creating ledger table '%s.%s': %w", l.schema, l.table, err)
	}

	return nil
}

// Entries returns all ledger rows, sorted by descending version. Rows with an
// unparsable version are skipped.
func (l *Ledger) Entries(ctx context.Context) ([]LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, ledgerQueryTimeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx, l.dialect.ListVersionsSQL(l.schema, l.table))
	if err != nil {
		return nil, fmt.Errorf("failed querying ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var (
			ver       sql.NullString
			appliedAt any
		)
		if err = rows.Scan(&ver, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed scanning ledger row: %w", err)
		}
		if !ver.Valid {
			l.logger.Warn("skipping ledger row with NULL version")
			continue
		}
		v, err := ParseVersion(ver.String)
		if err != nil {
			l.logger.Warn("skipping ledger row with invalid version", "version", ver.String)
			continue
		}
		entries = append(entries, LedgerEntry{Version: v, AppliedAt: parseTime(appliedAt)})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading ledger: %w", err)
	}

	slices.SortStableFunc(entries, func(a, b LedgerEntry) int {
		return b.Version.Cmp(a.Version)
	})

	return entries, nil
}

// Applied returns the applied versions, sorted in descending order.
func (l *Ledger) Applied(ctx context.Context) ([]Version, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, err
	}

	versions := make([]Version, len(entries))
	for i, e := range entries {
		versions[i] = e.Version
	}

	return versions, nil
}

// Max returns the highest recorded version. It returns VersionNoRow if the
// query returns no row, and VersionUnknown if the value is NULL, which is the
// case for an empty ledger, or can't be parsed.
func (l *Ledger) Max(ctx context.Context) (Version, error) {
	ctx, cancel := context.WithTimeout(ctx, ledgerQueryTimeout)
	defer cancel()

	var ver sql.NullString
	err := l.db.QueryRowContext(ctx, l.dialect.MaxVersionSQL(l.schema, l.table)).Scan(&ver)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return VersionNoRow, nil
	case err != nil:
		return Version{}, fmt.Errorf("failed querying max ledger version: %w", err)
	case !ver.Valid:
		return VersionUnknown, nil
	}

	v, err := ParseVersion(ver.String)
	if err != nil {
		return VersionUnknown, nil //nolint:nilerr // Unparsable values map to a sentinel.
	}

	return v, nil
}

// Record inserts a row for version, timestamped by the database server in UTC.
func (l *Ledger) Record(ctx context.Context, version Version) error {
	q := l.dialect.InsertVersionSQL(l.schema, l.table)
	if err := l.exec.Exec(ctx, q, ledgerQueryTimeout, version.String()); err != nil {
		return fmt.Errorf("failed recording version %s: %w", version, err)
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
}

// parseTime converts a driver timestamp value, returning the zero time if it
// can't be converted.
func parseTime(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}
