package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"go.hackfix.me/dbmigrate/dialect"
)

// memSource is a ScriptSource keyed by script name relative to the namespace.
type memSource struct {
	ns      string
	mu      sync.Mutex
	scripts map[string]string
	listErr error
	reads   map[string]int
}

func newMemSource(ns string, scripts map[string]string) *memSource {
	return &memSource{ns: ns, scripts: scripts, reads: map[string]int{}}
}

func (s *memSource) Namespace() string { return s.ns }

func (s *memSource) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	names := make([]string, 0, len(s.scripts))
	for _, name := range slices.Sorted(maps.Keys(s.scripts)) {
		names = append(names, s.ns+"."+name)
	}
	return names, nil
}

func (s *memSource) Read(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[name]++
	text, ok := s.scripts[name[len(s.ns)+1:]]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrScriptNotFound, name)
	}
	return text, nil
}

func (s *memSource) set(name, text string) {
	s.mu.Lock()
	s.scripts[name] = text
	s.mu.Unlock()
}

type staticLocator struct{ src ScriptSource }

func (l staticLocator) Locate(_ context.Context, project string) (ScriptSource, error) {
	if l.src.Namespace() != project {
		return nil, &ModuleNotFoundError{Project: project}
	}
	return l.src, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestMigrator(t *testing.T, src ScriptSource, opts ...Option) *Migrator {
	t.Helper()
	m, err := New(staticLocator{src}, append([]Option{WithLogger(discardLogger())}, opts...)...)
	require.NoError(t, err)
	return m
}

// sqliteTarget returns a target backed by a new SQLite file.
func sqliteTarget(t *testing.T, name string) Target {
	t.Helper()
	return Target{
		Name:             name,
		ConnectionString: "file:" + filepath.Join(t.TempDir(), name+".db"),
	}
}

func sqliteRequest(project string, targets ...Target) Request {
	return Request{
		Project:     project,
		Targets:     targets,
		LedgerTable: "dbversion",
		Dialect:     dialect.SQLite,
	}
}

// openTarget opens a direct connection to a target for assertions.
func openTarget(t *testing.T, target Target) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", target.ConnectionString)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ledgerVersions(t *testing.T, target Target) []string {
	t.Helper()
	rows, err := openTarget(t, target).QueryContext(t.Context(),
		`SELECT CAST(dbversionid AS TEXT) FROM dbversion ORDER BY dbversionid`)
	require.NoError(t, err)
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())

	return versions
}

func tableRows(t *testing.T, target Target, query string) []string {
	t.Helper()
	rows, err := openTarget(t, target).QueryContext(t.Context(), query)
	require.NoError(t, err)
	defer rows.Close()

	var vals []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		vals = append(vals, v)
	}
	require.NoError(t, rows.Err())

	return vals
}

func versionStrings(vs []Version) []string {
	if vs == nil {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func scriptNames(scripts []Script) []string {
	out := make([]string, len(scripts))
	for i, s := range scripts {
		out[i] = s.Name
	}
	return out
}
