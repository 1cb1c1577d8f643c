package migrate

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"go.hackfix.me/dbmigrate/dialect"
)

// TargetStatus is the migration state of a single target.
type TargetStatus struct {
	Name string
	// Entries are the ledger rows, sorted by descending version.
	Entries []LedgerEntry
	// Pending are the versioned scripts a migration would apply.
	Pending []Script
	// Err is set if the target couldn't be inspected, e.g. if the ledger table
	// doesn't exist yet.
	Err error
}

// Status inspects every target in req without modifying it, and reports the
// versions already applied and those pending. As with Migrate, a non-nil
// error is only returned for run-level problems.
func (m *Migrator) Status(ctx context.Context, req Request) ([]TargetStatus, error) {
	p, err := m.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	scripts, err := p.catalog.Versioned(ctx, p.req.Folder)
	if err != nil {
		return nil, err
	}

	statuses := make([]TargetStatus, len(p.req.Targets))
	var g errgroup.Group
	g.SetLimit(p.req.Concurrency)
	for i, t := range p.req.Targets {
		g.Go(func() error {
			statuses[i] = m.targetStatus(ctx, p, t, i, scripts)
			return nil
		})
	}
	_ = g.Wait()

	return statuses, nil
}

func (m *Migrator) targetStatus(
	ctx context.Context, p *plan, t Target, idx int, scripts []Script,
) (st TargetStatus) {
	st.Name = describeTarget(t, idx)
	logger := p.logger.With("target", st.Name)

	db, err := m.opener(ctx, p.dialect, t.ConnectionString)
	if err != nil {
		st.Err = err
		return st
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed closing database connection", "error", cerr)
		}
	}()

	ledger := NewLedger(db, p.dialect, p.req.Schema, p.req.LedgerTable, logger)
	st.Entries, err = ledger.Entries(ctx)
	if err != nil {
		st.Err = fmt.Errorf("failed reading ledger of target %s: %w", st.Name, err)
		return st
	}

	applied := make([]Version, len(st.Entries))
	for i, e := range st.Entries {
		applied[i] = e.Version
	}
	st.Pending = pending(scripts, applied)

	return st
}

// Scripts returns the versioned and rerunnable scripts of a project bundle, in
// execution order. Only the Project, Folder and Dialect fields of req are used.
func (m *Migrator) Scripts(ctx context.Context, req Request) (*Bundle, error) {
	if req.Project == "" {
		return nil, &ConfigError{Field: "project", Msg: "project name is required"}
	}
	if req.Folder == "" {
		req.Folder = DefaultFolder
	}
	typ := dialect.Postgres
	if req.Dialect != "" {
		var err error
		if typ, err = dialect.TypeFromString(string(req.Dialect)); err != nil {
			return nil, &ConfigError{Field: "dialect", Msg: err.Error()}
		}
	}
	d, err := dialect.Get(typ)
	if err != nil {
		return nil, &ConfigError{Field: "dialect", Msg: err.Error()}
	}

	src, err := m.locator.Locate(ctx, req.Project)
	if err != nil {
		return nil, err
	}

	catalog := NewCatalog(src, d.Extensions(), m.logger)
	b := &Bundle{Namespace: src.Namespace()}
	if b.Base, _, err = catalog.Base(ctx); err != nil {
		return nil, err
	}
	if b.Pre, err = catalog.Rerunnable(ctx, string(StateRunPre)); err != nil {
		return nil, err
	}
	b.Versioned, err = catalog.Versioned(ctx, req.Folder)
	var dupErr *DuplicateVersionError
	if err != nil && !errors.As(err, &dupErr) {
		return nil, err
	}
	b.Duplicate = dupErr
	if b.Post, err = catalog.Rerunnable(ctx, string(StateRunPost)); err != nil {
		return nil, err
	}

	return b, nil
}

// Bundle is the set of scripts in a project bundle.
type Bundle struct {
	Namespace string
	Base      *Script
	Pre       []Script
	Versioned []Script
	Post      []Script
	// Duplicate is set if the versioned scripts contain a duplicate version,
	// in which case Versioned is empty.
	Duplicate *DuplicateVersionError
}
