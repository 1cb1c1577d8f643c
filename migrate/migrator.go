package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nrednav/cuid2"
	"golang.org/x/sync/errgroup"

	"go.hackfix.me/dbmigrate/dialect"
)

// Migrator applies script bundles to target databases.
type Migrator struct {
	locator  Locator
	opener   Opener
	progress ProgressHook
	timeNow  func() time.Time
	logger   *slog.Logger
}

// New returns a new Migrator that finds script bundles with locator.
func New(locator Locator, opts ...Option) (*Migrator, error) {
	if locator == nil {
		return nil, errors.New("locator is nil")
	}

	m := &Migrator{locator: locator}
	for _, opt := range append(DefaultOptions(), opts...) {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// plan is the run-wide state shared by all targets.
type plan struct {
	runID    string
	req      Request
	dialect  dialect.Dialect
	source   ScriptSource
	catalog  *Catalog
	base     *Script
	baseText string
	logger   *slog.Logger
}

// prepare validates the request and resolves everything that is shared across
// targets.
func (m *Migrator) prepare(ctx context.Context, req Request) (*plan, error) {
	req, d, err := req.normalize()
	if err != nil {
		return nil, err
	}

	runID := cuid2.Generate()
	logger := m.logger.With("run_id", runID, "project", req.Project)

	src, err := m.locator.Locate(ctx, req.Project)
	if err != nil {
		return nil, err
	}

	catalog := NewCatalog(src, d.Extensions(), logger)
	base, baseText, err := catalog.Base(ctx)
	if err != nil {
		return nil, err
	}

	return &plan{
		runID:    runID,
		req:      req,
		dialect:  d,
		source:   src,
		catalog:  catalog,
		base:     base,
		baseText: baseText,
		logger:   logger,
	}, nil
}

// Migrate brings every target in req to the latest script version.
//
// A non-nil error is only returned for problems that prevent the run from
// starting, such as an invalid request or a missing script bundle. Failures of
// individual targets are reported in the returned Result.
func (m *Migrator) Migrate(ctx context.Context, req Request) (*Result, error) {
	p, err := m.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	start := m.timeNow()
	p.logger.Info("starting migration",
		"targets", len(p.req.Targets), "concurrency", p.req.Concurrency,
		"dialect", p.req.Dialect, "folder", p.req.Folder)

	outcomes := make([]Outcome, len(p.req.Targets))
	var g errgroup.Group
	g.SetLimit(p.req.Concurrency)
	for i, t := range p.req.Targets {
		g.Go(func() error {
			outcomes[i] = m.newTargetRun(p, t, i).run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{RunID: p.runID, Targets: outcomes, Success: true}
	failed := 0
	for _, o := range outcomes {
		if !o.Success {
			res.Success = false
			failed++
		}
	}

	logArgs := []any{
		"targets", len(outcomes), "failed", failed,
		"elapsed", m.timeNow().Sub(start).Round(time.Millisecond),
	}
	if res.Success {
		p.logger.Info("migration finished", logArgs...)
	} else {
		p.logger.Warn("migration finished with failures", logArgs...)
	}

	return res, nil
}

// pending returns the scripts newer than the highest applied version. Gaps
// below it are never filled.
func pending(scripts []Script, applied []Version) []Script {
	floor := NewVersion(0)
	for _, v := range applied {
		if v.Cmp(floor) > 0 {
			floor = v
		}
	}

	var missing []Script
	for _, s := range scripts {
		if s.Version.Cmp(floor) > 0 {
			missing = append(missing, s)
		}
	}

	return missing
}

func describeTarget(t Target, i int) string {
	if name := t.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprintf("target-%d", i)
}
