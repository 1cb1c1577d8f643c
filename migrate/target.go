package migrate

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// targetRun drives a single target through the migration lifecycle.
type targetRun struct {
	m       *Migrator
	p       *plan
	target  Target
	name    string
	db      *sql.DB
	ledger  *Ledger
	exec    *Executor
	applied []Version
	logger  *slog.Logger
}

func (m *Migrator) newTargetRun(p *plan, t Target, idx int) *targetRun {
	name := describeTarget(t, idx)
	return &targetRun{
		m:      m,
		p:      p,
		target: t,
		name:   name,
		logger: p.logger.With("target", name),
	}
}

// run executes the state machine until the target is done or failed.
func (r *targetRun) run(ctx context.Context) Outcome {
	start := r.m.timeNow()
	defer func() {
		if r.db != nil {
			if err := r.db.Close(); err != nil {
				r.logger.Warn("failed closing database connection", "error", err)
			}
		}
	}()

	var (
		state   = StateInit
		failure *Failure
	)
	for state != StateDone {
		r.logger.Log(ctx, LevelTrace, "entering state", "state", state)
		next, f := r.step(ctx, state)
		if f != nil {
			failure = f
			state = StateFailed
			break
		}
		state = next
	}

	out := Outcome{
		Name:             r.name,
		ConnectionString: r.target.ConnectionString,
		Success:          failure == nil,
		State:            state,
		Applied:          r.applied,
		Failure:          failure,
		Elapsed:          r.m.timeNow().Sub(start),
	}
	if out.Success {
		r.logger.Info("target migrated",
			"applied", len(r.applied), "elapsed", out.Elapsed.Round(time.Millisecond))
	}

	return out
}

func (r *targetRun) step(ctx context.Context, state State) (State, *Failure) {
	switch state {
	case StateInit:
		return r.init(ctx)
	case StateEnsureLedger:
		return r.ensureLedger(ctx)
	case StateSeedIfEmpty:
		return r.seed(ctx)
	case StateRunPre:
		return r.runRerunnable(ctx, StateRunPre, StateRunMain)
	case StateRunMain:
		return r.runMain(ctx)
	case StateRunPost:
		return r.runRerunnable(ctx, StateRunPost, StateDone)
	default:
		return StateFailed, &Failure{Phase: state, Err: errUnknownState(state)}
	}
}

func (r *targetRun) init(ctx context.Context) (State, *Failure) {
	if err := ctx.Err(); err != nil {
		return StateFailed, r.fail(StateInit, "", err)
	}

	db, err := r.m.opener(ctx, r.p.dialect, r.target.ConnectionString)
	if err != nil {
		return StateFailed, r.fail(StateInit, "", err)
	}
	r.db = db
	r.ledger = NewLedger(db, r.p.dialect, r.p.req.Schema, r.p.req.LedgerTable, r.logger)
	r.exec = NewExecutor(db, r.name, r.logger).
		WithProgress(r.p.req.ProgressInterval, r.m.progress)

	return StateEnsureLedger, nil
}

func (r *targetRun) ensureLedger(ctx context.Context) (State, *Failure) {
	if err := r.ledger.Ensure(ctx); err != nil {
		return StateFailed, r.fail(StateEnsureLedger, "", err)
	}
	return StateSeedIfEmpty, nil
}

func (r *targetRun) seed(ctx context.Context) (State, *Failure) {
	if r.p.base == nil {
		return StateRunPre, nil
	}

	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return StateFailed, r.fail(StateSeedIfEmpty, baseScriptName, err)
	}
	if len(applied) > 0 {
		r.logger.Debug("ledger not empty, skipping base script")
		return StateRunPre, nil
	}

	if f := r.apply(ctx, StateSeedIfEmpty, *r.p.base, r.p.baseText, true); f != nil {
		return StateFailed, f
	}

	return StateRunPre, nil
}

func (r *targetRun) runRerunnable(ctx context.Context, phase, next State) (State, *Failure) {
	folder := string(phase)
	scripts, err := r.p.catalog.Rerunnable(ctx, folder)
	if err != nil {
		return StateFailed, r.fail(phase, folder, err)
	}

	for _, s := range scripts {
		text, err := r.p.source.Read(ctx, s.Name)
		if err != nil {
			return StateFailed, r.fail(phase, s.DisplayName, err)
		}
		if f := r.apply(ctx, phase, s, text, false); f != nil {
			return StateFailed, f
		}
	}

	return next, nil
}

func (r *targetRun) runMain(ctx context.Context) (State, *Failure) {
	folder := r.p.req.Folder
	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return StateFailed, r.fail(StateRunMain, folder, err)
	}

	scripts, err := r.p.catalog.Versioned(ctx, folder)
	if err != nil {
		return StateFailed, r.fail(StateRunMain, folder, err)
	}

	missing := pending(scripts, applied)
	if len(missing) == 0 {
		maxVer, err := r.ledger.Max(ctx)
		if err != nil {
			return StateFailed, r.fail(StateRunMain, folder, err)
		}
		r.logger.Info("no missing scripts found", "max_version", maxVer)
		return StateRunPost, nil
	}

	r.logger.Info("applying missing scripts", "count", len(missing),
		"from", missing[0].Version, "to", missing[len(missing)-1].Version)

	for _, s := range missing {
		text, err := r.p.source.Read(ctx, s.Name)
		if err != nil {
			return StateFailed, r.fail(StateRunMain, s.DisplayName, err)
		}
		if f := r.apply(ctx, StateRunMain, s, text, true); f != nil {
			return StateFailed, f
		}
	}

	return StateRunPost, nil
}

// apply executes a single script, and records its version in the ledger if
// record is true.
func (r *targetRun) apply(ctx context.Context, phase State, s Script, text string, record bool) *Failure {
	logger := r.logger.With("phase", phase, "script", s.DisplayName)
	logger.Log(ctx, LevelTrace, "executing script")

	start := r.m.timeNow()
	if err := r.exec.Apply(ctx, phase, s, text, r.p.req.Timeout); err != nil {
		elapsed := r.m.timeNow().Sub(start).Round(time.Millisecond)
		logger.Error("script failed to execute, stopping migration",
			"elapsed", elapsed, "error", err)
		return &Failure{Phase: phase, Script: s.DisplayName, Err: err}
	}

	if record {
		if err := r.ledger.Record(ctx, s.Version); err != nil {
			return r.fail(phase, s.DisplayName, err)
		}
		r.applied = append(r.applied, s.Version)
	}

	logger.Debug("script executed",
		"elapsed", r.m.timeNow().Sub(start).Round(time.Millisecond))

	return nil
}

func (r *targetRun) fail(phase State, script string, err error) *Failure {
	r.logger.Error("target migration failed", "phase", phase, "script", script, "error", err)
	return &Failure{Phase: phase, Script: script, Err: err}
}
