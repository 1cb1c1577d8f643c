package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ProgressEvent is emitted periodically while a single script is running.
type ProgressEvent struct {
	Target  string
	Phase   State
	Script  string
	Elapsed time.Duration
}

// ProgressHook receives progress events. It's called from the goroutine
// running the target, so it must not block for long.
type ProgressHook func(ProgressEvent)

// Executor runs SQL text against a database. Each call runs in its own
// transaction, which is committed on success and rolled back on error.
type Executor struct {
	db       *sql.DB
	target   string
	interval time.Duration
	progress ProgressHook
	timeNow  func() time.Time
	logger   *slog.Logger
}

// NewExecutor returns an Executor for db. target is only used to label
// progress events.
func NewExecutor(db *sql.DB, target string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		db:      db,
		target:  target,
		timeNow: time.Now,
		logger:  logger.With("component", "executor"),
	}
}

// WithProgress enables progress events every interval while Apply is waiting
// on a script. hook may be nil, in which case events are only logged.
func (e *Executor) WithProgress(interval time.Duration, hook ProgressHook) *Executor {
	e.interval = interval
	e.progress = hook
	return e
}

// Exec runs text with the given args in a single transaction. Blank text is a
// no-op. If timeout is positive, the whole transaction is bounded by it.
func (e *Executor) Exec(ctx context.Context, text string, timeout time.Duration, args ...any) (err error) {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("failed rolling back transaction: %w", rbErr))
		}
	}()

	if _, err = tx.ExecContext(ctx, text, args...); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed committing transaction: %w", err)
	}

	return nil
}

// Apply runs the text of script like Exec, while emitting progress events if
// they're enabled. Events fire on a fixed ticker period of the progress
// interval, counted from the start of execution, until the script finishes.
func (e *Executor) Apply(ctx context.Context, phase State, script Script, text string, timeout time.Duration) error {
	if e.interval <= 0 || strings.TrimSpace(text) == "" {
		return e.Exec(ctx, text, timeout)
	}

	done := make(chan error, 1)
	go func() {
		done <- e.Exec(ctx, text, timeout)
	}()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	start := e.timeNow()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			ev := ProgressEvent{
				Target:  e.target,
				Phase:   phase,
				Script:  script.DisplayName,
				Elapsed: e.timeNow().Sub(start),
			}
			e.logger.Info("waiting on script to execute",
				"phase", ev.Phase, "script", ev.Script, "elapsed", ev.Elapsed.Round(time.Second))
			if e.progress != nil {
				e.progress(ev)
			}
		}
	}
}
