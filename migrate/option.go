package migrate

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"go.hackfix.me/dbmigrate/dialect"
)

// Option is a function that allows configuring the Migrator.
type Option func(*Migrator) error

// Opener opens a connection pool to a target database.
type Opener func(ctx context.Context, d dialect.Dialect, connString string) (*sql.DB, error)

// DefaultOptions returns the default Migrator options.
func DefaultOptions() []Option {
	return []Option{
		WithLogger(slog.Default()),
		WithOpener(func(ctx context.Context, d dialect.Dialect, connString string) (*sql.DB, error) {
			return d.Open(ctx, connString)
		}),
		WithTimeNow(time.Now),
	}
}

// WithLogger sets the logger used by the Migrator.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		m.logger = logger.With("component", "migrate")
		return nil
	}
}

// WithOpener sets the function used to connect to targets.
func WithOpener(opener Opener) Option {
	return func(m *Migrator) error {
		if opener == nil {
			return errors.New("opener is nil")
		}
		m.opener = opener
		return nil
	}
}

// WithProgressHook sets a function that receives the progress events of long
// running scripts. Events are only emitted if Request.ProgressInterval is set.
func WithProgressHook(hook ProgressHook) Option {
	return func(m *Migrator) error {
		m.progress = hook
		return nil
	}
}

// WithTimeNow sets the function used to measure elapsed time.
func WithTimeNow(timeNow func() time.Time) Option {
	return func(m *Migrator) error {
		if timeNow == nil {
			return errors.New("time function is nil")
		}
		m.timeNow = timeNow
		return nil
	}
}
