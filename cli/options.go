package cli

import (
	"errors"
	"fmt"
	"time"

	"go.hackfix.me/dbmigrate/app/config"
	actx "go.hackfix.me/dbmigrate/app/context"
	aerrors "go.hackfix.me/dbmigrate/app/errors"
	"go.hackfix.me/dbmigrate/dialect"
	"go.hackfix.me/dbmigrate/migrate"
	"go.hackfix.me/dbmigrate/source"
)

// BundleOptions select a script bundle.
type BundleOptions struct {
	Project   string `kong:"short='p',help='Name of the script bundle.'"`
	Dialect   string `kong:"short='d',help='Database type: postgres, sqlserver or sqlite.'"`
	Folder    string `kong:"help='Name of the versioned scripts folder.'"`
	BundleDir string `kong:"help='Directory containing script bundles. Defaults to the directory of the executable.'"`
}

func (o *BundleOptions) apply(cfg *config.Config) {
	if o.Project == "" && cfg.Project.Valid {
		o.Project = cfg.Project.V
	}
	if o.Dialect == "" && cfg.Migration.Dialect.Valid {
		o.Dialect = string(cfg.Migration.Dialect.V)
	}
	if o.Folder == "" && cfg.Migration.Folder.Valid {
		o.Folder = cfg.Migration.Folder.V
	}
	if o.BundleDir == "" && cfg.Migration.BundleDir.Valid {
		o.BundleDir = cfg.Migration.BundleDir.V
	}
}

func (o *BundleOptions) dialect() (dialect.Type, error) {
	if o.Dialect == "" {
		return dialect.Postgres, nil
	}
	typ, err := dialect.TypeFromString(o.Dialect)
	if err != nil {
		return "", aerrors.NewRuntimeError("invalid database type", err,
			"supported types are postgres, sqlserver and sqlite")
	}
	return typ, nil
}

// migrator returns a Migrator that finds bundles in the configured directory,
// unless the app context provides a locator.
func (o *BundleOptions) migrator(appCtx *actx.Context) (*migrate.Migrator, error) {
	locator := appCtx.Locator
	if locator == nil {
		dl, err := source.NewDirLocator(appCtx.FS, o.BundleDir)
		if err != nil {
			return nil, err
		}
		locator = dl
	}

	opts := []migrate.Option{migrate.WithLogger(appCtx.Logger)}
	if appCtx.Opener != nil {
		opts = append(opts, migrate.WithOpener(appCtx.Opener))
	}
	if appCtx.TimeNow != nil {
		opts = append(opts, migrate.WithTimeNow(appCtx.TimeNow))
	}

	//nolint:wrapcheck // Only fails on invalid options.
	return migrate.New(locator, opts...)
}

// MigrationOptions select a script bundle and the databases to apply it to.
type MigrationOptions struct {
	BundleOptions `embed:""`

	Targets          []string      `kong:"name='target',short='t',sep='none',help='Connection string or configured name of a target database. Can be repeated. Defaults to all configured targets.'"`
	Schema           string        `kong:"help='Schema of the ledger table. Defaults to the database type default.'"`
	LedgerTable      string        `kong:"help='Name of the ledger table.'"`
	Timeout          time.Duration `kong:"help='Execution timeout of a single script.'"`
	Concurrency      int           `kong:"short='c',help='Maximum number of targets migrated at the same time.'"`
	ProgressInterval time.Duration `kong:"help='Interval of progress messages while a script is running. 0 disables them.'"`
}

// apply sets options from cfg if they weren't given on the command line. A
// zero progress interval is meaningful, so progressSet reports whether it was.
func (o *MigrationOptions) apply(cfg *config.Config, progressSet bool) {
	o.BundleOptions.apply(cfg)

	m := cfg.Migration
	if o.Schema == "" && m.Schema.Valid {
		o.Schema = m.Schema.V
	}
	if o.LedgerTable == "" && m.LedgerTable.Valid {
		o.LedgerTable = m.LedgerTable.V
	}
	if o.Timeout == 0 && m.Timeout.Valid {
		o.Timeout = m.Timeout.V
	}
	if o.Concurrency == 0 && m.Concurrency.Valid {
		o.Concurrency = m.Concurrency.V
	}
	if !progressSet && m.ProgressInterval.Valid {
		o.ProgressInterval = m.ProgressInterval.V
	}
}

// request builds the migration request. Target values that match a configured
// target name are replaced by that target, others are used as connection
// strings. Environment variables in connection strings are expanded.
func (o *MigrationOptions) request(appCtx *actx.Context) (migrate.Request, error) {
	typ, err := o.dialect()
	if err != nil {
		return migrate.Request{}, err
	}

	var targets []migrate.Target
	if len(o.Targets) == 0 && appCtx.Config != nil {
		targets = append(targets, appCtx.Config.Targets...)
	}
	for _, t := range o.Targets {
		if appCtx.Config != nil {
			if tgt, ok := appCtx.Config.Target(t); ok {
				targets = append(targets, tgt)
				continue
			}
		}
		targets = append(targets, migrate.Target{ConnectionString: t})
	}
	for i := range targets {
		targets[i].ConnectionString = actx.ExpandEnv(appCtx.Env, targets[i].ConnectionString)
	}

	return migrate.Request{
		Project:          o.Project,
		Targets:          targets,
		Folder:           o.Folder,
		Schema:           o.Schema,
		LedgerTable:      o.LedgerTable,
		Timeout:          o.Timeout,
		Concurrency:      o.Concurrency,
		ProgressInterval: o.ProgressInterval,
		Dialect:          typ,
	}, nil
}

// runError converts errors that prevent a run from starting into errors with
// hints for the user.
func runError(err error) error {
	var (
		cfgErr *migrate.ConfigError
		mnfErr *migrate.ModuleNotFoundError
	)
	switch {
	case errors.As(err, &cfgErr):
		return aerrors.NewRuntimeError("invalid migration options", err,
			fmt.Sprintf("set the %s option on the command line or in the configuration file",
				cfgErr.Field))
	case errors.As(err, &mnfErr):
		return aerrors.NewRuntimeError("script bundle not found", err,
			"check the --bundle-dir option or the bundle_dir configuration value",
			"project", mnfErr.Project)
	default:
		return err
	}
}
