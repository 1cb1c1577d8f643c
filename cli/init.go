package cli

import (
	"database/sql"
	"slices"
	"strings"

	actx "go.hackfix.me/dbmigrate/app/context"
	aerrors "go.hackfix.me/dbmigrate/app/errors"
	"go.hackfix.me/dbmigrate/dialect"
	"go.hackfix.me/dbmigrate/migrate"
)

// The Init command writes a configuration file with the given values, and
// defaults for everything else.
type Init struct {
	Force     bool              `kong:"help='Overwrite an existing configuration file.'"`
	Project   string            `kong:"short='p',help='Name of the script bundle.'"`
	Dialect   string            `kong:"short='d',default='postgres',help='Database type: postgres, sqlserver or sqlite.'"`
	BundleDir string            `kong:"help='Directory containing script bundles.'"`
	Targets   map[string]string `kong:"name='target',short='t',mapsep='none',placeholder='NAME=CONNECTION',help='Named target database. Can be repeated.'"`
}

// Run the init command.
func (c *Init) Run(appCtx *actx.Context) error {
	cfg := appCtx.Config
	exists, err := cfg.Exists()
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}
	if exists && !c.Force {
		return aerrors.NewRuntimeError("configuration file already exists", nil,
			"use --force to overwrite it", "path", cfg.Path())
	}

	typ, err := dialect.TypeFromString(c.Dialect)
	if err != nil {
		return aerrors.NewRuntimeError("invalid database type", err,
			"supported types are postgres, sqlserver and sqlite")
	}

	cfg.Migration.Dialect = sql.Null[dialect.Type]{V: typ, Valid: true}
	if c.Project != "" {
		cfg.Project = sql.Null[string]{V: c.Project, Valid: true}
	}
	if c.BundleDir != "" {
		cfg.Migration.BundleDir = sql.Null[string]{V: c.BundleDir, Valid: true}
	}
	if len(c.Targets) > 0 {
		cfg.Targets = nil
		names := make([]string, 0, len(c.Targets))
		for name := range c.Targets {
			names = append(names, name)
		}
		slices.SortFunc(names, func(a, b string) int {
			return strings.Compare(strings.ToLower(a), strings.ToLower(b))
		})
		for _, name := range names {
			cfg.Targets = append(cfg.Targets, migrate.Target{
				Name: name, ConnectionString: c.Targets[name],
			})
		}
	}
	cfg.SetDefaults()

	if err = cfg.Save(); err != nil {
		return aerrors.NewRuntimeError("failed saving configuration", err, "")
	}

	appCtx.Logger.Info("created configuration file", "path", cfg.Path(), "targets", len(cfg.Targets))

	return nil
}
