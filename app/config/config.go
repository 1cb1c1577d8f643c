package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/dbmigrate/dialect"
	"go.hackfix.me/dbmigrate/migrate"
	"go.hackfix.me/dbmigrate/xtime"
)

// Default configuration values.
const (
	DefaultLedgerTable      = "dbversion"
	DefaultProgressInterval = 15 * time.Second
)

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	// Project is the name of the script bundle to apply.
	Project   sql.Null[string]
	Migration Migration
	// Targets are the named databases migrated when none are given on the
	// command line. Connection strings may reference environment variables,
	// e.g. ${CRM_DB_PASSWORD}.
	Targets []migrate.Target

	fs   vfs.FileSystem
	path string
}

// Migration defines the options of a migration run.
type Migration struct {
	Dialect     sql.Null[dialect.Type]
	Folder      sql.Null[string]
	Schema      sql.Null[string]
	LedgerTable sql.Null[string]
	// Timeout is the per-script execution timeout.
	// It serializes from/to xtime.Duration string values.
	Timeout          sql.Null[time.Duration]
	Concurrency      sql.Null[int]
	ProgressInterval sql.Null[time.Duration]
	// BundleDir is the directory containing project script bundles. If unset,
	// the directory of the executable is used.
	BundleDir sql.Null[string]
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Exists reports whether the configuration file exists.
func (c *Config) Exists() (bool, error) {
	_, err := c.fs.Stat(c.path)
	switch {
	case err == nil:
		return true, nil
	case vfs.IsErrNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed checking configuration file: %w", err)
	}
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o600); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Target returns the configured target with the given name, ignoring case.
func (c *Config) Target(name string) (migrate.Target, bool) {
	for _, t := range c.Targets {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return migrate.Target{}, false
}

type cfgWrapper struct {
	Project   string           `json:"project,omitempty"`
	Migration migCfgWrapper    `json:"migration"`
	Targets   []migrate.Target `json:"targets,omitempty"`
}
type migCfgWrapper struct {
	Dialect          string `json:"dialect,omitempty"`
	Folder           string `json:"folder,omitempty"`
	Schema           string `json:"schema,omitempty"`
	LedgerTable      string `json:"ledger_table,omitempty"`
	Timeout          string `json:"timeout,omitempty"`
	Concurrency      int    `json:"concurrency,omitempty"`
	ProgressInterval string `json:"progress_interval,omitempty"`
	BundleDir        string `json:"bundle_dir,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{Targets: c.Targets}
	m := c.Migration

	if c.Project.Valid {
		w.Project = c.Project.V
	}
	if m.Dialect.Valid {
		w.Migration.Dialect = string(m.Dialect.V)
	}
	if m.Folder.Valid {
		w.Migration.Folder = m.Folder.V
	}
	if m.Schema.Valid {
		w.Migration.Schema = m.Schema.V
	}
	if m.LedgerTable.Valid {
		w.Migration.LedgerTable = m.LedgerTable.V
	}
	if m.Timeout.Valid {
		w.Migration.Timeout = xtime.FormatDuration(m.Timeout.V, time.Second)
	}
	if m.Concurrency.Valid {
		w.Migration.Concurrency = m.Concurrency.V
	}
	if m.ProgressInterval.Valid {
		w.Migration.ProgressInterval = xtime.FormatDuration(m.ProgressInterval.V, time.Second)
	}
	if m.BundleDir.Valid {
		w.Migration.BundleDir = m.BundleDir.V
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types and parse duration strings into time.Duration values.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}
	m := &c.Migration

	if w.Project != "" {
		c.Project = sql.Null[string]{V: w.Project, Valid: true}
	}
	if w.Migration.Dialect != "" {
		typ, err := dialect.TypeFromString(w.Migration.Dialect)
		if err != nil {
			return err
		}
		m.Dialect = sql.Null[dialect.Type]{V: typ, Valid: true}
	}
	if w.Migration.Folder != "" {
		m.Folder = sql.Null[string]{V: w.Migration.Folder, Valid: true}
	}
	if w.Migration.Schema != "" {
		m.Schema = sql.Null[string]{V: w.Migration.Schema, Valid: true}
	}
	if w.Migration.LedgerTable != "" {
		m.LedgerTable = sql.Null[string]{V: w.Migration.LedgerTable, Valid: true}
	}
	if w.Migration.Timeout != "" {
		dur, err := xtime.ParseDuration(w.Migration.Timeout)
		if err != nil {
			return fmt.Errorf("failed parsing script timeout: %w", err)
		}
		m.Timeout = sql.Null[time.Duration]{V: dur, Valid: true}
	}
	if w.Migration.Concurrency != 0 {
		if w.Migration.Concurrency < 0 {
			return errors.New("concurrency must be a positive number")
		}
		m.Concurrency = sql.Null[int]{V: w.Migration.Concurrency, Valid: true}
	}
	if w.Migration.ProgressInterval != "" {
		dur, err := xtime.ParseDuration(w.Migration.ProgressInterval)
		if err != nil {
			return fmt.Errorf("failed parsing progress interval: %w", err)
		}
		m.ProgressInterval = sql.Null[time.Duration]{V: dur, Valid: true}
	}
	if w.Migration.BundleDir != "" {
		m.BundleDir = sql.Null[string]{V: w.Migration.BundleDir, Valid: true}
	}

	for i, t := range w.Targets {
		if strings.TrimSpace(t.ConnectionString) == "" {
			return fmt.Errorf("target %d has an empty connection string", i)
		}
	}
	c.Targets = w.Targets

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	m := &c.Migration
	if !m.Dialect.Valid {
		m.Dialect = sql.Null[dialect.Type]{V: dialect.Postgres, Valid: true}
	}
	if !m.Folder.Valid {
		m.Folder = sql.Null[string]{V: migrate.DefaultFolder, Valid: true}
	}
	if !m.LedgerTable.Valid {
		m.LedgerTable = sql.Null[string]{V: DefaultLedgerTable, Valid: true}
	}
	if !m.Timeout.Valid {
		m.Timeout = sql.Null[time.Duration]{V: migrate.DefaultTimeout, Valid: true}
	}
	if !m.Concurrency.Valid {
		m.Concurrency = sql.Null[int]{V: migrate.DefaultConcurrency, Valid: true}
	}
	if !m.ProgressInterval.Valid {
		m.ProgressInterval = sql.Null[time.Duration]{V: DefaultProgressInterval, Valid: true}
	}
}
