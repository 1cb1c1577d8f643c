package config

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/dbmigrate/dialect"
	"go.hackfix.me/dbmigrate/migrate"
)

func TestConfigLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		check     func(t *testing.T, c *Config)
		expErrMsg string
	}{
		{
			name: "ok/missing_file",
			check: func(t *testing.T, c *Config) {
				assert.False(t, c.Project.Valid)
				assert.Empty(t, c.Targets)
			},
		},
		{
			name: "ok/full",
			data: `{
				"project": "crm",
				"migration": {
					"dialect": "SQLServer",
					"folder": "Migrations",
					"schema": "app",
					"ledger_table": "schema_version",
					"timeout": "2m",
					"concurrency": 4,
					"progress_interval": "1m30s",
					"bundle_dir": "/opt/bundles"
				},
				"targets": [
					{"name": "primary", "connection_string": "Server=db1;Database=crm"},
					{"connection_string": "Server=db2;Database=crm_eu"}
				]
			}`,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, sql.Null[string]{V: "crm", Valid: true}, c.Project)
				m := c.Migration
				assert.Equal(t, dialect.SQLServer, m.Dialect.V)
				assert.Equal(t, "Migrations", m.Folder.V)
				assert.Equal(t, "app", m.Schema.V)
				assert.Equal(t, "schema_version", m.LedgerTable.V)
				assert.Equal(t, 2*time.Minute, m.Timeout.V)
				assert.Equal(t, 4, m.Concurrency.V)
				assert.Equal(t, 90*time.Second, m.ProgressInterval.V)
				assert.Equal(t, "/opt/bundles", m.BundleDir.V)
				assert.Equal(t, []migrate.Target{
					{Name: "primary", ConnectionString: "Server=db1;Database=crm"},
					{ConnectionString: "Server=db2;Database=crm_eu"},
				}, c.Targets)

				tgt, ok := c.Target("PRIMARY")
				assert.True(t, ok)
				assert.Equal(t, "Server=db1;Database=crm", tgt.ConnectionString)
				_, ok = c.Target("secondary")
				assert.False(t, ok)
			},
		},
		{
			name: "ok/day_units",
			data: `{"migration": {"timeout": "1d"}}`,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 24*time.Hour, c.Migration.Timeout.V)
			},
		},
		{
			name:      "err/dialect",
			data:      `{"migration": {"dialect": "oracle"}}`,
			expErrMsg: "unsupported database type 'oracle'",
		},
		{
			name:      "err/timeout",
			data:      `{"migration": {"timeout": "soon"}}`,
			expErrMsg: "failed parsing script timeout",
		},
		{
			name:      "err/concurrency",
			data:      `{"migration": {"concurrency": -1}}`,
			expErrMsg: "concurrency must be a positive number",
		},
		{
			name:      "err/target",
			data:      `{"targets": [{"name": "a"}]}`,
			expErrMsg: "target 0 has an empty connection string",
		},
		{
			name:      "err/blank_target",
			data:      `{"targets": [{"name": "a", "connection_string": "db"}, {"name": "b", "connection_string": "  "}]}`,
			expErrMsg: "target 1 has an empty connection string",
		},
		{
			name:      "err/json",
			data:      `{"project": `,
			expErrMsg: "failed parsing configuration file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memoryfs.New()
			if tt.data != "" {
				require.NoError(t, vfs.WriteFile(fs, "/config.json", []byte(tt.data), 0o644))
			}

			c := NewConfig(fs, "/config.json")
			err := c.Load()
			if tt.expErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expErrMsg)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestConfigSaveRoundtrip(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	c := NewConfig(fs, "/home/user/.config/dbmigrate/config.json")

	ok, err := c.Exists()
	require.NoError(t, err)
	assert.False(t, ok)

	c.Project = sql.Null[string]{V: "crm", Valid: true}
	c.Targets = []migrate.Target{{Name: "local", ConnectionString: "file:crm.db"}}
	c.SetDefaults()
	require.NoError(t, c.Save())

	ok, err = c.Exists()
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := vfs.ReadFile(fs, c.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"project": "crm",
		"migration": {
			"dialect": "postgres",
			"folder": "SqlFiles",
			"ledger_table": "dbversion",
			"timeout": "30s",
			"concurrency": 1,
			"progress_interval": "15s"
		},
		"targets": [{"name": "local", "connection_string": "file:crm.db"}]
	}`, string(data))

	loaded := NewConfig(fs, c.Path())
	require.NoError(t, loaded.Load())
	assert.Equal(t, c.Project, loaded.Project)
	assert.Equal(t, c.Migration, loaded.Migration)
	assert.Equal(t, c.Targets, loaded.Targets)
}

func TestConfigSetDefaults(t *testing.T) {
	t.Parallel()

	c := NewConfig(memoryfs.New(), "/config.json")
	c.Migration.Timeout = sql.Null[time.Duration]{V: time.Minute, Valid: true}
	c.SetDefaults()

	assert.Equal(t, time.Minute, c.Migration.Timeout.V)
	assert.Equal(t, dialect.Postgres, c.Migration.Dialect.V)
	assert.Equal(t, "SqlFiles", c.Migration.Folder.V)
	assert.Equal(t, "dbversion", c.Migration.LedgerTable.V)
	assert.Equal(t, 1, c.Migration.Concurrency.V)
	assert.Equal(t, 15*time.Second, c.Migration.ProgressInterval.V)
	assert.False(t, c.Migration.Schema.Valid)
	assert.False(t, c.Migration.BundleDir.Valid)
}
