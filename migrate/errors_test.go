package migrate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	t.Run("ok/config", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("starting run: %w", &ConfigError{Field: "project", Msg: "project name is required"})
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "project", cfgErr.Field)
		assert.EqualError(t, cfgErr, "invalid migration request: project name is required")
	})

	t.Run("ok/module_not_found", func(t *testing.T) {
		t.Parallel()
		var mnfErr *ModuleNotFoundError
		require.ErrorAs(t, error(&ModuleNotFoundError{Project: "crm"}), &mnfErr)
		assert.EqualError(t, mnfErr, "script bundle 'crm' not found")

		mnfErr.Location = "/opt/bundles"
		assert.EqualError(t, mnfErr, "script bundle 'crm' not found in /opt/bundles")
	})

	t.Run("ok/duplicate_version", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("main phase: %w", &DuplicateVersionError{
			Version: MustParseVersion("1.5"),
			Names:   []string{"crm.SqlFiles.1.5.sqlite", "crm.SqlFiles.1.50.sqlite"},
		})
		var dupErr *DuplicateVersionError
		require.True(t, errors.As(err, &dupErr))
		assert.EqualError(t, dupErr,
			"duplicate script version 1.5: crm.SqlFiles.1.5.sqlite, crm.SqlFiles.1.50.sqlite")
	})
}
