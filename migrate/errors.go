package migrate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrScriptNotFound is returned by a ScriptSource when a script doesn't exist.
var ErrScriptNotFound = errors.New("script not found")

// ConfigError represents an invalid migration request. It's raised before any
// database is touched.
type ConfigError struct {
	Field string
	Msg   string
}

// Error returns a string representation of the error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid migration request: %s", e.Msg)
}

// ModuleNotFoundError is returned when the script bundle of a project can't be
// located.
type ModuleNotFoundError struct {
	Project  string
	Location string
}

// Error returns a string representation of the error.
func (e *ModuleNotFoundError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("script bundle '%s' not found", e.Project)
	}
	return fmt.Sprintf("script bundle '%s' not found in %s", e.Project, e.Location)
}

// DuplicateVersionError is returned when two scripts resolve to the same
// version. It's a content problem in the bundle, so retrying won't help.
type DuplicateVersionError struct {
	Version Version
	Names   []string
}

// Error returns a string representation of the error.
func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("duplicate script version %s: %s", e.Version, strings.Join(e.Names, ", "))
}

var (
	_ error = (*ConfigError)(nil)
	_ error = (*ModuleNotFoundError)(nil)
	_ error = (*DuplicateVersionError)(nil)
)

func errUnknownState(s State) error {
	return fmt.Errorf("unknown migration state '%s'", s)
}
