package migrate

import "context"

// ScriptSource is a read-only, flat namespace of named scripts. Names follow
// the convention:
//
//	<namespace>.<folder>.<version tokens>.<ext>   versioned scripts
//	<namespace>.pre.<free text>.<ext>             rerunnable scripts
//	<namespace>.post.<free text>.<ext>            rerunnable scripts
//	<namespace>.base.<ext>                        optional seed script
type ScriptSource interface {
	// Namespace is the prefix all script names start with.
	Namespace() string

	// List returns the names of all scripts in the source.
	List(ctx context.Context) ([]string, error)

	// Read returns the full text of the script with the exact given name. It
	// returns an error wrapping ErrScriptNotFound if the script doesn't exist.
	Read(ctx context.Context, name string) (string, error)
}

// Locator finds the script bundle of a project.
type Locator interface {
	// Locate returns the ScriptSource of the given project, or a
	// *ModuleNotFoundError if it can't be found.
	Locate(ctx context.Context, project string) (ScriptSource, error)
}
