package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/dbmigrate/migrate"
)

// DirLocator finds script bundles as subdirectories of Dir, matching the
// project name case-insensitively.
type DirLocator struct {
	FS  vfs.FileSystem
	Dir string
}

var _ migrate.Locator = (*DirLocator)(nil)

// NewDirLocator returns a locator of bundles under dir. If dir is empty, the
// directory of the running executable is used.
func NewDirLocator(fs vfs.FileSystem, dir string) (*DirLocator, error) {
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed resolving executable path: %w", err)
		}
		dir = filepath.Dir(exe)
	}
	return &DirLocator{FS: fs, Dir: dir}, nil
}

// Locate returns the bundle directory of project as a source. The namespace of
// the source is the directory name.
func (l *DirLocator) Locate(_ context.Context, project string) (migrate.ScriptSource, error) {
	entries, err := vfs.ReadDir(l.FS, l.Dir)
	if err != nil {
		if vfs.IsErrNotExist(err) {
			return nil, &migrate.ModuleNotFoundError{Project: project, Location: l.Dir}
		}
		return nil, fmt.Errorf("failed reading bundle directory '%s': %w", l.Dir, err)
	}

	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), project) {
			return NewFS(l.FS, filepath.Join(l.Dir, e.Name()), e.Name()), nil
		}
	}

	return nil, &migrate.ModuleNotFoundError{Project: project, Location: l.Dir}
}

// StaticLocator serves a fixed set of sources, matched case-insensitively by
// namespace.
type StaticLocator []migrate.ScriptSource

var _ migrate.Locator = StaticLocator(nil)

// Locate returns the source whose namespace matches project.
func (l StaticLocator) Locate(_ context.Context, project string) (migrate.ScriptSource, error) {
	for _, src := range l {
		if strings.EqualFold(src.Namespace(), project) {
			return src, nil
		}
	}
	return nil, &migrate.ModuleNotFoundError{Project: project}
}
