package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"go.hackfix.me/dbmigrate/migrate"
)

// Embedded is a script source backed by an fs.FS, typically an embed.FS
// compiled into the binary.
type Embedded struct {
	fsys      fs.FS
	root      string
	namespace string
}

var _ migrate.ScriptSource = (*Embedded)(nil)

// NewEmbedded returns a source of the files under root in fsys. Use "." for
// the whole filesystem.
func NewEmbedded(fsys fs.FS, root, namespace string) *Embedded {
	return &Embedded{fsys: fsys, root: root, namespace: namespace}
}

// Namespace returns the source namespace.
func (s *Embedded) Namespace() string {
	return s.namespace
}

// List returns the names of all files under the root directory.
func (s *Embedded) List(ctx context.Context) ([]string, error) {
	var names []string
	err := fs.WalkDir(s.fsys, s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := path
		if s.root != "." {
			rel = path[len(s.root)+1:]
		}
		names = append(names, scriptName(s.namespace, rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed listing embedded scripts: %w", err)
	}
	sort.Strings(names)

	return names, nil
}

// Read returns the contents of the named script.
func (s *Embedded) Read(ctx context.Context, name string) (string, error) {
	names, err := s.List(ctx)
	if err != nil {
		return "", err
	}

	// Dots in names are ambiguous, so resolve names through the listing.
	idx := sort.SearchStrings(names, name)
	if idx == len(names) || names[idx] != name {
		return "", fmt.Errorf("%w: %s", migrate.ErrScriptNotFound, name)
	}

	var data []byte
	err = fs.WalkDir(s.fsys, s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := path
		if s.root != "." {
			rel = path[len(s.root)+1:]
		}
		if scriptName(s.namespace, rel) != name {
			return nil
		}
		if data, err = fs.ReadFile(s.fsys, path); err != nil {
			return err
		}
		return fs.SkipAll
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return "", fmt.Errorf("failed reading script '%s': %w", name, err)
	}

	return string(data), nil
}
