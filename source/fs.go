package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/dbmigrate/migrate"
)

// FS is a script source backed by a directory on a virtual filesystem.
type FS struct {
	fs        vfs.FileSystem
	root      string
	namespace string

	mu    sync.Mutex
	index map[string]string // script name -> file path
}

var _ migrate.ScriptSource = (*FS)(nil)

// NewFS returns a source of the files under root in fs.
func NewFS(fs vfs.FileSystem, root, namespace string) *FS {
	return &FS{fs: fs, root: root, namespace: namespace}
}

// Namespace returns the source namespace.
func (s *FS) Namespace() string {
	return s.namespace
}

// List returns the names of all files under the root directory.
func (s *FS) List(ctx context.Context) ([]string, error) {
	index := map[string]string{}
	if err := s.walk(ctx, s.root, "", index); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// Read returns the contents of the named script.
func (s *FS) Read(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	index := s.index
	s.mu.Unlock()

	path, ok := index[name]
	if !ok {
		if _, err := s.List(ctx); err != nil {
			return "", err
		}
		s.mu.Lock()
		path, ok = s.index[name]
		s.mu.Unlock()
		if !ok {
			return "", fmt.Errorf("%w: %s", migrate.ErrScriptNotFound, name)
		}
	}

	data, err := vfs.ReadFile(s.fs, path)
	if err != nil {
		if vfs.IsErrNotExist(err) {
			return "", fmt.Errorf("%w: %s", migrate.ErrScriptNotFound, name)
		}
		return "", fmt.Errorf("failed reading script '%s': %w", name, err)
	}

	return string(data), nil
}

func (s *FS) walk(ctx context.Context, dir, prefix string, index map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := vfs.ReadDir(s.fs, dir)
	if err != nil {
		return fmt.Errorf("failed reading directory '%s': %w", dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(dir, name)
		if e.IsDir() {
			if err := s.walk(ctx, path, prefix+name+".", index); err != nil {
				return err
			}
			continue
		}
		index[s.namespace+"."+prefix+name] = path
	}

	return nil
}

// scriptName converts a slash separated relative path to a script name.
func scriptName(namespace, rel string) string {
	return namespace + "." + strings.ReplaceAll(rel, "/", ".")
}
