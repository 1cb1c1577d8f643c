package source

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.hackfix.me/dbmigrate/migrate"
)

// Memory is an in-memory script source, keyed by full script name.
type Memory struct {
	namespace string
	mu        sync.RWMutex
	scripts   map[string]string
}

var _ migrate.ScriptSource = (*Memory)(nil)

// NewMemory returns a source with the given scripts. Keys are script names
// relative to the namespace, e.g. "SqlFiles.1.psql".
func NewMemory(namespace string, scripts map[string]string) *Memory {
	m := &Memory{namespace: namespace, scripts: make(map[string]string, len(scripts))}
	for name, text := range scripts {
		m.scripts[namespace+"."+name] = text
	}
	return m
}

// Namespace returns the source namespace.
func (m *Memory) Namespace() string {
	return m.namespace
}

// Set adds or replaces a script, using a name relative to the namespace.
func (m *Memory) Set(name, text string) {
	m.mu.Lock()
	m.scripts[m.namespace+"."+name] = text
	m.mu.Unlock()
}

// List returns the names of all scripts.
func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.scripts)), nil
}

// Read returns the text of the named script.
func (m *Memory) Read(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.scripts[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", migrate.ErrScriptNotFound, name)
	}
	return text, nil
}
