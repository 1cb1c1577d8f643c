package app

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/require"

	actx "go.hackfix.me/dbmigrate/app/context"
)

var timeNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func timeNowFn() time.Time {
	return timeNow
}

type testApp struct {
	*App
	fs             vfs.FileSystem
	stdout, stderr *safeBuffer
	env            *mockEnv
}

func newTestApp(ctx context.Context, t *testing.T, opts ...Option) *testApp {
	t.Helper()

	fs := memoryfs.New()
	stdout, stderr := newSafeBuffer(), newSafeBuffer()
	env := &mockEnv{env: map[string]string{}}
	defaultOpts := []Option{
		WithTimeNow(timeNowFn),
		WithEnv(env),
		WithContext(ctx),
		WithFDs(&bytes.Buffer{}, stdout, stderr),
		WithFS(fs),
		WithLogger(false, false),
	}
	app, err := New("dbmigrate", "/config.json", append(defaultOpts, opts...)...)
	require.NoError(t, err)

	return &testApp{App: app, fs: fs, stdout: stdout, stderr: stderr, env: env}
}

// Run resets the output buffers and runs the app with the given arguments.
// Each call uses a fresh CLI and reloads the configuration file, so nothing
// carries over between runs except the filesystem.
func (ta *testApp) Run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()

	fresh, err := New(ta.name, "/config.json")
	if err != nil {
		return err
	}
	ta.cli = fresh.cli
	ta.ctx.Config = nil

	return ta.App.Run(args)
}

// writeFiles writes files to the app filesystem.
func (ta *testApp) writeFiles(t *testing.T, files map[string]string) {
	t.Helper()
	for path, data := range files {
		require.NoError(t, ta.fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, vfs.WriteFile(ta.fs, path, []byte(data), 0o644))
	}
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = (*mockEnv)(nil)

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}

// safeBuffer is a thread-safe buffer.
type safeBuffer struct {
	mx  sync.RWMutex
	buf *bytes.Buffer
}

var _ io.Writer = (*safeBuffer)(nil)

func newSafeBuffer() *safeBuffer {
	return &safeBuffer{buf: &bytes.Buffer{}}
}

func (b *safeBuffer) Write(p []byte) (n int, err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Reset() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.buf.Reset()
}

func (b *safeBuffer) String() string {
	b.mx.RLock()
	defer b.mx.RUnlock()
	return b.buf.String()
}
