package context

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/dbmigrate/app/config"
	"go.hackfix.me/dbmigrate/migrate"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx     context.Context  // global context
	FS      vfs.FileSystem   // filesystem
	Env     Environment      // process environment
	Logger  *slog.Logger     // global logger
	TimeNow func() time.Time // current time
	Config  *config.Config

	// Locator finds script bundles. If nil, bundles are looked up in the
	// configured bundle directory.
	Locator migrate.Locator
	// Opener connects to target databases. If nil, the dialect driver is used.
	Opener migrate.Opener

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Metadata
	Version *VersionInfo
}
