package context

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// VersionInfo is the build version of the application.
type VersionInfo struct {
	Semantic string
	Commit   string
	Dirty    bool
}

// GetVersion returns the version information embedded in the binary.
func GetVersion() (*VersionInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("failed reading build information")
	}

	vi := &VersionInfo{Semantic: bi.Main.Version}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vi.Commit = s.Value
		case "vcs.modified":
			vi.Dirty = s.Value == "true"
		}
	}

	return vi, nil
}

func (vi *VersionInfo) String() string {
	ver := vi.Semantic
	if ver == "" {
		ver = "(devel)"
	}
	if vi.Commit == "" {
		return ver
	}

	commit := vi.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if vi.Dirty {
		commit += "-dirty"
	}

	return fmt.Sprintf("%s (%s)", ver, commit)
}
