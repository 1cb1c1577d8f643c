package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
)

// LevelTrace is a log level more verbose than debug.
const LevelTrace = slog.Level(-8)

const baseScriptName = "base"

// Catalog discovers scripts in a ScriptSource. Results aren't cached, so every
// call reflects the current source contents.
type Catalog struct {
	source     ScriptSource
	extensions []string
	logger     *slog.Logger
}

// NewCatalog returns a Catalog of scripts in src that have one of the given
// extensions, e.g. ".psql".
func NewCatalog(src ScriptSource, extensions []string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		source:     src,
		extensions: extensions,
		logger:     logger.With("component", "catalog"),
	}
}

// folderScript is a script under <namespace>.<folder>., with rest holding the
// part of the name after the folder token and before the extension.
type folderScript struct {
	name string
	rest string
}

// folder returns the scripts under the given folder, sorted by name.
func (c *Catalog) folder(ctx context.Context, folder string) ([]folderScript, error) {
	names, err := c.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed listing scripts: %w", err)
	}

	prefix := c.source.Namespace() + "." + folder + "."
	var scripts []folderScript
	for _, name := range names {
		if len(name) <= len(prefix) || !strings.EqualFold(name[:len(prefix)], prefix) {
			continue
		}
		ext := c.extension(name)
		if ext == "" {
			continue
		}
		rest := name[len(prefix) : len(name)-len(ext)]
		if rest == "" {
			continue
		}
		scripts = append(scripts, folderScript{name: name, rest: rest})
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].name < scripts[j].name
	})

	return scripts, nil
}

// extension returns the allowed extension name ends with, or "".
func (c *Catalog) extension(name string) string {
	for _, ext := range c.extensions {
		if len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext) {
			return name[len(name)-len(ext):]
		}
	}
	return ""
}

// Versioned returns the versioned scripts in folder, sorted by ascending
// version. Scripts without a parsable positive version are skipped. It returns
// a *DuplicateVersionError if two scripts have the same version.
func (c *Catalog) Versioned(ctx context.Context, folder string) ([]Script, error) {
	fscripts, err := c.folder(ctx, folder)
	if err != nil {
		return nil, err
	}

	var (
		scripts []Script
		seen    = map[string]string{}
	)
	for _, fs := range fscripts {
		if strings.EqualFold(fs.rest, baseScriptName) {
			continue
		}
		logger := c.logger.With("script", fs.name)

		tokens := versionTokens(fs.rest)
		if tokens == "" {
			logger.Log(ctx, LevelTrace, "skipping script without version number")
			continue
		}
		ver, err := ParseVersion(tokens)
		if err != nil {
			logger.Warn("skipping script with invalid version number", "version", tokens)
			continue
		}
		if !ver.IsPositive() {
			logger.Log(ctx, LevelTrace, "skipping script with non-positive version", "version", ver)
			continue
		}

		key := ver.String()
		if prev, ok := seen[key]; ok {
			return nil, &DuplicateVersionError{Version: ver, Names: []string{prev, fs.name}}
		}
		seen[key] = fs.name

		scripts = append(scripts, Script{
			Name:        fs.name,
			DisplayName: key,
			Version:     ver,
		})
	}

	slices.SortFunc(scripts, func(a, b Script) int {
		return a.Version.Cmp(b.Version)
	})

	return scripts, nil
}

// Rerunnable returns the scripts in folder, sorted by their display name
// ignoring case. The returned scripts have Order set to their position.
func (c *Catalog) Rerunnable(ctx context.Context, folder string) ([]Script, error) {
	fscripts, err := c.folder(ctx, folder)
	if err != nil {
		return nil, err
	}

	scripts := make([]Script, 0, len(fscripts))
	for _, fs := range fscripts {
		scripts = append(scripts, Script{
			Name:        fs.name,
			DisplayName: fs.rest,
			Rerunnable:  true,
		})
	}

	slices.SortStableFunc(scripts, func(a, b Script) int {
		if n := strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)); n != 0 {
			return n
		}
		return strings.Compare(a.Name, b.Name)
	})
	for i := range scripts {
		scripts[i].Order = i
	}

	return scripts, nil
}

// Base returns the seed script and its text. The returned script is nil if no
// non-blank seed script exists.
func (c *Catalog) Base(ctx context.Context) (*Script, string, error) {
	names, err := c.source.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed listing scripts: %w", err)
	}

	for _, ext := range c.extensions {
		want := c.source.Namespace() + "." + baseScriptName + ext
		idx := slices.IndexFunc(names, func(name string) bool {
			return strings.EqualFold(name, want)
		})
		if idx == -1 {
			continue
		}

		text, err := c.source.Read(ctx, names[idx])
		if err != nil {
			return nil, "", fmt.Errorf("failed reading base script: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		return &Script{
			Name:        names[idx],
			DisplayName: baseScriptName,
			Version:     NewVersion(0),
		}, text, nil
	}

	return nil, "", nil
}

// versionTokens joins the purely numeric dot-separated tokens of s.
func versionTokens(s string) string {
	var nums []string
	for tok := range strings.SplitSeq(s, ".") {
		if tok != "" && strings.Trim(tok, "0123456789") == "" {
			nums = append(nums, tok)
		}
	}
	return strings.Join(nums, ".")
}
