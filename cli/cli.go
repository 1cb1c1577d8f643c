package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/dbmigrate/app/config"
	actx "go.hackfix.me/dbmigrate/app/context"
)

// CLI is the command line interface of dbmigrate.
type CLI struct {
	Init    Init    `kong:"cmd,help='Create the configuration file.'"`
	Migrate Migrate `kong:"cmd,help='Apply missing scripts to target databases.'"`
	Status  Status  `kong:"cmd,help='Show applied and pending versions of target databases.'"`
	Scripts Scripts `kong:"cmd,help='List the scripts of a bundle in execution order.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG-4,DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level. DEBUG-4 also logs every script and state change."`
	} `embed:"" prefix:"log-"`
	// NOTE: Configuration is managed independently from the CLI, so
	// kong.ConfigFlag isn't used.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the dbmigrate configuration file.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("dbmigrate"),
		kong.Description("Forward-only schema migrations for Postgres, SQL Server and SQLite."),
		kong.UsageOnError(),
		kong.DefaultEnvars("DBMIGRATE"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set. Values missing from the configuration get their defaults.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	eff := *cfg
	eff.SetDefaults()

	progressSet := c.flagSet("progress-interval")
	c.Migrate.MigrationOptions.apply(&eff, progressSet)
	c.Status.MigrationOptions.apply(&eff, progressSet)
	c.Scripts.BundleOptions.apply(&eff)
}

// flagSet reports whether the named flag was given on the command line or
// through its environment variable.
func (c *CLI) flagSet(name string) bool {
	if c.kctx == nil {
		return false
	}
	for _, f := range c.kctx.Flags() {
		if f.Name == name {
			return f.Set
		}
	}
	return false
}
