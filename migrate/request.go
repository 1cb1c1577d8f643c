package migrate

import (
	"fmt"
	"strings"
	"time"

	"go.hackfix.me/dbmigrate/dialect"
)

// Request defaults.
const (
	DefaultFolder      = "SqlFiles"
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 1
)

// Target is a database to migrate.
type Target struct {
	// Name is an optional label used in logs and outcomes.
	Name             string `json:"name,omitempty"`
	ConnectionString string `json:"connection_string"`
}

// DisplayName returns the target name, falling back to the database name
// found in the connection string.
func (t Target) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return dialect.TargetName(t.ConnectionString)
}

// Request describes a migration run.
type Request struct {
	// Project is the name of the script bundle.
	Project string
	Targets []Target
	// Folder is the name of the versioned scripts folder.
	Folder string
	// Schema that holds the ledger table. If empty, the dialect default is
	// used.
	Schema string
	// LedgerTable is the name of the ledger table. It's required.
	LedgerTable string
	// Timeout is the per-script execution timeout.
	Timeout time.Duration
	// Concurrency is the maximum number of targets migrated at the same time.
	Concurrency int
	// ProgressInterval is the period of progress events emitted while a single
	// script is running. Zero disables them.
	ProgressInterval time.Duration
	Dialect          dialect.Type
}

// Validate checks the request for errors, and returns a *ConfigError if any
// are found.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Project) == "" {
		return &ConfigError{Field: "project", Msg: "project name is required"}
	}
	if len(r.Targets) == 0 {
		return &ConfigError{Field: "targets", Msg: "at least one target is required"}
	}
	for i, t := range r.Targets {
		if strings.TrimSpace(t.ConnectionString) == "" {
			return &ConfigError{
				Field: "targets",
				Msg:   fmt.Sprintf("target %d has an empty connection string", i),
			}
		}
	}
	if strings.TrimSpace(r.LedgerTable) == "" {
		return &ConfigError{Field: "ledger_table", Msg: "ledger table name is required"}
	}
	if err := dialect.ValidateIdentifier(r.LedgerTable); err != nil {
		return &ConfigError{Field: "ledger_table", Msg: err.Error()}
	}
	if r.Schema != "" {
		if err := dialect.ValidateIdentifier(r.Schema); err != nil {
			return &ConfigError{Field: "schema", Msg: err.Error()}
		}
	}
	if r.Dialect != "" {
		if _, err := dialect.TypeFromString(string(r.Dialect)); err != nil {
			return &ConfigError{Field: "dialect", Msg: err.Error()}
		}
	}
	if r.Timeout < 0 {
		return &ConfigError{Field: "timeout", Msg: "timeout can't be negative"}
	}
	if r.ProgressInterval < 0 {
		return &ConfigError{Field: "progress_interval", Msg: "progress interval can't be negative"}
	}

	return nil
}

// normalize validates the request and returns a copy with defaults applied,
// along with its dialect.
func (r Request) normalize() (Request, dialect.Dialect, error) {
	if err := r.Validate(); err != nil {
		return Request{}, nil, err
	}

	r.Targets = append([]Target(nil), r.Targets...)
	if r.Folder == "" {
		r.Folder = DefaultFolder
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultTimeout
	}
	if r.Concurrency < DefaultConcurrency {
		r.Concurrency = DefaultConcurrency
	}
	if r.Dialect == "" {
		r.Dialect = dialect.Postgres
	}
	typ, err := dialect.TypeFromString(string(r.Dialect))
	if err != nil {
		return Request{}, nil, &ConfigError{Field: "dialect", Msg: err.Error()}
	}
	r.Dialect = typ
	d, err := dialect.Get(typ)
	if err != nil {
		return Request{}, nil, &ConfigError{Field: "dialect", Msg: err.Error()}
	}
	if r.Schema == "" {
		r.Schema = d.DefaultSchema()
	}

	return r, d, nil
}
