package migrate

import (
	"errors"
	"fmt"
	"time"
)

// State is the position of a target in the migration lifecycle.
type State string

// Valid states, in lifecycle order.
const (
	StateInit         State = "init"
	StateEnsureLedger State = "ensure_ledger"
	StateSeedIfEmpty  State = "seed"
	StateRunPre       State = "pre"
	StateRunMain      State = "main"
	StateRunPost      State = "post"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Script is a reference to a script in a ScriptSource.
type Script struct {
	// Name is the full name in the source.
	Name string
	// DisplayName is shown in logs. It's the version for versioned scripts,
	// and the free text for rerunnable ones.
	DisplayName string
	// Version is zero for rerunnable scripts.
	Version Version
	// Order is the execution position of rerunnable scripts.
	Order      int
	Rerunnable bool
}

// LedgerEntry is a row of the ledger table.
type LedgerEntry struct {
	Version   Version
	AppliedAt time.Time
}

// Failure describes why a target stopped.
type Failure struct {
	Phase State
	// Script is the display name of the failing script, "base" for the seed
	// script, or the folder name if the failure isn't tied to a single script.
	Script string
	Err    error
}

// Error returns a string representation of the failure.
func (f *Failure) Error() string {
	if f.Script == "" {
		return fmt.Sprintf("%s phase failed: %v", f.Phase, f.Err)
	}
	return fmt.Sprintf("%s phase failed on script %s: %v", f.Phase, f.Script, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome is the result of migrating a single target.
type Outcome struct {
	Name             string
	ConnectionString string
	Success          bool
	// State is StateDone on success, StateFailed otherwise.
	State State
	// Applied lists the versions recorded in the ledger during this run, in
	// application order.
	Applied []Version
	Failure *Failure
	Elapsed time.Duration
}

// Result is the result of a migration run, with one Outcome per target in
// request order.
type Result struct {
	RunID   string
	Targets []Outcome
	// Success is true only if every target succeeded.
	Success bool
}

// Err returns all target failures joined, or nil.
func (r *Result) Err() error {
	var errs []error
	for _, o := range r.Targets {
		if o.Failure != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", o.Name, o.Failure))
		}
	}
	return errors.Join(errs...)
}
