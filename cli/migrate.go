package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	actx "go.hackfix.me/dbmigrate/app/context"
	aerrors "go.hackfix.me/dbmigrate/app/errors"
)

// The Migrate command applies missing scripts to target databases, and prints
// the outcome of each target.
type Migrate struct {
	MigrationOptions `embed:""`
}

// Run the migrate command.
func (c *Migrate) Run(appCtx *actx.Context) error {
	req, err := c.request(appCtx)
	if err != nil {
		return err
	}

	m, err := c.migrator(appCtx)
	if err != nil {
		return err
	}

	// Cancel in-flight scripts if a process signal is received. Scripts that
	// already committed stay applied.
	ctx, cancel := context.WithCancel(appCtx.Ctx)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case s := <-sigCh:
			appCtx.Logger.Warn("process received signal, canceling migration", "signal", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	res, err := m.Migrate(ctx, req)
	if err != nil {
		return runError(err)
	}

	data := make([][]string, 0, len(res.Targets))
	failed := 0
	for _, o := range res.Targets {
		row := []string{o.Name, "ok", joinVersions(o.Applied), "-", "-", "-"}
		if o.Failure != nil {
			failed++
			row[1] = "failed"
			row[3] = string(o.Failure.Phase)
			row[4] = orDash(o.Failure.Script)
			row[5] = o.Failure.Err.Error()
		}
		row = append(row, o.Elapsed.Round(time.Millisecond).String())
		data = append(data, row)
	}

	header := []string{"Target", "Result", "Applied", "Phase", "Script", "Error", "Elapsed"}
	if err = renderTable(header, data, appCtx.Stdout); err != nil {
		return err
	}

	if !res.Success {
		return aerrors.NewRuntimeError(
			fmt.Sprintf("migration failed on %d of %d targets", failed, len(res.Targets)),
			nil, "successful targets keep the versions they applied, so it's safe to run again",
			"run_id", res.RunID)
	}

	return nil
}
