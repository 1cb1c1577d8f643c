package cli

import (
	"strings"
	"time"

	actx "go.hackfix.me/dbmigrate/app/context"
	"go.hackfix.me/dbmigrate/migrate"
	"go.hackfix.me/dbmigrate/xtime"
)

// The Status command shows the applied and pending versions of target
// databases, without modifying them.
type Status struct {
	MigrationOptions `embed:""`

	History bool `kong:"help='List every applied version instead of a summary.'"`
}

// Run the status command.
func (c *Status) Run(appCtx *actx.Context) error {
	req, err := c.request(appCtx)
	if err != nil {
		return err
	}

	m, err := c.migrator(appCtx)
	if err != nil {
		return err
	}

	statuses, err := m.Status(appCtx.Ctx, req)
	if err != nil {
		return runError(err)
	}

	timeNow := time.Now
	if appCtx.TimeNow != nil {
		timeNow = appCtx.TimeNow
	}
	age := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		// The server clock may be ahead of ours.
		return xtime.FormatDuration(max(timeNow().Sub(t), 0), time.Minute) + " ago"
	}

	var (
		header []string
		data   [][]string
	)
	if c.History {
		header = []string{"Target", "Version", "Applied At", "Age"}
		for _, st := range statuses {
			for _, e := range st.Entries {
				data = append(data, []string{
					st.Name, e.Version.String(),
					e.AppliedAt.Format("2006-01-02 15:04:05"), age(e.AppliedAt),
				})
			}
		}
	} else {
		header = []string{"Target", "Version", "Last Applied", "Pending", "Error"}
		for _, st := range statuses {
			if st.Err != nil {
				data = append(data, []string{st.Name, "-", "-", "-", st.Err.Error()})
				continue
			}
			current, lastApplied := "-", "-"
			if len(st.Entries) > 0 {
				current = st.Entries[0].Version.String()
				lastApplied = age(latest(st.Entries))
			}
			pending := make([]string, len(st.Pending))
			for i, s := range st.Pending {
				pending[i] = s.DisplayName
			}
			data = append(data, []string{st.Name, current, lastApplied, joinOrDash(pending), "-"})
		}
	}

	return renderTable(header, data, appCtx.Stdout)
}

// latest returns the most recent applied-at time of entries.
func latest(entries []migrate.LedgerEntry) time.Time {
	var t time.Time
	for _, e := range entries {
		if e.AppliedAt.After(t) {
			t = e.AppliedAt
		}
	}
	return t
}

func joinOrDash(strs []string) string {
	return orDash(strings.Join(strs, ", "))
}
