package cli

import (
	"strconv"

	actx "go.hackfix.me/dbmigrate/app/context"
	aerrors "go.hackfix.me/dbmigrate/app/errors"
	"go.hackfix.me/dbmigrate/migrate"
)

// The Scripts command lists the scripts of a bundle in the order they would
// run on an empty database.
type Scripts struct {
	BundleOptions `embed:""`
}

// Run the scripts command.
func (c *Scripts) Run(appCtx *actx.Context) error {
	typ, err := c.dialect()
	if err != nil {
		return err
	}

	m, err := c.migrator(appCtx)
	if err != nil {
		return err
	}

	b, err := m.Scripts(appCtx.Ctx, migrate.Request{
		Project: c.Project, Folder: c.Folder, Dialect: typ,
	})
	if err != nil {
		return runError(err)
	}

	var data [][]string
	if b.Base != nil {
		data = append(data, []string{"seed", "-", b.Base.DisplayName, b.Base.Name})
	}
	for _, s := range b.Pre {
		data = append(data, []string{"pre", strconv.Itoa(s.Order), s.DisplayName, s.Name})
	}
	for _, s := range b.Versioned {
		data = append(data, []string{"main", s.Version.String(), s.DisplayName, s.Name})
	}
	for _, s := range b.Post {
		data = append(data, []string{"post", strconv.Itoa(s.Order), s.DisplayName, s.Name})
	}

	header := []string{"Phase", "Order", "Script", "Name"}
	if err = renderTable(header, data, appCtx.Stdout); err != nil {
		return err
	}

	if b.Duplicate != nil {
		return aerrors.NewRuntimeError("bundle contains duplicate versions", b.Duplicate,
			"rename one of the scripts, no versioned script will run until then",
			"version", b.Duplicate.Version.String(), "scripts", b.Duplicate.Names)
	}

	return nil
}
