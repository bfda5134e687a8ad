package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/sqlite"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	if c.Limit < 0 || c.Offset < 0 {
		err := locxpath.Errorf(locxpath.EINVALID, "limit and offset must not be negative")
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}
	if _, err := os.Stat(c.Database); err != nil {
		err := locxpath.Errorf(locxpath.ENOTFOUND, "export database not found: %s", c.Database)
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}

	db := sqlite.NewDB(c.Database)
	if err := db.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: failed to open database at %q: %v\n", c.Database, err)
		return err
	}
	defer db.Close()

	runs, err := sqlite.NewExporter(db).ListRuns(deps.Ctx, c.Limit, c.Offset)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'locxpath run' with a .db output_file to store one.")
		return nil
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEXPORTED\tURLS\tOK\tERRORS\tTARGETS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.ExportedAt.Local().Format(time.DateTime), r.URLCount, r.SuccessCount, r.ErrorCount,
			strings.Join(r.Targets, ", "))
	}
	return tw.Flush()
}
