// Package csv exports run results as a UTF-8 CSV file that spreadsheet
// applications open with the right encoding.
package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/fs"
)

// bom marks the file as UTF-8 for Excel.
const bom = "\ufeff"

// Ensure Exporter implements locxpath.ResultExporter at compile time.
var _ locxpath.ResultExporter = (*Exporter)(nil)

// Exporter writes one row per (URL, element) to a CSV file. The file is
// replaced atomically once every row has been written.
type Exporter struct {
	path string
}

// NewExporter creates an Exporter writing to path.
func NewExporter(path string) *Exporter {
	return &Exporter{path: path}
}

// Path returns the output path.
func (e *Exporter) Path() string {
	return e.path
}

// Export writes the results.
func (e *Exporter) Export(ctx context.Context, results []*locxpath.URLResult, targets locxpath.TargetSet, opts locxpath.ExportOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := fs.CreateAtomic(e.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", e.path, err)
	}
	defer f.Abort()

	buf := bufio.NewWriter(f)
	if _, err := buf.WriteString(bom); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}

	w := csv.NewWriter(buf)
	if err := w.Write(opts.Header()); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}
	for i, row := range locxpath.Rows(results, targets, opts) {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := w.Write(row.Values(opts)); err != nil {
			return fmt.Errorf("write %s: %w", e.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}

	if err := f.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", e.path, err)
	}
	return nil
}
