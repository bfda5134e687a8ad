package mock

import (
	"context"

	"github.com/fwojciec/locxpath"
)

var _ locxpath.ResultExporter = (*ResultExporter)(nil)

// ResultExporter is a mock implementation of locxpath.ResultExporter.
type ResultExporter struct {
	ExportFn func(ctx context.Context, results []*locxpath.URLResult, targets locxpath.TargetSet, opts locxpath.ExportOptions) error
}

func (e *ResultExporter) Export(ctx context.Context, results []*locxpath.URLResult, targets locxpath.TargetSet, opts locxpath.ExportOptions) error {
	return e.ExportFn(ctx, results, targets, opts)
}
