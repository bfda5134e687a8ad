package locxpath

import (
	"context"
	"strconv"
)

// Export column names.
const (
	ColumnURL            = "URL"
	ColumnElementName    = "ElementName"
	ColumnLocator        = "Locator"
	ColumnStatus         = "Status"
	ColumnContentPreview = "ContentPreview"
	ColumnMatchCount     = "MatchCount"
	ColumnProcessingTime = "ProcessingTimeSeconds"
	ColumnErrorMessage   = "ErrorMessage"
)

// DefaultMaxContentLength is the default preview length in exported rows.
const DefaultMaxContentLength = 200

// ExportOptions toggles the optional export columns.
type ExportOptions struct {
	IncludeContentPreview bool `json:"include_content_preview"`
	MaxContentLength      int  `json:"max_content_length"`
	IncludeMatchCount     bool `json:"include_element_count"`
	IncludeProcessingTime bool `json:"include_processing_time"`
}

// DefaultExportOptions returns options with every optional column enabled.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludeContentPreview: true,
		MaxContentLength:      DefaultMaxContentLength,
		IncludeMatchCount:     true,
		IncludeProcessingTime: true,
	}
}

// Header returns the column names for the enabled columns.
// URL, element name, locator, status and error message are always present.
func (o ExportOptions) Header() []string {
	h := []string{ColumnURL, ColumnElementName, ColumnLocator, ColumnStatus}
	if o.IncludeContentPreview {
		h = append(h, ColumnContentPreview)
	}
	if o.IncludeMatchCount {
		h = append(h, ColumnMatchCount)
	}
	if o.IncludeProcessingTime {
		h = append(h, ColumnProcessingTime)
	}
	return append(h, ColumnErrorMessage)
}

// RowStatus is the per-element outcome in exported rows.
type RowStatus string

// RowStatus values.
const (
	RowSuccess RowStatus = "success" // locator matched
	RowFailure RowStatus = "failure" // pipeline ran, locator missing or unmatched
	RowError   RowStatus = "error"   // pipeline failed for the URL
)

// Row is one (URL, element) line of the tabular export.
type Row struct {
	URL               string
	ElementName       string
	Locator           string
	Status            RowStatus
	ContentPreview    string
	MatchCount        int
	ProcessingSeconds float64
	ErrorMessage      string
}

// Values returns the row's cells in Header order.
func (r Row) Values(o ExportOptions) []string {
	v := []string{r.URL, r.ElementName, r.Locator, string(r.Status)}
	if o.IncludeContentPreview {
		v = append(v, r.ContentPreview)
	}
	if o.IncludeMatchCount {
		v = append(v, strconv.Itoa(r.MatchCount))
	}
	if o.IncludeProcessingTime {
		v = append(v, strconv.FormatFloat(r.ProcessingSeconds, 'f', 2, 64))
	}
	return append(v, r.ErrorMessage)
}

// Rows flattens results into exactly targets.Len() rows per result,
// in TargetSet order.
func Rows(results []*URLResult, targets TargetSet, o ExportOptions) []Row {
	rows := make([]Row, 0, len(results)*targets.Len())
	for _, res := range results {
		secs := res.ProcessingSeconds()
		for _, name := range targets.names {
			row := Row{
				URL:               res.URL,
				ElementName:       name,
				ProcessingSeconds: secs,
			}
			if !res.Succeeded() {
				row.Status = RowError
				row.ErrorMessage = res.Error
				rows = append(rows, row)
				continue
			}

			er := res.Elements[name]
			row.Locator = er.Locator
			row.MatchCount = er.MatchCount
			row.ErrorMessage = er.Error
			row.Status = RowFailure
			if er.Found {
				row.Status = RowSuccess
				if o.IncludeContentPreview {
					row.ContentPreview = TruncatePreview(er.ContentPreview, o.MaxContentLength)
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// ResultExporter writes the tabular form of a run's results.
type ResultExporter interface {
	Export(ctx context.Context, results []*URLResult, targets TargetSet, opts ExportOptions) error
}
