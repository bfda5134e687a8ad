package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/locxpath"
	"github.com/google/uuid"
)

// Ensure Exporter implements locxpath.ResultExporter at compile time.
var _ locxpath.ResultExporter = (*Exporter)(nil)

// Run is one exported run as stored in the runs table.
type Run struct {
	ID           string
	Targets      []string
	URLCount     int
	SuccessCount int
	ErrorCount   int
	ExportedAt   time.Time
}

// Exporter writes each export as a new run with its result rows. A run is
// written in a single transaction, so a failed export leaves no partial run.
type Exporter struct {
	db  *DB
	Now func() time.Time

	lastRunID string
}

// NewExporter creates an Exporter on an open DB.
func NewExporter(db *DB) *Exporter {
	return &Exporter{db: db, Now: time.Now}
}

// LastRunID returns the ID of the most recent successful export.
func (e *Exporter) LastRunID() string {
	return e.lastRunID
}

// Export stores results as a new run.
func (e *Exporter) Export(ctx context.Context, results []*locxpath.URLResult, targets locxpath.TargetSet, opts locxpath.ExportOptions) error {
	tx, err := e.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	run := Run{
		ID:         uuid.New().String(),
		Targets:    targets.Names(),
		URLCount:   len(results),
		ExportedAt: e.Now().UTC(),
	}
	for _, r := range results {
		if r.Succeeded() {
			run.SuccessCount++
		} else {
			run.ErrorCount++
		}
	}

	targetsJSON, err := json.Marshal(run.Targets)
	if err != nil {
		return fmt.Errorf("encode targets: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, targets, url_count, success_count, error_count, exported_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, string(targetsJSON), run.URLCount, run.SuccessCount, run.ErrorCount,
		run.ExportedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, position, url, element_name, locator, status,
			content_preview, match_count, processing_seconds, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer stmt.Close()

	for i, row := range locxpath.Rows(results, targets, opts) {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, row.URL, row.ElementName, row.Locator, string(row.Status),
			nullable(row.ContentPreview, opts.IncludeContentPreview),
			nullable(row.MatchCount, opts.IncludeMatchCount),
			nullable(row.ProcessingSeconds, opts.IncludeProcessingTime),
			row.ErrorMessage,
		); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	e.lastRunID = run.ID
	return nil
}

// ListRuns returns exported runs, newest first.
func (e *Exporter) ListRuns(ctx context.Context, limit, offset int) ([]*Run, error) {
	var query strings.Builder
	query.WriteString(`
		SELECT id, targets, url_count, success_count, error_count, exported_at
		FROM runs
		ORDER BY exported_at DESC, rowid DESC
	`)
	var args []any
	appendPagination(&query, &args, limit, offset)

	rows, err := e.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var targets, exportedAt string
		if err := rows.Scan(&run.ID, &targets, &run.URLCount, &run.SuccessCount, &run.ErrorCount, &exportedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(targets), &run.Targets); err != nil {
			return nil, fmt.Errorf("decode targets: %w", err)
		}
		if run.ExportedAt, err = parseRFC3339(exportedAt, "exported_at"); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
