package main

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/bloom"
	"github.com/fwojciec/locxpath/extract"
	"github.com/fwojciec/locxpath/fs"
	"github.com/fwojciec/locxpath/goquery"
	locslog "github.com/fwojciec/locxpath/slog"
)

// summaryName is the default summary file name inside the output directory.
const summaryName = "cleaning_summary.txt"

// Run executes the clean command.
func (c *CleanCmd) Run(deps *Dependencies) error {
	if err := c.validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}

	urls, err := c.urls(deps.Stderr)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}

	governor, err := extract.NewGovernor(extract.Limits{Fetch: c.Concurrency, Global: c.Concurrency})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}

	cfg := DefaultConfig()
	cfg.RequestTimeout = c.Timeout.Seconds()
	cfg.Render = c.Render
	fetcher, cleanup, err := deps.newFetcher(cfg)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}
	defer cleanup()

	out := deps.Stdout
	if c.Quiet {
		out = io.Discard
	}

	cleaner := &extract.PageCleaner{
		Fetcher:  locslog.NewLoggingFetcher(fetcher, deps.Logger),
		Cleaner:  goquery.NewCleaner(goquery.WithAttributeFilter()),
		Store:    fs.NewPageStore(c.Output),
		Governor: governor,
		Now:      deps.Now,
		Progress: func(p extract.Progress) {
			fmt.Fprintf(out, "\r%s", p)
		},
	}
	if c.HostRPS > 0 {
		cleaner.DomainLimiter = extract.NewDomainLimiter(c.HostRPS, 1)
	}

	fmt.Fprintf(out, "Cleaning %d URLs into %s\n", len(urls), c.Output)
	results, progress := cleaner.CleanAll(deps.Ctx, urls)
	fmt.Fprintln(out)

	summary := c.summaryPath()
	if err := writeCleanSummary(summary, results, deps.Now()); err != nil {
		fmt.Fprintf(deps.Stderr, "error writing summary: %v\n", err)
		return err
	}

	for _, r := range results {
		if !r.Succeeded() {
			fmt.Fprintf(deps.Stderr, "failed: %s: %s\n", r.URL, r.Error)
		}
	}
	fmt.Fprintf(out, "Cleaned %d of %d pages\n", progress.Succeeded, progress.Total)
	fmt.Fprintf(out, "Summary written to %s\n", summary)

	if err := deps.Ctx.Err(); err != nil {
		fmt.Fprintln(deps.Stderr, "interrupted; summary covers the pages processed so far")
		return err
	}
	return nil
}

func (c *CleanCmd) validate() error {
	if c.Concurrency <= 0 {
		return locxpath.Errorf(locxpath.EINVALID, "concurrency must be positive")
	}
	if c.Timeout <= 0 {
		return locxpath.Errorf(locxpath.EINVALID, "timeout must be positive")
	}
	if c.HostRPS < 0 {
		return locxpath.Errorf(locxpath.EINVALID, "host-rps must not be negative")
	}
	if strings.TrimSpace(c.Output) == "" {
		return locxpath.Errorf(locxpath.EINVALID, "output directory is required")
	}
	return nil
}

// urls gathers the argument and file URLs, dropping invalid ones with a
// warning and keeping the first occurrence of each.
func (c *CleanCmd) urls(stderr io.Writer) ([]string, error) {
	var urls []string
	for _, u := range c.URLs {
		u = strings.TrimSpace(u)
		if !locxpath.ValidURL(u) {
			fmt.Fprintf(stderr, "warning: invalid URL skipped: %s\n", u)
			continue
		}
		urls = append(urls, u)
	}
	if c.File != "" {
		loaded, warnings, err := fs.LoadURLs(c.File)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			fmt.Fprintf(stderr, "warning: %s\n", w)
		}
		urls = append(urls, loaded...)
	}

	urls = bloom.Dedupe(urls)
	if len(urls) == 0 {
		return nil, locxpath.Errorf(locxpath.EINVALID, "no valid URLs to clean: pass URLs or --file")
	}
	return urls, nil
}

func (c *CleanCmd) summaryPath() string {
	if c.Summary != "" {
		return c.Summary
	}
	return filepath.Join(c.Output, summaryName)
}

// writeCleanSummary writes the totals followed by the stored and the
// failed pages.
func writeCleanSummary(path string, results []*locxpath.CleanResult, at time.Time) error {
	f, err := fs.CreateAtomic(path)
	if err != nil {
		return err
	}
	defer f.Abort()

	var ok, failed []*locxpath.CleanResult
	for _, r := range results {
		if r.Succeeded() {
			ok = append(ok, r)
		} else {
			failed = append(failed, r)
		}
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "Batch cleaning summary")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Processed at: %s\n", at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Total: %d\n", len(results))
	fmt.Fprintf(w, "Succeeded: %d\n", len(ok))
	fmt.Fprintf(w, "Failed: %d\n", len(failed))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Succeeded:")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	for _, r := range ok {
		fmt.Fprintf(w, "✓ %s -> %s\n", r.URL, r.Path)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Failed:")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	for _, r := range failed {
		fmt.Fprintf(w, "✗ %s - %s\n", r.URL, r.Error)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Commit()
}
