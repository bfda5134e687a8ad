package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/extract"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	cfg, err := LoadConfig(c.Config)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}
	if c.Render {
		cfg.Render = true
	}
	for _, w := range cfg.Warnings {
		fmt.Fprintf(deps.Stderr, "warning: %s\n", w)
	}

	out := deps.Stdout
	if c.Quiet {
		out = io.Discard
	}
	fmt.Fprintln(out, "Config loaded")

	urls, err := deps.collectURLs(deps.Ctx, cfg)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}
	if len(urls) == 0 {
		err := locxpath.Errorf(locxpath.EINVALID, "no valid URLs to process")
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}

	pipeline, cleanup, err := deps.newPipeline(cfg)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}
	defer cleanup()

	exporter, closeExporter, err := deps.newExporter(cfg)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}
	defer closeExporter()

	fmt.Fprintf(out, "Processing %d URLs\n", len(urls))
	fmt.Fprintf(out, "Target elements: %s\n", cfg.Targets)

	driver := &extract.BatchDriver{
		Runner:       pipeline,
		BatchSize:    cfg.BatchSize,
		RestInterval: cfg.RestInterval(),
		Now:          deps.Now,
		Progress: func(p extract.Progress) {
			fmt.Fprintf(out, "\r%s", p)
		},
	}

	begin := deps.Now()
	results, _ := driver.Run(deps.Ctx, urls, cfg.Targets)
	wall := deps.Now().Sub(begin)
	fmt.Fprintln(out)

	// Results of an interrupted run are still exported.
	exportCtx := context.WithoutCancel(deps.Ctx)
	if err := exporter.Export(exportCtx, results, cfg.Targets, cfg.OutputFormat); err != nil {
		fmt.Fprintf(deps.Stderr, "error exporting results: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "Results exported to %s\n", cfg.OutputFile)

	stats := locxpath.ComputeStats(results, wall)
	printSummary(out, stats)
	if c.ShowStats {
		printPerformance(out, stats, cfg.MaxGlobalConcurrent)
	}

	if err := deps.Ctx.Err(); err != nil {
		fmt.Fprintln(deps.Stderr, "interrupted: unfinished URLs were recorded as canceled")
		return err
	}
	return nil
}

var rule = strings.Repeat("=", 60)

func printSummary(w io.Writer, s locxpath.Stats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Batch summary")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "URLs: %d\n", s.URLs)
	fmt.Fprintf(w, "Succeeded: %d (%.1f%%)\n", s.SuccessfulURLs, s.URLSuccessRate())
	fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", s.FailedURLs, s.URLFailureRate())
	fmt.Fprintf(w, "Elements: %d\n", s.TotalElements)
	fmt.Fprintf(w, "Extracted: %d (%.1f%%)\n", s.SuccessfulExtractions, s.ExtractionRate())
	fmt.Fprintf(w, "Not extracted: %d\n", s.FailedExtractions)
	fmt.Fprintf(w, "Average time per URL: %.2fs\n", s.AverageDuration.Seconds())
	fmt.Fprintf(w, "Overall QPS: %.2f\n", s.QPS)
	fmt.Fprintf(w, "Total time: %.2fs\n", s.WallTime.Seconds())
	if s.PromptTokens > 0 {
		fmt.Fprintf(w, "Prompt tokens: %s\n", extract.FormatTokens(s.PromptTokens))
	}
	fmt.Fprintln(w, rule)
}

func printPerformance(w io.Writer, s locxpath.Stats, maxGlobal int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total time: %.2fs\n", s.WallTime.Seconds())
	fmt.Fprintf(w, "Overall QPS: %.2f\n", s.QPS)
	if s.URLs > 0 {
		perURL := s.WallTime / time.Duration(s.URLs)
		fmt.Fprintf(w, "Average wall time per URL: %.2fs\n", perURL.Seconds())
	} else {
		fmt.Fprintln(w, "Average wall time per URL: N/A")
	}
	if maxGlobal > 0 {
		fmt.Fprintf(w, "Concurrency efficiency: %.2f%%\n", s.QPS/float64(maxGlobal)*100)
	} else {
		fmt.Fprintln(w, "Concurrency efficiency: N/A")
	}
	fmt.Fprintln(w, rule)
}
