package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fwojciec/locxpath"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	cfg, err := c.config()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}

	if !locxpath.ValidURL(c.URL) {
		err := locxpath.Errorf(locxpath.EINVALID, "invalid URL: %q", c.URL)
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}

	pipeline, cleanup, err := deps.newPipeline(cfg)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}
	defer cleanup()

	result := pipeline.Run(deps.Ctx, c.URL, cfg.Targets)

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printReport(deps.Stdout, result, cfg.Targets)
	}

	if !result.Succeeded() {
		return locxpath.Errorf(result.ErrorCode, "%s", result.Error)
	}
	return nil
}

// config returns the configuration for a single extraction: the config
// file when given, else the defaults, with the command line applied.
func (c *ExtractCmd) config() (*Config, error) {
	cfg := DefaultConfig()
	if c.Config != "" {
		loaded, err := LoadConfig(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.TargetElements = c.Elements
	if c.Model != "" {
		cfg.Model = c.Model
	}
	if c.Render {
		cfg.Render = true
	}
	if c.Timeout > 0 {
		cfg.RequestTimeout = c.Timeout.Seconds()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// printReport writes the locator of every element followed by the
// validation details.
func printReport(w io.Writer, r *locxpath.URLResult, targets locxpath.TargetSet) {
	fmt.Fprintf(w, "URL: %s\n", r.URL)
	fmt.Fprintf(w, "Status: %s (%.2fs)\n", r.Status, r.ProcessingSeconds())
	if !r.Succeeded() {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
		return
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range targets.Names() {
		locator := r.Elements[name].Locator
		if locator == "" {
			locator = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, locator)
	}
	tw.Flush()
	fmt.Fprintln(w)

	for _, name := range targets.Names() {
		er := r.Elements[name]
		switch {
		case er.Found:
			fmt.Fprintf(w, "%s: found, %d match(es)\n", name, er.MatchCount)
			if er.ContentPreview != "" {
				fmt.Fprintf(w, "  %s\n", er.ContentPreview)
			}
		case er.Error != "":
			fmt.Fprintf(w, "%s: error: %s\n", name, er.Error)
		default:
			fmt.Fprintf(w, "%s: not found\n", name)
		}
	}
	fmt.Fprintf(w, "\nExtracted %d of %d elements\n", r.Summary.SuccessfulExtractions, r.Summary.TotalElements)
}
