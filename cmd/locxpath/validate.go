package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/locxpath"
)

// Run executes the validate-config command.
func (c *ValidateConfigCmd) Run(deps *Dependencies) error {
	cfg, err := LoadConfig(c.Path)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}
	for _, w := range cfg.Warnings {
		fmt.Fprintf(deps.Stderr, "warning: %s\n", w)
	}

	if len(cfg.URLs) == 0 && cfg.Sitemap == "" {
		err := locxpath.Errorf(locxpath.EINVALID, "config has no valid URLs")
		fmt.Fprintf(deps.Stderr, "error: %s\n", locxpath.ErrorMessage(err))
		return err
	}

	if dir := filepath.Dir(cfg.OutputFile); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			fmt.Fprintf(deps.Stderr, "warning: output directory does not exist: %s\n", dir)
		}
	}

	fmt.Fprintln(deps.Stdout, "Config is valid")
	fmt.Fprintf(deps.Stdout, "  URLs: %d\n", len(cfg.URLs))
	if cfg.Sitemap != "" {
		fmt.Fprintf(deps.Stdout, "  Sitemap: %s\n", cfg.Sitemap)
	}
	fmt.Fprintf(deps.Stdout, "  Target elements: %d (%s)\n", cfg.Targets.Len(), cfg.Targets)
	fmt.Fprintf(deps.Stdout, "  Concurrency: fetch %d, LLM %d, global %d\n",
		cfg.MaxHTTPConcurrent, cfg.MaxLLMConcurrent, cfg.MaxGlobalConcurrent)
	fmt.Fprintf(deps.Stdout, "  Batch size: %d\n", cfg.BatchSize)
	fmt.Fprintf(deps.Stdout, "  Retry count: %d (not enforced)\n", cfg.RetryCount)
	fmt.Fprintf(deps.Stdout, "  Model: %s\n", cfg.Model)
	fmt.Fprintf(deps.Stdout, "  Output file: %s\n", cfg.OutputFile)
	return nil
}
