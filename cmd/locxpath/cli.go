package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/locxpath"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Getenv func(string) string
	Now    func() time.Time

	// Injected services; nil ones are built from the run configuration.
	Fetcher      locxpath.Fetcher
	Inferrer     locxpath.Inferrer
	TokenCounter locxpath.TokenCounter
	Sitemaps     locxpath.SitemapService
	Exporter     locxpath.ResultExporter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log every fetch, LLM call and validation to stderr"`

	Run            RunCmd            `cmd:"" help:"Run a batch extraction from a config file"`
	Extract        ExtractCmd        `cmd:"" help:"Infer locators for a single URL"`
	Clean          CleanCmd          `cmd:"" help:"Fetch pages and save their cleaned HTML"`
	Runs           RunsCmd           `cmd:"" help:"List the runs stored in a SQLite export"`
	InitConfig     InitConfigCmd     `cmd:"" name:"init-config" help:"Write a config file template"`
	ValidateConfig ValidateConfigCmd `cmd:"" name:"validate-config" help:"Check a config file and summarize it"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Config    string `short:"c" required:"" help:"Config file path"`
	Quiet     bool   `short:"q" help:"Only print errors"`
	ShowStats bool   `name:"show-stats" help:"Print performance statistics"`
	Render    bool   `help:"Render pages with headless Chrome (overrides config)"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL      string        `arg:"" help:"Page URL"`
	Elements []string      `arg:"" help:"Element names to locate (e.g. title body author)"`
	Config   string        `short:"c" help:"Config file for model and timeout settings"`
	Model    string        `help:"Gemini model (overrides config)"`
	Render   bool          `help:"Render the page with headless Chrome"`
	Timeout  time.Duration `short:"t" help:"Fetch timeout (overrides config)"`
	JSON     bool          `help:"Print the result as JSON"`
}

// CleanCmd is the "clean" subcommand.
type CleanCmd struct {
	URLs        []string      `arg:"" optional:"" help:"Page URLs"`
	File        string        `short:"f" help:"File with one URL per line"`
	Output      string        `short:"o" default:"cleaned" help:"Directory for the cleaned pages"`
	Summary     string        `help:"Summary file (default: cleaning_summary.txt in the output directory)"`
	Concurrency int           `default:"20" help:"Pages processed at once"`
	Timeout     time.Duration `short:"t" default:"30s" help:"Fetch timeout"`
	HostRPS     float64       `name:"host-rps" help:"Requests per second per host (0 = unlimited)"`
	Render      bool          `help:"Render pages with headless Chrome"`
	Quiet       bool          `short:"q" help:"Only print errors"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Database string `arg:"" help:"SQLite export file (.db or .sqlite)"`
	Limit    int    `short:"n" default:"20" help:"Maximum runs to list (0 = all)"`
	Offset   int    `help:"Runs to skip"`
}

// InitConfigCmd is the "init-config" subcommand.
type InitConfigCmd struct {
	Path  string `arg:"" help:"Where to write the template"`
	Force bool   `short:"f" help:"Overwrite an existing file"`
}

// ValidateConfigCmd is the "validate-config" subcommand.
type ValidateConfigCmd struct {
	Path string `arg:"" help:"Config file path"`
}
