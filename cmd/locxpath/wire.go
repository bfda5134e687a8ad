package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/bloom"
	loccsv "github.com/fwojciec/locxpath/csv"
	"github.com/fwojciec/locxpath/extract"
	"github.com/fwojciec/locxpath/gemini"
	"github.com/fwojciec/locxpath/goquery"
	"github.com/fwojciec/locxpath/htmlquery"
	lochttp "github.com/fwojciec/locxpath/http"
	"github.com/fwojciec/locxpath/rod"
	locslog "github.com/fwojciec/locxpath/slog"
	"github.com/fwojciec/locxpath/sqlite"
	"google.golang.org/genai"
)

// newPipeline builds the single-target pipeline described by cfg. The
// returned cleanup releases the fetcher when it was built here.
func (deps *Dependencies) newPipeline(cfg *Config) (*extract.Pipeline, func() error, error) {
	governor, err := extract.NewGovernor(cfg.Limits())
	if err != nil {
		return nil, nil, err
	}

	fetcher, cleanup, err := deps.newFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}

	inferrer, counter, err := deps.newInferrer(cfg)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}

	var limiter locxpath.DomainLimiter
	if cfg.HostRPS > 0 {
		limiter = extract.NewDomainLimiter(cfg.HostRPS, 1)
	}

	return &extract.Pipeline{
		Fetcher:       locslog.NewLoggingFetcher(fetcher, deps.Logger),
		DomainLimiter: limiter,
		Cleaner:       goquery.NewCleaner(),
		Summarizer:    goquery.NewSummarizer(),
		Inferrer:      locslog.NewLoggingInferrer(inferrer, deps.Logger),
		Validator:     locslog.NewLoggingValidator(htmlquery.NewValidator(), deps.Logger),
		Governor:      governor,
		TokenCounter:  counter,
		LLMTimeout:    seconds(cfg.LLMTimeout),
		Now:           deps.Now,
	}, cleanup, nil
}

func (deps *Dependencies) newFetcher(cfg *Config) (locxpath.Fetcher, func() error, error) {
	if deps.Fetcher != nil {
		return deps.Fetcher, func() error { return nil }, nil
	}

	if cfg.Render {
		f, err := rod.NewFetcher(rod.WithFetchTimeout(seconds(cfg.RequestTimeout)))
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed for render mode")
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		return f, f.Close, nil
	}

	opts := []lochttp.Option{
		lochttp.WithTimeout(seconds(cfg.RequestTimeout)),
		lochttp.WithPoolSize(cfg.ConnectionPoolSize),
		lochttp.WithMaxConnsPerHost(cfg.MaxConnsPerHost),
	}
	f := lochttp.NewFetcher(opts...)
	return f, f.Close, nil
}

// newInferrer returns the configured inferrer and, when one can be built,
// a token counter for the prompts.
func (deps *Dependencies) newInferrer(cfg *Config) (locxpath.Inferrer, locxpath.TokenCounter, error) {
	if deps.Inferrer != nil {
		return deps.Inferrer, deps.TokenCounter, nil
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = deps.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = deps.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(deps.Stderr, "Hint: set GEMINI_API_KEY or api_key in the config. Get a key at https://aistudio.google.com/apikey")
		return nil, nil, locxpath.Errorf(locxpath.EINVALID, "GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(deps.Ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: check that your API key is valid")
		return nil, nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	inferrer := gemini.NewInferrer(client,
		gemini.WithModel(cfg.Model),
		gemini.WithTemperature(float32(cfg.Temperature)),
		gemini.WithMaxOutputTokens(int32(cfg.MaxTokens)),
	)

	counter := deps.TokenCounter
	if counter == nil {
		tc, err := gemini.NewTokenCounter(cfg.Model)
		if err != nil {
			deps.Logger.Warn("token counting disabled", "model", cfg.Model, "err", err)
		} else {
			counter = tc
		}
	}
	return inferrer, counter, nil
}

// newExporter picks the exporter by output file extension: .db and .sqlite
// select SQLite, anything else CSV.
func (deps *Dependencies) newExporter(cfg *Config) (locxpath.ResultExporter, func() error, error) {
	if deps.Exporter != nil {
		return deps.Exporter, func() error { return nil }, nil
	}

	switch strings.ToLower(filepath.Ext(cfg.OutputFile)) {
	case ".db", ".sqlite":
		db := sqlite.NewDB(cfg.OutputFile)
		if err := db.Open(); err != nil {
			return nil, nil, fmt.Errorf("failed to open database at %q: %w", cfg.OutputFile, err)
		}
		return sqlite.NewExporter(db), db.Close, nil
	default:
		return loccsv.NewExporter(cfg.OutputFile), func() error { return nil }, nil
	}
}

func (deps *Dependencies) sitemaps() locxpath.SitemapService {
	if deps.Sitemaps != nil {
		return locslog.NewLoggingSitemapService(deps.Sitemaps, deps.Logger)
	}
	return locslog.NewLoggingSitemapService(lochttp.NewSitemapService(nil), deps.Logger)
}

// collectURLs adds the sitemap's URLs to the configured ones, keeping the
// first occurrence of each and dropping excluded URLs.
func (deps *Dependencies) collectURLs(ctx context.Context, cfg *Config) ([]string, error) {
	if cfg.Sitemap == "" {
		return cfg.URLs, nil
	}
	filter, err := cfg.SitemapFilter()
	if err != nil {
		return nil, err
	}
	discovered, err := deps.sitemaps().DiscoverURLs(ctx, cfg.Sitemap, filter)
	if err != nil {
		return nil, err
	}
	urls := append(append([]string{}, cfg.URLs...), discovered...)
	return bloom.Exclude(bloom.Dedupe(urls), cfg.Excluded), nil
}
