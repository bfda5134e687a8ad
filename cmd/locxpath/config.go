package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/bloom"
	"github.com/fwojciec/locxpath/extract"
	"github.com/fwojciec/locxpath/fs"
	"github.com/fwojciec/locxpath/gemini"
)

// Config is a run configuration as read from a JSON file. Keys missing from
// the file keep the values of DefaultConfig.
type Config struct {
	TargetElements  []string `json:"target_elements"`
	URLs            []string `json:"urls,omitempty"`
	URLsFile        string   `json:"urls_file,omitempty"`
	ExcludeURLsFile string   `json:"exclude_urls_file,omitempty"`
	Sitemap         string   `json:"sitemap,omitempty"`
	SitemapInclude  []string `json:"sitemap_include,omitempty"`
	SitemapExclude  []string `json:"sitemap_exclude,omitempty"`

	MaxHTTPConcurrent   int     `json:"max_http_concurrent"`
	MaxLLMConcurrent    int     `json:"max_llm_concurrent"`
	MaxGlobalConcurrent int     `json:"max_global_concurrent"`
	BatchSize           int     `json:"batch_size"`
	BatchRestTime       float64 `json:"batch_rest_time"`
	RequestTimeout      float64 `json:"request_timeout"`
	LLMTimeout          float64 `json:"llm_timeout"`
	RetryCount          int     `json:"retry_count"`
	ConnectionPoolSize  int     `json:"connection_pool_size"`
	MaxConnsPerHost     int     `json:"max_conns_per_host"`
	HostRPS             float64 `json:"host_rps"`
	Render              bool    `json:"render"`

	Model       string  `json:"model"`
	APIKey      string  `json:"api_key,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`

	OutputFile   string                 `json:"output_file"`
	OutputFormat locxpath.ExportOptions `json:"output_format"`

	// Set by LoadConfig.
	Targets  locxpath.TargetSet `json:"-"`
	Excluded []string           `json:"-"`
	Warnings []string           `json:"-"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	limits := extract.DefaultLimits()
	return &Config{
		MaxHTTPConcurrent:   limits.Fetch,
		MaxLLMConcurrent:    limits.LLM,
		MaxGlobalConcurrent: limits.Global,
		BatchSize:           extract.DefaultBatchSize,
		BatchRestTime:       extract.DefaultRestInterval.Seconds(),
		RequestTimeout:      30,
		LLMTimeout:          60,
		RetryCount:          3,
		ConnectionPoolSize:  100,
		MaxConnsPerHost:     5,
		Model:               gemini.DefaultModel,
		Temperature:         gemini.DefaultTemperature,
		MaxTokens:           gemini.DefaultMaxOutputTokens,
		OutputFile:          "batch_results.csv",
		OutputFormat:        locxpath.DefaultExportOptions(),
	}
}

// TemplateConfig returns the config written by init-config.
func TemplateConfig() *Config {
	cfg := DefaultConfig()
	cfg.TargetElements = []string{"title", "body", "author", "publish_time"}
	cfg.URLs = []string{
		"https://example.com/article1",
		"https://example.com/article2",
	}
	cfg.URLsFile = "urls.txt"
	return cfg
}

// LoadConfig reads, validates and normalizes the config at path.
// Relative file paths in the config are resolved against its directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, locxpath.Errorf(locxpath.ENOTFOUND, "config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, locxpath.Errorf(locxpath.EINVALID, "invalid config JSON in %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values and builds Targets. It does not touch the
// file system.
func (c *Config) Validate() error {
	if len(c.TargetElements) == 0 {
		return locxpath.Errorf(locxpath.EINVALID, "target_elements is required")
	}
	targets, err := locxpath.NewTargetSet(c.TargetElements...)
	if err != nil {
		return err
	}
	c.Targets = targets

	positive := []struct {
		name  string
		value int
	}{
		{"max_http_concurrent", c.MaxHTTPConcurrent},
		{"max_llm_concurrent", c.MaxLLMConcurrent},
		{"max_global_concurrent", c.MaxGlobalConcurrent},
		{"batch_size", c.BatchSize},
		{"connection_pool_size", c.ConnectionPoolSize},
		{"max_conns_per_host", c.MaxConnsPerHost},
		{"max_tokens", c.MaxTokens},
	}
	for _, p := range positive {
		if p.value < 1 {
			return locxpath.Errorf(locxpath.EINVALID, "%s must be greater than 0", p.name)
		}
	}

	switch {
	case c.RetryCount < 0:
		return locxpath.Errorf(locxpath.EINVALID, "retry_count must not be negative")
	case c.BatchRestTime < 0:
		return locxpath.Errorf(locxpath.EINVALID, "batch_rest_time must not be negative")
	case c.RequestTimeout <= 0:
		return locxpath.Errorf(locxpath.EINVALID, "request_timeout must be greater than 0")
	case c.LLMTimeout <= 0:
		return locxpath.Errorf(locxpath.EINVALID, "llm_timeout must be greater than 0")
	case c.HostRPS < 0:
		return locxpath.Errorf(locxpath.EINVALID, "host_rps must not be negative")
	case c.Temperature < 0 || c.Temperature > 2:
		return locxpath.Errorf(locxpath.EINVALID, "temperature must be between 0 and 2")
	case c.OutputFile == "":
		return locxpath.Errorf(locxpath.EINVALID, "output_file must not be empty")
	case c.OutputFormat.MaxContentLength < 0:
		return locxpath.Errorf(locxpath.EINVALID, "output_format.max_content_length must not be negative")
	}
	if c.Sitemap != "" && !locxpath.ValidURL(c.Sitemap) {
		return locxpath.Errorf(locxpath.EINVALID, "sitemap must be an absolute URL: %q", c.Sitemap)
	}
	if _, err := c.SitemapFilter(); err != nil {
		return err
	}
	return nil
}

// normalize resolves file paths and builds the URL list: inline URLs, then
// URLs from urls_file, deduplicated in first-seen order, minus the URLs of
// exclude_urls_file.
func (c *Config) normalize(dir string) error {
	c.URLsFile = resolve(dir, c.URLsFile)
	c.ExcludeURLsFile = resolve(dir, c.ExcludeURLsFile)
	c.OutputFile = resolve(dir, c.OutputFile)

	var urls []string
	for _, u := range c.URLs {
		u = strings.TrimSpace(u)
		if !locxpath.ValidURL(u) {
			c.Warnings = append(c.Warnings, fmt.Sprintf("invalid URL skipped: %s", u))
			continue
		}
		urls = append(urls, u)
	}

	if c.URLsFile != "" {
		fileURLs, warnings, err := fs.LoadURLs(c.URLsFile)
		if err != nil {
			return err
		}
		urls = append(urls, fileURLs...)
		c.Warnings = append(c.Warnings, warnings...)
	}

	if c.ExcludeURLsFile != "" {
		excluded, warnings, err := fs.LoadURLs(c.ExcludeURLsFile)
		if err != nil {
			return err
		}
		c.Excluded = excluded
		c.Warnings = append(c.Warnings, warnings...)
	}

	c.URLs = bloom.Exclude(bloom.Dedupe(urls), c.Excluded)
	return nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// SitemapFilter compiles the sitemap include and exclude patterns.
func (c *Config) SitemapFilter() (*locxpath.URLFilter, error) {
	return locxpath.NewURLFilter(c.SitemapInclude, c.SitemapExclude)
}

// Limits returns the concurrency ceilings.
func (c *Config) Limits() extract.Limits {
	return extract.Limits{
		Fetch:  c.MaxHTTPConcurrent,
		LLM:    c.MaxLLMConcurrent,
		Global: c.MaxGlobalConcurrent,
	}
}

// RestInterval returns batch_rest_time as a duration. A zero rest time
// disables the pause between chunks.
func (c *Config) RestInterval() time.Duration {
	if c.BatchRestTime == 0 {
		return -1
	}
	return seconds(c.BatchRestTime)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WriteTemplate writes cfg as indented JSON to path, replacing the file
// only once it is fully written.
func WriteTemplate(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	f, err := fs.CreateAtomic(path)
	if err != nil {
		return err
	}
	defer f.Abort()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Commit()
}
