package main_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/locxpath"
	main "github.com/fwojciec/locxpath/cmd/locxpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes cfg as JSON into dir and returns the file path.
func writeConfig(t *testing.T, dir string, cfg map[string]any) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeConfig(t, dir, map[string]any{
			"target_elements": []string{"title", "body"},
			"urls":            []string{"https://example.com/a"},
		})

		cfg, err := main.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"title", "body"}, cfg.Targets.Names())
		assert.Equal(t, 20, cfg.MaxHTTPConcurrent)
		assert.Equal(t, 5, cfg.MaxLLMConcurrent)
		assert.Equal(t, 50, cfg.MaxGlobalConcurrent)
		assert.Equal(t, 10, cfg.BatchSize)
		assert.Equal(t, 100*time.Millisecond, cfg.RestInterval())
		assert.Equal(t, 3, cfg.RetryCount)
		assert.Equal(t, "gemini-2.5-flash", cfg.Model)
		assert.Equal(t, filepath.Join(dir, "batch_results.csv"), cfg.OutputFile)
		assert.Equal(t, locxpath.DefaultExportOptions(), cfg.OutputFormat)
	})

	t.Run("keeps explicit values and partial output format", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), map[string]any{
			"target_elements":     []string{"title"},
			"urls":                []string{"https://example.com/a"},
			"max_http_concurrent": 3,
			"batch_rest_time":     0,
			"retry_count":         0,
			"output_file":         "/tmp/out/results.db",
			"output_format": map[string]any{
				"include_content_preview": false,
			},
		})

		cfg, err := main.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, 3, cfg.MaxHTTPConcurrent)
		assert.Negative(t, cfg.RestInterval(), "zero rest time disables the pause")
		assert.Equal(t, 0, cfg.RetryCount)
		assert.Equal(t, "/tmp/out/results.db", cfg.OutputFile)
		assert.False(t, cfg.OutputFormat.IncludeContentPreview)
		assert.True(t, cfg.OutputFormat.IncludeMatchCount)
		assert.Equal(t, 200, cfg.OutputFormat.MaxContentLength)
	})

	t.Run("merges inline and file URLs in order without duplicates", func(t *testing.T) {
		t.Parallel()

		// Given: inline URLs, a URL file and an exclude file next to the config
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "urls.txt"), []byte(
			"# batch one\nhttps://example.com/c\nhttps://example.com/a\n\nnot-a-url\nhttps://example.com/d\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "exclude.txt"), []byte(
			"https://example.com/d\n"), 0644))
		path := writeConfig(t, dir, map[string]any{
			"target_elements":   []string{"title"},
			"urls":              []string{" https://example.com/b ", "https://example.com/a", "ftp://nope"},
			"urls_file":         "urls.txt",
			"exclude_urls_file": "exclude.txt",
		})

		// When: loading the config
		cfg, err := main.LoadConfig(path)

		// Then: URLs keep first-seen order, minus duplicates and excludes
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/b",
			"https://example.com/a",
			"https://example.com/c",
		}, cfg.URLs)
		assert.Equal(t, []string{"https://example.com/d"}, cfg.Excluded)
		require.Len(t, cfg.Warnings, 2)
		assert.Contains(t, cfg.Warnings[0], "ftp://nope")
		assert.Contains(t, cfg.Warnings[1], "not-a-url")
	})

	t.Run("missing file is ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadConfig(filepath.Join(t.TempDir(), "missing.json"))

		require.Error(t, err)
		assert.Equal(t, locxpath.ENOTFOUND, locxpath.ErrorCode(err))
	})

	t.Run("missing URL file is ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), map[string]any{
			"target_elements": []string{"title"},
			"urls_file":       "nowhere.txt",
		})

		_, err := main.LoadConfig(path)

		require.Error(t, err)
		assert.Equal(t, locxpath.ENOTFOUND, locxpath.ErrorCode(err))
	})

	t.Run("malformed JSON is EINVALID", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"target_elements": [`), 0644))

		_, err := main.LoadConfig(path)

		require.Error(t, err)
		assert.Equal(t, locxpath.EINVALID, locxpath.ErrorCode(err))
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Parallel()

		cases := map[string]map[string]any{
			"target_elements required": {"urls": []string{"https://example.com"}},
			"target_elements":          {"target_elements": []string{"title", "title"}},
			"max_llm_concurrent":       {"target_elements": []string{"title"}, "max_llm_concurrent": 0},
			"max_global_concurrent":    {"target_elements": []string{"title"}, "max_global_concurrent": -1},
			"batch_size":               {"target_elements": []string{"title"}, "batch_size": 0},
			"retry_count":              {"target_elements": []string{"title"}, "retry_count": -1},
			"request_timeout":          {"target_elements": []string{"title"}, "request_timeout": 0},
			"temperature":              {"target_elements": []string{"title"}, "temperature": 3},
			"sitemap":                  {"target_elements": []string{"title"}, "sitemap": "example.com"},
			"invalid include pattern":  {"target_elements": []string{"title"}, "sitemap_include": []string{"("}},
		}
		for name, cfg := range cases {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				path := writeConfig(t, t.TempDir(), cfg)

				_, err := main.LoadConfig(path)

				require.Error(t, err)
				assert.Equal(t, locxpath.EINVALID, locxpath.ErrorCode(err))
			})
		}
	})
}

func TestWriteTemplate(t *testing.T) {
	t.Parallel()

	// Given: a template written next to a URL file
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, main.WriteTemplate(path, main.TemplateConfig()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "urls.txt"), []byte("https://example.com/article3\n"), 0644))

	// When: loading it back
	cfg, err := main.LoadConfig(path)

	// Then: it is a valid config
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "body", "author", "publish_time"}, cfg.Targets.Names())
	assert.Len(t, cfg.URLs, 3)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"max_llm_concurrent": 5`)
	assert.NotContains(t, string(raw), "api_key")
}
