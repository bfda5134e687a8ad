package csv_test

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/locxpath"
	loccsv "github.com/fwojciec/locxpath/csv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTargets(t *testing.T, names ...string) locxpath.TargetSet {
	t.Helper()
	ts, err := locxpath.NewTargetSet(names...)
	require.NoError(t, err)
	return ts
}

func sampleResults(targets locxpath.TargetSet) []*locxpath.URLResult {
	return []*locxpath.URLResult{
		locxpath.NewSuccessResult("https://example.com/a", targets, map[string]locxpath.ElementResult{
			"title": locxpath.FoundElement("//h1", "标题, with comma", 1),
			"body":  locxpath.MissingElement("//article"),
		}, 1500*time.Millisecond),
		locxpath.NewErrorResult("https://example.com/b", targets,
			locxpath.Errorf(locxpath.EFETCH, "HTTP 404 for https://example.com/b"), 250*time.Millisecond),
	}
}

func readCSV(t *testing.T, path string) (string, [][]string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	return string(raw), records
}

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	t.Run("writes BOM, header and one row per element", func(t *testing.T) {
		t.Parallel()

		// Given: two results for two targets
		targets := mustTargets(t, "title", "body")
		path := filepath.Join(t.TempDir(), "batch_results.csv")
		exporter := loccsv.NewExporter(path)

		// When: exporting with every optional column
		err := exporter.Export(context.Background(), sampleResults(targets), targets, locxpath.DefaultExportOptions())

		// Then: the file starts with a BOM and holds 1 header + 4 rows
		require.NoError(t, err)
		raw, records := readCSV(t, path)
		assert.True(t, strings.HasPrefix(raw, "\ufeff"))
		require.Len(t, records, 5)
		assert.Equal(t, locxpath.DefaultExportOptions().Header(), records[0])
		assert.Equal(t, []string{
			"https://example.com/a", "title", "//h1", "success", "标题, with comma", "1", "1.50", "",
		}, records[1])
		assert.Equal(t, []string{
			"https://example.com/a", "body", "//article", "failure", "", "0", "1.50", "",
		}, records[2])
		assert.Equal(t, "error", records[3][3])
		assert.Equal(t, "HTTP 404 for https://example.com/b", records[3][7])
	})

	t.Run("omits disabled columns", func(t *testing.T) {
		t.Parallel()

		targets := mustTargets(t, "title", "body")
		path := filepath.Join(t.TempDir(), "out.csv")

		err := loccsv.NewExporter(path).Export(context.Background(), sampleResults(targets), targets, locxpath.ExportOptions{})

		require.NoError(t, err)
		_, records := readCSV(t, path)
		assert.Equal(t, []string{"URL", "ElementName", "Locator", "Status", "ErrorMessage"}, records[0])
		for _, r := range records {
			assert.Len(t, r, 5)
		}
	})

	t.Run("empty result set writes header only", func(t *testing.T) {
		t.Parallel()

		targets := mustTargets(t, "title")
		path := filepath.Join(t.TempDir(), "out.csv")

		err := loccsv.NewExporter(path).Export(context.Background(), nil, targets, locxpath.DefaultExportOptions())

		require.NoError(t, err)
		_, records := readCSV(t, path)
		assert.Len(t, records, 1)
	})

	t.Run("canceled context leaves existing file untouched", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "out.csv")
		require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))
		targets := mustTargets(t, "title", "body")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := loccsv.NewExporter(path).Export(ctx, sampleResults(targets), targets, locxpath.DefaultExportOptions())

		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "previous", string(content))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
