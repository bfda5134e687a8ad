package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/locxpath"
	"github.com/fwojciec/locxpath/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferrer_DelegatesToInferFn(t *testing.T) {
	t.Parallel()

	targets, err := locxpath.NewTargetSet("title")
	require.NoError(t, err)

	var gotDigest string
	inferrer := &mock.Inferrer{
		InferFn: func(_ context.Context, digest string, _ locxpath.TargetSet) (locxpath.LocatorMap, error) {
			gotDigest = digest
			return locxpath.LocatorMap{"title": "//title"}, nil
		},
	}

	locators, err := inferrer.Infer(context.Background(), "<title>x</title>", targets)

	require.NoError(t, err)
	assert.Equal(t, "<title>x</title>", gotDigest)
	assert.Equal(t, "//title", locators["title"])
}

func TestResultExporter_DelegatesToExportFn(t *testing.T) {
	t.Parallel()

	called := false
	exporter := &mock.ResultExporter{
		ExportFn: func(context.Context, []*locxpath.URLResult, locxpath.TargetSet, locxpath.ExportOptions) error {
			called = true
			return nil
		},
	}

	err := exporter.Export(context.Background(), nil, locxpath.TargetSet{}, locxpath.ExportOptions{})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestPageStore_DelegatesToSaveFn(t *testing.T) {
	t.Parallel()

	var gotURL, gotHTML string
	store := &mock.PageStore{
		SaveFn: func(_ context.Context, url, html string) (string, error) {
			gotURL, gotHTML = url, html
			return "/out/page.html", nil
		},
	}

	path, err := store.Save(context.Background(), "https://example.com", "<p>x</p>")

	require.NoError(t, err)
	assert.Equal(t, "/out/page.html", path)
	assert.Equal(t, "https://example.com", gotURL)
	assert.Equal(t, "<p>x</p>", gotHTML)
}
