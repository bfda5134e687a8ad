package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/locxpath/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"host and path", "https://example.com/news/1", "example.com_news_1.html"},
		{"port and query", "http://127.0.0.1:8080/a?b=c", "127.0.0.1_8080_a.html"},
		{"trailing slash", "https://example.com/blog/", "example.com_blog.html"},
		{"collapses runs", "https://example.com/a//b--c", "example.com_a_b--c.html"},
		{"non-ASCII path", "https://example.com/新闻/1", "example.com_1.html"},
		{"nothing usable", "://", "page.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fs.PageFilename(tt.url))
		})
	}

	t.Run("caps long names", func(t *testing.T) {
		t.Parallel()

		name := fs.PageFilename("https://example.com/" + strings.Repeat("a", 500))

		assert.Len(t, name, 200+len(".html"))
	})
}

func TestPageStore_Save(t *testing.T) {
	t.Parallel()

	t.Run("writes the page under its file name", func(t *testing.T) {
		t.Parallel()

		// Given a store in a directory that does not exist yet
		dir := filepath.Join(t.TempDir(), "cleaned")
		store := fs.NewPageStore(dir)

		// When a page is saved
		path, err := store.Save(context.Background(), "https://example.com/a", "<p>hi</p>")

		// Then it lands in the directory with no temp files left behind
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "example.com_a.html"), path)
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", string(raw))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("overwrites an earlier copy", func(t *testing.T) {
		t.Parallel()

		store := fs.NewPageStore(t.TempDir())
		_, err := store.Save(context.Background(), "https://example.com/a", "old")
		require.NoError(t, err)

		path, err := store.Save(context.Background(), "https://example.com/a", "new")

		require.NoError(t, err)
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(raw))
	})

	t.Run("does nothing when context is canceled", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fs.NewPageStore(dir).Save(ctx, "https://example.com/a", "x")

		require.ErrorIs(t, err, context.Canceled)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
