package locxpath_test

import (
	"testing"

	"github.com/fwojciec/locxpath"
	"github.com/stretchr/testify/assert"
)

func TestValidURL(t *testing.T) {
	t.Parallel()

	valid := []string{
		"https://example.com",
		"http://example.com/news/1?id=2#top",
		"https://127.0.0.1:8080/",
	}
	for _, u := range valid {
		assert.True(t, locxpath.ValidURL(u), u)
	}

	invalid := []string{
		"",
		"example.com/news",
		"/relative/path",
		"ftp://example.com/file",
		"https://",
		"://missing-scheme.com",
	}
	for _, u := range invalid {
		assert.False(t, locxpath.ValidURL(u), u)
	}
}
