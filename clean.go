package locxpath

import (
	"context"
	"time"
)

// PageStore keeps cleaned copies of fetched pages.
type PageStore interface {
	// Save writes html as the stored copy of url and returns where it
	// was written.
	Save(ctx context.Context, url, html string) (path string, err error)
}

// CleanResult is the outcome of fetching, cleaning and storing one page.
type CleanResult struct {
	URL       string
	Path      string
	Error     string
	ErrorCode string
	Duration  time.Duration
}

// Succeeded reports whether the page was stored.
func (r *CleanResult) Succeeded() bool {
	return r.Error == ""
}
